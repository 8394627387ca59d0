// Package engine applies speculative changes to the local caches, runs the
// matching backend calls as Bubble Tea commands and reconciles or rolls
// back once the outcome is known.
//
// Engines are driven from the Bubble Tea update loop only. Their commands
// never touch a cache; they return result messages that the owning engine
// handles in Update.
package engine

import "time"

// Kind is the operation a pending change belongs to.
type Kind string

const (
	KindLike          Kind = "like"
	KindUnlike        Kind = "unlike"
	KindCreateComment Kind = "createComment"
	KindCreateReply   Kind = "createReply"
	KindReport        Kind = "report"
)

// Delta is a reversible cache change.
type Delta struct {
	Apply  func()
	Revert func()
}

// Pending is a change that has been applied locally but not yet settled.
type Pending struct {
	Key      string
	TargetID string
	Kind     Kind
	Started  time.Time

	revert func()
}

// Ledger tracks in-flight changes, one per key.
type Ledger struct {
	inflight map[string]*Pending
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{inflight: make(map[string]*Pending)}
}

// Speculate applies d and records it under key. It returns false, without
// applying anything, while another change for key is in flight.
func (l *Ledger) Speculate(key, targetID string, kind Kind, d Delta) (*Pending, bool) {
	if _, busy := l.inflight[key]; busy {
		return nil, false
	}
	p := &Pending{Key: key, TargetID: targetID, Kind: kind, Started: time.Now(), revert: d.Revert}
	l.inflight[key] = p
	if d.Apply != nil {
		d.Apply()
	}
	return p, true
}

// Commit settles p successfully and runs reconcile, if any. It returns false
// when p is no longer tracked (already settled or reset).
func (l *Ledger) Commit(p *Pending, reconcile func()) bool {
	if !l.settle(p) {
		return false
	}
	if reconcile != nil {
		reconcile()
	}
	return true
}

// Rollback settles p as failed and reverts its delta.
func (l *Ledger) Rollback(p *Pending) bool {
	if !l.settle(p) {
		return false
	}
	if p.revert != nil {
		p.revert()
	}
	return true
}

func (l *Ledger) settle(p *Pending) bool {
	if p == nil {
		return false
	}
	if cur, ok := l.inflight[p.Key]; !ok || cur != p {
		return false
	}
	delete(l.inflight, p.Key)
	return true
}

// InFlight reports whether a change for key is pending.
func (l *Ledger) InFlight(key string) bool {
	_, ok := l.inflight[key]
	return ok
}

// Reset forgets every pending change without reverting it. Results that
// arrive afterwards are ignored.
func (l *Ledger) Reset() {
	l.inflight = make(map[string]*Pending)
}

// Len returns the number of pending changes.
func (l *Ledger) Len() int { return len(l.inflight) }

func likeKey(entity, id string) string { return entity + ":" + id + ":like" }

func reportKey(id string) string { return "message:" + id + ":report" }

func createKey(tempID string) string { return "comment:" + tempID + ":create" }

func likeKind(liked bool) Kind {
	if liked {
		return KindLike
	}
	return KindUnlike
}
