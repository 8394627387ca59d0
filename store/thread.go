package store

import "github.com/CrestNiraj12/whispernet/domain"

// Thread is the comment cache of one whisper: an ordered list of top-level
// comments, each owning its replies.
type Thread struct {
	MessageID string
	roots     []domain.Comment
}

// Row is one comment in display order.
type Row struct {
	Comment domain.Comment
	Depth   int
}

// NewThread creates an empty thread for messageID.
func NewThread(messageID string) *Thread {
	return &Thread{MessageID: messageID}
}

// ReplaceAll swaps the whole tree. A node whose id was already seen earlier
// in display order is dropped together with its subtree.
func (t *Thread) ReplaceAll(tree []domain.Comment) {
	seen := make(map[string]struct{})
	t.roots = dedupe(tree, seen)
}

func dedupe(tree []domain.Comment, seen map[string]struct{}) []domain.Comment {
	out := make([]domain.Comment, 0, len(tree))
	for _, c := range tree {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		if len(c.Replies) > 0 {
			c.Replies = dedupe(c.Replies, seen)
		}
		out = append(out, c)
	}
	return out
}

// Roots returns the top-level comments.
func (t *Thread) Roots() []domain.Comment { return t.roots }

// Prepend puts a new top-level comment first.
func (t *Thread) Prepend(c domain.Comment) {
	roots := make([]domain.Comment, 0, len(t.roots)+1)
	t.roots = append(append(roots, c), t.roots...)
}

// InsertReply attaches c under parentID. It reports false when the parent
// is not in the thread.
func (t *Thread) InsertReply(parentID string, c domain.Comment) bool {
	tree, ok := InsertUnder(t.roots, parentID, c)
	t.roots = tree
	return ok
}

// ReplaceNode swaps the node id for c in place.
func (t *Thread) ReplaceNode(id string, c domain.Comment) bool {
	tree, ok := ReplaceByID(t.roots, id, c)
	t.roots = tree
	return ok
}

// Update patches the node id.
func (t *Thread) Update(id string, patch func(*domain.Comment)) bool {
	tree, ok := UpdateByID(t.roots, id, patch)
	t.roots = tree
	return ok
}

// Remove drops the node id wherever it is.
func (t *Thread) Remove(id string) bool {
	tree, ok := RemoveByID(t.roots, id)
	t.roots = tree
	return ok
}

// RemoveChild drops id from the replies of parentID.
func (t *Thread) RemoveChild(parentID, id string) bool {
	tree, ok := RemoveChild(t.roots, parentID, id)
	t.roots = tree
	return ok
}

// Find returns the node id.
func (t *Thread) Find(id string) (domain.Comment, bool) { return Find(t.roots, id) }

// Contains reports whether id is in the thread.
func (t *Thread) Contains(id string) bool { return Contains(t.roots, id) }

// Count returns the number of comments including replies.
func (t *Thread) Count() int { return domain.CountComments(t.roots) }

// Rows flattens the thread in display order.
func (t *Thread) Rows() []Row {
	var rows []Row
	Walk(t.roots, func(c domain.Comment, depth int) bool {
		rows = append(rows, Row{Comment: c, Depth: depth})
		return true
	})
	return rows
}

// Drafts returns the local comments that the server has not confirmed, in
// display order, with their replies stripped.
func (t *Thread) Drafts() []domain.Comment {
	var out []domain.Comment
	Walk(t.roots, func(c domain.Comment, _ int) bool {
		if c.IsTemporary() {
			c.Replies = nil
			out = append(out, c)
		}
		return true
	})
	return out
}
