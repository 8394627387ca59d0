package engine

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/domain"
)

// Snapshot kinds.
const (
	snapFeed     = "feed"
	snapComments = "comments"
	snapRankings = "rankings"
)

// backup is one way of serving a load when the server cannot.
type backup[T any] struct {
	source Source
	get    func() (T, bool)
}

// loadResult is the outcome of a degrading load.
type loadResult[T any] struct {
	data     T
	source   Source
	advisory error
	err      error
}

// degradingLoad runs fetch. On success the data is saved as the snapshot of
// (kind, key). On any failure other than cancellation it falls back to that
// snapshot and then to each backup in order, keeping the failure as an
// advisory. It runs on a command goroutine.
func degradingLoad[T any](ctx context.Context, snaps app.Snapshots, kind, key string,
	fetch func(context.Context) (T, error), backups ...backup[T]) loadResult[T] {

	data, err := fetch(ctx)
	if err == nil {
		if snaps != nil {
			if serr := snaps.Save(ctx, kind, key, data); serr != nil && !domain.IsCancelled(serr) && ctx.Err() == nil {
				log.Error().Err(serr).Str("kind", kind).Str("key", key).Msg("saving snapshot failed")
			}
		}
		return loadResult[T]{data: data, source: SourceServer}
	}
	if domain.IsCancelled(err) || ctx.Err() != nil {
		return loadResult[T]{err: cancelledErr(err)}
	}

	log.Warn().Err(err).Str("kind", kind).Str("key", key).Str("class", domain.Classify(err)).Msg("load failed, degrading")

	if snaps != nil {
		var cached T
		ok, serr := snaps.Load(ctx, kind, key, &cached)
		if serr != nil {
			log.Error().Err(serr).Str("kind", kind).Msg("reading snapshot failed")
		}
		if ok {
			return loadResult[T]{data: cached, source: SourceSnapshot, advisory: err}
		}
	}
	for _, b := range backups {
		if b.get == nil {
			continue
		}
		if v, ok := b.get(); ok {
			return loadResult[T]{data: v, source: b.source, advisory: err}
		}
	}
	return loadResult[T]{err: err}
}

func cancelledErr(err error) error {
	if domain.IsCancelled(err) {
		return err
	}
	return domain.ErrCancelled
}
