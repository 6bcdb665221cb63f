package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// discardRatio rewrites a value log file when at least half of it is stale.
const discardRatio = 0.5

// BadgerGCWorker runs Badger's value-log garbage collection on a ticker.
// Badger never reclaims value-log space on its own; a long-running chat
// server accumulates dead message versions without this.
type BadgerGCWorker struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

func NewBadgerGCWorker(log *slog.Logger, db *badger.DB, interval time.Duration) *BadgerGCWorker {
	return &BadgerGCWorker{log: log, db: db, interval: interval}
}

func (w *BadgerGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// One GC call rewrites at most one file; loop until there is
			// nothing left to collect in this cycle.
			for {
				err := w.db.RunValueLogGC(discardRatio)
				if errors.Is(err, badger.ErrNoRewrite) {
					break
				}
				if err != nil {
					w.log.Warn("Value log GC failed", "err", err)
					break
				}
				w.log.Debug("Value log file collected")
			}
		}
	}
}
