package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tripnest/ms-go-session/config"
)

// PurgeWorker periodically removes accounts whose retention window has
// elapsed and prunes expired refresh token rows.
type PurgeWorker struct {
	users    *UserService
	tokens   *RefreshTokenService
	interval time.Duration
	// retention is how long a soft-deleted account survives before purge.
	retention time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewPurgeWorker(users *UserService, tokens *RefreshTokenService, cfg *config.Config) *PurgeWorker {
	interval := cfg.PurgeInterval
	if interval <= 0 {
		interval = time.Hour
	}
	return &PurgeWorker{
		users:     users,
		tokens:    tokens,
		interval:  interval,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the background loop. Non-blocking; call Stop for a graceful
// shutdown.
func (w *PurgeWorker) Start() {
	go w.run()
	logrus.WithField("interval", w.interval.String()).Info("Purge worker started")
}

// Stop blocks until any in-progress sweep finishes.
func (w *PurgeWorker) Stop() {
	close(w.stopCh)
	<-w.doneCh
	logrus.Info("Purge worker stopped")
}

func (w *PurgeWorker) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stopCh:
			return
		}
	}
}

// sweep performs one purge pass. The two cleanups are independent; a failure
// in one does not stop the other.
func (w *PurgeWorker) sweep() {
	ctx := context.Background()
	cutoff := time.Now().Add(-w.retention)

	expired, err := w.users.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		logrus.WithError(err).Error("Purging soft-deleted accounts failed")
	} else if expired > 0 {
		logrus.WithField("count", expired).Info("Purged soft-deleted accounts")
	}

	pruned, err := w.tokens.tokenRepo.DeleteExpiredBefore(ctx, time.Now())
	if err != nil {
		logrus.WithError(err).Error("Pruning expired refresh tokens failed")
	} else if pruned > 0 {
		logrus.WithField("count", pruned).Info("Pruned expired refresh tokens")
	}
}
