package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Service is the enqueue side of the outbox. Domain services call it
// inside their own transactions.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Enqueue(ctx context.Context, recipient, subject, body string) error {
	return s.repo.Create(ctx, &Notification{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	})
}

// Worker drains the outbox in the background.
type Worker struct {
	repo     Repository
	provider Provider
	interval time.Duration
	batch    int
	logger   zerolog.Logger
}

func NewWorker(repo Repository, provider Provider, interval time.Duration, logger zerolog.Logger) *Worker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Worker{repo: repo, provider: provider, interval: interval, batch: 50, logger: logger}
}

// Run blocks until ctx is canceled, delivering pending notifications on
// each tick.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.deliverBatch(ctx)
		}
	}
}

func (w *Worker) deliverBatch(ctx context.Context) {
	pending, err := w.repo.NextPending(ctx, w.batch)
	if err != nil {
		w.logger.Error().Err(err).Msg("fetch pending notifications")
		return
	}
	for _, n := range pending {
		if err := w.provider.Send(ctx, n); err != nil {
			w.logger.Warn().Err(err).Str("notification_id", n.ID.String()).Msg("notification delivery failed")
			if err := w.repo.MarkFailed(ctx, n.ID, err.Error()); err != nil {
				w.logger.Error().Err(err).Msg("mark notification failed")
			}
			continue
		}
		if err := w.repo.MarkSent(ctx, n.ID); err != nil {
			w.logger.Error().Err(err).Msg("mark notification sent")
		}
	}
}
