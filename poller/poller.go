package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"imgcsv/dto"
	"imgcsv/models"
)

// DefaultInterval is the fixed delay between status checks. No backoff, no
// jitter.
const DefaultInterval = 5 * time.Second

// StatusFetcher is the slice of the service client the poller needs.
type StatusFetcher interface {
	Status(ctx context.Context, requestID string) (*dto.StatusResponse, error)
}

// Poller repeatedly checks one job's status at a fixed interval until the
// job terminates. Cancellation goes through the context handed to Poll, so
// a caller that starts a new job can invalidate a poller still bound to the
// old one.
type Poller struct {
	fetcher  StatusFetcher
	interval time.Duration
	logger   *zap.Logger
}

func New(fetcher StatusFetcher, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		logger:   logger,
	}
}

// Poll issues the first status check immediately and then re-checks every
// interval until a terminal status arrives, the context is cancelled, or a
// check fails. Every successful response is handed to onUpdate before the
// continuation decision. An unrecognized status is reported like any other
// and keeps the loop alive. A failed check stops the loop; the caller
// decides whether to resume.
func (p *Poller) Poll(ctx context.Context, requestID string, onUpdate func(*dto.StatusResponse)) (models.JobStatus, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}

		resp, err := p.fetcher.Status(ctx, requestID)
		if err != nil {
			p.logger.Error("Status check failed",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
			return "", err
		}

		p.logger.Info("Status received",
			zap.String("request_id", requestID),
			zap.String("status", resp.Status),
			zap.Int("products", len(resp.Products)),
		)

		if onUpdate != nil {
			onUpdate(resp)
		}

		if status := models.JobStatus(resp.Status); status.Terminal() {
			return status, nil
		}

		timer.Reset(p.interval)
	}
}
