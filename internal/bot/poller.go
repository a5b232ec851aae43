package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tg-relay-bot/internal/integrations/telegram"
)

const defaultRetryDelay = 3 * time.Second

// UpdateSource is implemented by *telegram.Client.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, int64, error)
}

// UpdateRouter is implemented by *Router.
type UpdateRouter interface {
	Route(ctx context.Context, u telegram.Update)
}

// Poller long-polls Telegram and routes every update on its own goroutine, so
// a slow completion only holds up its own chat message.
type Poller struct {
	source     UpdateSource
	router     UpdateRouter
	timeout    time.Duration
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewPoller(source UpdateSource, router UpdateRouter, timeout time.Duration, logger *slog.Logger) (*Poller, error) {
	if source == nil {
		return nil, errors.New("bot: update source must not be nil")
	}
	if router == nil {
		return nil, errors.New("bot: router must not be nil")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		source:     source,
		router:     router,
		timeout:    timeout,
		retryDelay: defaultRetryDelay,
		logger:     logger,
	}, nil
}

// Run polls until ctx is canceled, then waits for in-flight updates to finish.
// Updates already received are handled to completion even after ctx ends.
func (p *Poller) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	handleCtx := context.WithoutCancel(ctx)
	var offset int64

	p.logger.Info("polling for updates", "timeout", p.timeout)
	for {
		if ctx.Err() != nil {
			p.logger.Info("polling stopped")
			return nil
		}

		updates, next, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("getUpdates failed", "err", err, "retry_in", p.retryDelay)
			select {
			case <-ctx.Done():
			case <-time.After(p.retryDelay):
			}
			continue
		}
		offset = next

		for _, u := range updates {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.router.Route(handleCtx, u)
			}()
		}
	}
}
