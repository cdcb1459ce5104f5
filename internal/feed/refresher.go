package feed

import (
	"context"
	"fmt"
	"time"

	"qrmenu-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Feed refresh modes
const (
	ModePoll = "poll"
	ModePush = "push"
)

// Refresher keeps subscribers' views current until ctx is done
type Refresher interface {
	Run(ctx context.Context) error
}

// viewSource is anything that can build a view
type viewSource interface {
	Build(ctx context.Context, restaurantID uuid.UUID) (*View, error)
}

// room is the part of the hub refreshers publish to
type room interface {
	Broadcast(restaurantID uuid.UUID, data []byte) bool
	Rooms() []uuid.UUID
	HasSubscribers(restaurantID uuid.UUID) bool
}

type refresh struct {
	builder viewSource
	hub     room
	mode    string
	logger  *zap.Logger
}

func (r *refresh) restaurant(ctx context.Context, restaurantID uuid.UUID) {
	view, err := r.builder.Build(ctx, restaurantID)
	if err != nil {
		r.logger.Error("Failed to build live view",
			zap.String("restaurant_id", restaurantID.String()),
			zap.String("mode", r.mode),
			zap.Error(err))
		return
	}
	data, err := EncodeSnapshot(view)
	if err != nil {
		r.logger.Error("Failed to encode live view", zap.Error(err))
		return
	}
	util.FeedRefreshesTotal.WithLabelValues(r.mode).Inc()
	if !r.hub.Broadcast(restaurantID, data) {
		r.logger.Warn("Live feed queue full, snapshot dropped",
			zap.String("restaurant_id", restaurantID.String()))
	}
}

func (r *refresh) all(ctx context.Context) {
	for _, id := range r.hub.Rooms() {
		if ctx.Err() != nil {
			return
		}
		r.restaurant(ctx, id)
	}
}

// PollRefresher rebuilds every watched restaurant on a fixed interval
type PollRefresher struct {
	refresh
	interval time.Duration
}

// NewPollRefresher creates a polling refresher
func NewPollRefresher(builder viewSource, hub room, interval time.Duration) *PollRefresher {
	return &PollRefresher{
		refresh:  refresh{builder: builder, hub: hub, mode: ModePoll, logger: util.GetLogger()},
		interval: interval,
	}
}

// Run polls until ctx is done
func (p *PollRefresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("Live feed polling started", zap.Duration("interval", p.interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.all(ctx)
		}
	}
}

// PushRefresher rebuilds a restaurant when it is signalled that its data
// changed, and every watched restaurant on a slow safety interval to
// cover lost signals.
type PushRefresher struct {
	refresh
	safetyInterval time.Duration
	signals        chan uuid.UUID
}

// NewPushRefresher creates a signal-driven refresher
func NewPushRefresher(builder viewSource, hub room, safetyInterval time.Duration) *PushRefresher {
	return &PushRefresher{
		refresh:        refresh{builder: builder, hub: hub, mode: ModePush, logger: util.GetLogger()},
		safetyInterval: safetyInterval,
		signals:        make(chan uuid.UUID, 256),
	}
}

// Notify signals that a restaurant's view is stale. It blocks until the
// signal is queued or ctx is done.
func (p *PushRefresher) Notify(ctx context.Context, restaurantID uuid.UUID) error {
	select {
	case p.signals <- restaurantID:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notify restaurant %s: %w", restaurantID, ctx.Err())
	}
}

// Run consumes signals until ctx is done
func (p *PushRefresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.safetyInterval)
	defer ticker.Stop()

	p.logger.Info("Live feed push refresh started", zap.Duration("safety_interval", p.safetyInterval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case id := <-p.signals:
			if p.hub.HasSubscribers(id) {
				p.restaurant(ctx, id)
			}
		case <-ticker.C:
			p.all(ctx)
		}
	}
}
