package worker

import (
	"context"

	"qrmenu-service/internal/broker"
	"qrmenu-service/internal/models"
	"qrmenu-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier is told which restaurant's live view went stale.
// Satisfied by *feed.PushRefresher.
type Notifier interface {
	Notify(ctx context.Context, restaurantID uuid.UUID) error
}

// FeedWorker turns the restaurant event stream into live feed refresh
// signals
type FeedWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	notifier     Notifier
	logger       *zap.Logger
}

// NewFeedWorker creates a new feed worker
func NewFeedWorker(consumer *broker.Consumer, notifier Notifier) *FeedWorker {
	w := &FeedWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		notifier:     notifier,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnRestaurantEvent(w.handleEvent)
	return w
}

func (w *FeedWorker) handleEvent(ctx context.Context, event *models.RestaurantEvent) error {
	if event.RestaurantID == uuid.Nil {
		w.logger.Warn("Event without restaurant", zap.String("event_id", event.EventID))
		return nil
	}
	return w.notifier.Notify(ctx, event.RestaurantID)
}

// Start starts the worker
func (w *FeedWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting feed worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *FeedWorker) Stop() error {
	w.logger.Info("Stopping feed worker")
	return w.consumer.Close()
}
