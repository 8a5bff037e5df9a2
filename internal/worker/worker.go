package worker

import (
	"context"

	"mandihub/internal/broker"
	"mandihub/internal/models"
	"mandihub/internal/redisclient"
	"mandihub/internal/util"

	"go.uber.org/zap"
)

// StatsWorker consumes the order event stream and keeps the live
// marketplace counters in Redis. Counters are advisory; the database
// aggregates in the analytics endpoint remain the source of truth.
type StatsWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	cache        *redisclient.Client
	logger       *zap.Logger
}

// NewStatsWorker creates a new stats worker
func NewStatsWorker(consumer *broker.Consumer, cache *redisclient.Client) *StatsWorker {
	w := &StatsWorker{
		consumer: consumer,
		cache:    cache,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderConfirmed(w.handleOrderConfirmed)
	eventHandler.OnDeliveryUpdated(w.handleDeliveryUpdated)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *StatsWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting stats worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StatsWorker) Stop() error {
	w.logger.Info("Stopping stats worker")
	return w.consumer.Close()
}

func (w *StatsWorker) handleOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error {
	if err := w.cache.IncrOrdersConfirmed(ctx, event.TotalPrice); err != nil {
		w.logger.Error("Failed to update confirmed counters",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return err
	}
	return nil
}

func (w *StatsWorker) handleDeliveryUpdated(ctx context.Context, event *models.OrderDeliveryUpdatedEvent) error {
	if event.Status != models.OrderStatusDelivered {
		return nil
	}
	if err := w.cache.IncrDeliveriesCompleted(ctx); err != nil {
		w.logger.Error("Failed to update delivery counter",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return err
	}
	return nil
}
