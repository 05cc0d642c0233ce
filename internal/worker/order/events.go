package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/config"
	"github.com/kirana-labs/kirana/internal/messaging"
	"github.com/kirana-labs/kirana/internal/notify"
	hotelrepo "github.com/kirana-labs/kirana/internal/repository/hotel"
	ordersvc "github.com/kirana-labs/kirana/internal/service/order"
	"github.com/kirana-labs/kirana/internal/worker"
)

var workerTracer = otel.Tracer("github.com/kirana-labs/kirana/worker/order")

// Module registers order event worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderEventsHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderEventsHandler consumes order events and fans out push
// notifications: placements alert the admin devices, status changes alert
// the owning hotel.
func NewOrderEventsHandler(
	logger *zap.Logger,
	cfg config.Config,
	sender notify.Sender,
	hotels *hotelrepo.Repository,
) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.String("event.type", event.Type))

		switch event.Type {
		case ordersvc.EventOrderPlaced:
			notifyAdmins(ctx, logger, cfg, sender, event)
		case ordersvc.EventOrderStatusChanged:
			notifyHotel(ctx, logger, sender, hotels, event)
		default:
			logger.Warn("unknown order event type", zap.String("type", event.Type))
		}
		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}

// notifyAdmins pushes a placement alert to every configured admin device.
// Failures log and move on; delivery is fire-and-forget.
func notifyAdmins(ctx context.Context, logger *zap.Logger, cfg config.Config, sender notify.Sender, event ordersvc.Event) {
	title := "New Order"
	body := fmt.Sprintf("Order from %s for Rs.%.0f", event.HotelID, event.Total)

	for _, token := range cfg.Notifications.AdminTokens {
		if err := sender.Send(ctx, token, title, body); err != nil {
			logger.Warn("admin push failed", zap.String("order_id", event.OrderID), zap.Error(err))
		}
	}
	logger.Info("order placed event processed",
		zap.String("order_id", event.OrderID),
		zap.String("hotel_id", event.HotelID),
	)
}

// notifyHotel pushes a status update to the ordering hotel's device.
func notifyHotel(ctx context.Context, logger *zap.Logger, sender notify.Sender, hotels *hotelrepo.Repository, event ordersvc.Event) {
	hotel, err := hotels.GetByID(ctx, event.HotelID)
	if err != nil {
		logger.Warn("hotel lookup for push failed", zap.String("hotel_id", event.HotelID), zap.Error(err))
		return
	}
	if hotel.PushToken == "" {
		logger.Debug("hotel has no push token", zap.String("hotel_id", event.HotelID))
		return
	}

	title := "Order Update"
	body := fmt.Sprintf("Your order is now %s", event.Status)
	if err := sender.Send(ctx, hotel.PushToken, title, body); err != nil {
		logger.Warn("hotel push failed", zap.String("order_id", event.OrderID), zap.Error(err))
		return
	}
	logger.Info("status change event processed",
		zap.String("order_id", event.OrderID),
		zap.String("status", string(event.Status)),
	)
}
