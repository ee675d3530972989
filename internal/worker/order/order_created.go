package order

import (
	"context"
	"encoding/json"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/database"
	"github.com/greencrop/storefront/internal/entity"
	"github.com/greencrop/storefront/internal/messaging"
	customerrepo "github.com/greencrop/storefront/internal/repository/customer"
	ordersvc "github.com/greencrop/storefront/internal/service/order"
	"github.com/greencrop/storefront/internal/worker"
)

var workerTracer = otel.Tracer("github.com/greencrop/storefront/worker/order")

// Notification channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		NewNotifier,
		fx.Annotate(
			NewOrderCreatedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// ConnProvider hands out store connections.
type ConnProvider interface {
	Acquire(ctx context.Context) (bun.IDB, error)
	Release(db bun.IDB)
}

// PreferenceStore loads the notification settings of a user.
type PreferenceStore interface {
	Preferences(ctx context.Context, db bun.IDB, userID int64) (entity.NotificationPreferences, error)
}

// Notifier decides on which channels an order confirmation goes out.
type Notifier struct {
	conns  ConnProvider
	prefs  PreferenceStore
	logger *zap.Logger
}

// NewNotifier wires a Notifier over the customer repository.
func NewNotifier(provider *database.Provider, customers *customerrepo.Repository, logger *zap.Logger) *Notifier {
	return newNotifier(provider, customers, logger)
}

func newNotifier(conns ConnProvider, prefs PreferenceStore, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{conns: conns, prefs: prefs, logger: logger}
}

// Channels returns the channels for event. Guests are always mailed at the
// address they typed; owners get whatever their preferences allow. When the
// store is unreachable owners fall back to the default preferences.
func (n *Notifier) Channels(ctx context.Context, event ordersvc.OrderCreatedEvent) []string {
	if event.OwnerID == nil {
		if event.CustomerEmail == "" {
			return nil
		}
		return []string{ChannelEmail}
	}

	prefs := entity.DefaultNotificationPreferences(*event.OwnerID)
	if db, err := n.conns.Acquire(ctx); err != nil {
		n.logger.Warn("notification preferences unavailable", zap.Int64("user_id", *event.OwnerID), zap.Error(err))
	} else {
		loaded, err := n.prefs.Preferences(ctx, db, *event.OwnerID)
		n.conns.Release(db)
		if err != nil {
			n.logger.Warn("load notification preferences", zap.Int64("user_id", *event.OwnerID), zap.Error(err))
		} else {
			prefs = loaded
		}
	}

	var channels []string
	if prefs.Email {
		channels = append(channels, ChannelEmail)
	}
	if prefs.SMS {
		channels = append(channels, ChannelSMS)
	}
	return channels
}

// NewOrderCreatedHandler sets up a worker handler that routes order
// confirmations to the customer's channels.
func NewOrderCreatedHandler(notifier *Notifier, logger *zap.Logger) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.notify", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		var event ordersvc.OrderCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order created", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.Int64("order.id", event.ID))

		channels := notifier.Channels(ctx, event)
		if len(channels) == 0 {
			logger.Info("order confirmation skipped", zap.Int64("order_id", event.ID))

			return nil
		}
		logger.Info("order confirmation dispatched",
			zap.Int64("order_id", event.ID),
			zap.String("event_id", event.EventID),
			zap.Strings("channels", channels),
			zap.String("total", event.Total),
			zap.Int64("points", event.Points),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Event:   messaging.EventOrderCreated,
		Handler: handler,
	}
}
