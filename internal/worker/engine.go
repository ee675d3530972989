// Package worker runs the background consumers of the storefront's event
// stream.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/config"
	"github.com/greencrop/storefront/internal/messaging"
)

const maxBackoff = 30 * time.Second

var engineMeter = otel.Meter("github.com/greencrop/storefront/worker")

// HandlerRegistration binds an event type to its handler.
type HandlerRegistration struct {
	Event   string
	Handler messaging.Handler
}

type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine consumes the order event stream with a fixed pool of goroutines
// and routes each message by its event type.
type Engine struct {
	client   messaging.Client
	logger   *zap.Logger
	workers  config.Worker
	enabled  bool
	handlers map[string]messaging.Handler
	handled  metric.Int64Counter

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEngine(p Params) *Engine {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	handlers := make(map[string]messaging.Handler, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Event == "" || r.Handler == nil {
			continue
		}
		if _, dup := handlers[r.Event]; dup {
			logger.Warn("duplicate worker handler ignored", zap.String("event", r.Event))
			continue
		}
		handlers[r.Event] = r.Handler
	}

	handled, err := engineMeter.Int64Counter("storefront.worker.messages",
		metric.WithDescription("Consumed messages by event type and outcome"))
	if err != nil {
		logger.Warn("worker counter unavailable", zap.Error(err))
	}

	return &Engine{
		client:   p.Client,
		logger:   logger,
		workers:  p.Config.Messaging.Workers,
		enabled:  p.Config.Messaging.Enabled && p.Config.Messaging.Workers.Enabled,
		handlers: handlers,
		handled:  handled,
	}
}

// Module wires the engine into the Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{OnStart: engine.start, OnStop: engine.stop})
	}),
)

func (e *Engine) start(context.Context) error {
	if !e.enabled {
		e.logger.Info("worker engine disabled")
		return nil
	}
	if len(e.handlers) == 0 {
		e.logger.Info("worker engine has no handlers; skipping")
		return nil
	}

	concurrency := max(e.workers.Concurrency, 1)
	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	for i := range concurrency {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consumeLoop(runCtx, i)
		}()
	}

	e.logger.Info("worker engine started", zap.Int("workers", concurrency))
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")
		return nil
	}
}

// Dispatch routes msg to the handler of its event type. Unknown event
// types are acknowledged and dropped.
func (e *Engine) Dispatch(ctx context.Context, msg messaging.Message) error {
	event := msg.EventType()
	handler, ok := e.handlers[event]
	if !ok {
		e.logger.Warn("no handler for event", zap.String("event", event), zap.String("topic", msg.Topic))
		e.record(ctx, event, "dropped")
		return nil
	}

	if e.workers.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.workers.HandlerTimeout)
		defer cancel()
	}

	if err := handler(ctx, msg); err != nil {
		e.record(ctx, event, "failed")
		return err
	}
	e.record(ctx, event, "handled")
	return nil
}

func (e *Engine) record(ctx context.Context, event, outcome string) {
	if e.handled == nil {
		return
	}
	e.handled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("outcome", outcome),
	))
}

func (e *Engine) consumeLoop(ctx context.Context, workerID int) {
	backoff := e.workers.PollInterval
	if backoff <= 0 {
		backoff = time.Second
	}

	for ctx.Err() == nil {
		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			e.logger.Debug("processing message",
				zap.String("event", msg.EventType()),
				zap.Int64("offset", msg.Offset),
				zap.Int("worker", workerID),
			)
			return e.Dispatch(msgCtx, msg)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Int("worker", workerID), zap.Error(err))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
