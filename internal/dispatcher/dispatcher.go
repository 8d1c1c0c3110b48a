package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Event represents an incoming intent from the presentation shell.
type Event struct {
	Intent    string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger

	// OTEL metrics
	queueSize  metric.Int64ObservableGauge
	processed  metric.Int64Counter
	dropped    metric.Int64Counter
	commits    metric.Int64Counter
	historyOps metric.Int64Counter

	// Track buffers for gauge callback
	mu      sync.RWMutex
	buffers map[string]chan Event
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		buffers:  make(map[string]chan Event),
		logger:   logger,
	}

	// Get meter from global OTel provider (returns no-op if not configured)
	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of events in queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for intent, buf := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(len(buf)),
					metric.WithAttributes(attribute.String("intent", intent)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Total events dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	d.commits, err = m.Int64Counter(
		"board.commands.committed",
		metric.WithDescription("Total commands committed per board and kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating commit counter: %w", err)
	}

	d.historyOps, err = m.Int64Counter(
		"board.history.ops",
		metric.WithDescription("Undo and redo operations per board and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating history op counter: %w", err)
	}

	return d, nil
}

// RecordCommit counts a committed board command. Wired to the history
// bus commit hook so every edit shows up per board and command kind.
func (d *Dispatcher) RecordCommit(boardID, kind string) {
	d.commits.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("board", boardID),
		attribute.String("kind", kind),
	))
}

// RecordHistoryOp counts an undo or redo attempt and its outcome
// (applied, nothing-to-undo, nothing-to-redo).
func (d *Dispatcher) RecordHistoryOp(boardID, op, outcome string) {
	d.historyOps.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("board", boardID),
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

// Register adds a handler for the given intent with optional configuration.
func (d *Dispatcher) Register(intent string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h

	if cfg.bufferSize > 0 {
		handler = d.withBuffer(intent, cfg.bufferSize, cfg.blocking, handler)
	}

	if cfg.logged {
		handler = d.withLogging(intent, handler)
	}

	d.handlers[intent] = handler
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	h, ok := d.handlers[e.Intent]
	if !ok {
		return nil, fmt.Errorf("unknown intent: %s", e.Intent)
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the intent.
func (d *Dispatcher) HasHandler(intent string) bool {
	_, ok := d.handlers[intent]
	return ok
}

func (d *Dispatcher) withBuffer(intent string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	buffer := make(chan Event, size)

	d.mu.Lock()
	d.buffers[intent] = buffer
	d.mu.Unlock()

	intentAttr := attribute.String("intent", intent)

	go func() {
		for e := range buffer {
			h(e)
			d.processed.Add(context.Background(), 1, metric.WithAttributes(intentAttr))
		}
	}()

	if blocking {
		return func(e Event) (any, error) {
			buffer <- e
			return "queued", nil
		}
	}

	return func(e Event) (any, error) {
		select {
		case buffer <- e:
			return "queued", nil
		default:
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(intentAttr))
			return nil, fmt.Errorf("queue full: %s", intent)
		}
	}
}

func (d *Dispatcher) withLogging(intent string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "intent", intent, "args", len(e.Args))

		result, err := h(e)

		if err != nil {
			d.logger.Error("event failed", "intent", intent, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "intent", intent, "duration", time.Since(start))
		}

		return result, err
	}
}
