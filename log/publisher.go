package log

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const defaultBufferSize = 64

// Entry is one published log record.
type Entry struct {
	Time time.Time
	// Message is the record message followed by its attributes as
	// space-separated key=value pairs.
	Message string
	Level   slog.Level
}

// Publisher fans out log records to subscribers.
//
// Records reach a Publisher through the [Handler] returned by
// [Publisher.Handler]. Every [Subscription] receives entries on a buffered
// channel with ring-buffer semantics: when it is full the oldest entry is
// dropped, so logging never blocks on a slow subscriber. Safe for concurrent
// use.
//
// Create instances with [NewPublisher].
type Publisher struct {
	subscribers []*Subscription
	bufSize     int
	mu          sync.Mutex
	closed      bool
}

// PublisherOption configures a [Publisher].
type PublisherOption func(*Publisher)

// WithBufferSize sets the channel buffer size for new subscriptions.
// Values less than 1 are clamped to 1.
func WithBufferSize(n int) PublisherOption {
	return func(p *Publisher) {
		p.bufSize = max(n, 1)
	}
}

// NewPublisher creates a [Publisher]. The default buffer size is 64.
func NewPublisher(opts ...PublisherOption) *Publisher {
	p := &Publisher{bufSize: defaultBufferSize}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Publish delivers e to every active subscriber. Closed subscriptions are
// dropped from the subscriber list. Publishing after [Publisher.Close] does
// nothing.
func (p *Publisher) Publish(e Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	alive := p.subscribers[:0]

	for _, sub := range p.subscribers {
		if sub.closed.Load() {
			close(sub.ch)

			continue
		}

		select {
		case sub.ch <- e:
		default:
			<-sub.ch
			sub.ch <- e
		}

		alive = append(alive, sub)
	}

	clear(p.subscribers[len(alive):])
	p.subscribers = alive
}

// Subscribe registers a new [Subscription]. Subscribing to a closed
// Publisher returns a subscription whose channel is already closed.
func (p *Publisher) Subscribe() *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub := &Subscription{ch: make(chan Entry, p.bufSize)}

	if p.closed {
		close(sub.ch)

		return sub
	}

	p.subscribers = append(p.subscribers, sub)

	return sub
}

// Close closes every subscription channel. Idempotent.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true

	for _, sub := range p.subscribers {
		close(sub.ch)
	}

	p.subscribers = nil

	return nil
}

// Handler returns a [Handler] that publishes records at or above level.
func (p *Publisher) Handler(level slog.Leveler) Handler {
	return &publishHandler{pub: p, level: level}
}

// Subscription receives entries from a [Publisher].
type Subscription struct {
	ch     chan Entry
	closed atomic.Bool
}

// C returns the channel that delivers entries.
func (s *Subscription) C() <-chan Entry {
	return s.ch
}

// Close marks the subscription as closed. The Publisher closes the channel
// on its next Publish or Close call. Idempotent.
func (s *Subscription) Close() {
	s.closed.Store(true)
}

type publishHandler struct {
	pub    *Publisher
	level  slog.Leveler
	prefix string
	attrs  string
}

func (h *publishHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *publishHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString(r.Message)
	sb.WriteString(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, h.prefix, a)

		return true
	})

	h.pub.Publish(Entry{Time: r.Time, Level: r.Level, Message: sb.String()})

	return nil
}

func (h *publishHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder

	sb.WriteString(h.attrs)

	for _, a := range attrs {
		writeAttr(&sb, h.prefix, a)
	}

	out := *h
	out.attrs = sb.String()

	return &out
}

func (h *publishHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	out := *h
	out.prefix = h.prefix + name + "."

	return &out
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, ga := range a.Value.Group() {
			writeAttr(sb, prefix, ga)
		}

		return
	}

	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')

	v := a.Value.String()
	if v == "" || strings.ContainsAny(v, " \t\n\"=") {
		v = strconv.Quote(v)
	}

	sb.WriteString(v)
}

// Tee returns a [Handler] that passes each record to every handler enabled
// for its level.
func Tee(handlers ...Handler) Handler {
	return teeHandler(handlers)
}

type teeHandler []Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error

	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}

		err := h.Handle(ctx, r.Clone())
		if err != nil && first == nil {
			first = err
		}
	}

	return first
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}

	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}

	return out
}
