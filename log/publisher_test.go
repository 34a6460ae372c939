package log_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/annotate/log"
)

func messages(t *testing.T, sub *log.Subscription, n int) []string {
	t.Helper()

	out := make([]string, 0, n)
	for range n {
		e, ok := <-sub.C()
		require.True(t, ok)

		out = append(out, e.Message)
	}

	return out
}

func TestNewPublisher(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		opts    []log.PublisherOption
		wantCap int
	}{
		"default buffer size": {
			opts:    nil,
			wantCap: 64,
		},
		"custom buffer size": {
			opts:    []log.PublisherOption{log.WithBufferSize(128)},
			wantCap: 128,
		},
		"clamp zero to one": {
			opts:    []log.PublisherOption{log.WithBufferSize(0)},
			wantCap: 1,
		},
		"clamp negative to one": {
			opts:    []log.PublisherOption{log.WithBufferSize(-5)},
			wantCap: 1,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pub := log.NewPublisher(tc.opts...)

			sub := pub.Subscribe()
			defer sub.Close()

			assert.Equal(t, tc.wantCap, cap(sub.C()))
		})
	}
}

func TestPublisherPublish(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 3} {
		pub := log.NewPublisher()

		subs := make([]*log.Subscription, n)
		for i := range subs {
			subs[i] = pub.Subscribe()
		}

		pub.Publish(log.Entry{Message: "hello", Level: slog.LevelWarn})

		for _, sub := range subs {
			e := <-sub.C()
			assert.Equal(t, "hello", e.Message)
			assert.Equal(t, slog.LevelWarn, e.Level)
		}
	}
}

func TestPublisherRingBuffer(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		bufSize int
		writes  []string
		want    []string
	}{
		"drops oldest on full": {
			bufSize: 2,
			writes:  []string{"a", "b", "c", "d"},
			want:    []string{"c", "d"},
		},
		"preserves newest entries": {
			bufSize: 3,
			writes:  []string{"1", "2", "3", "4", "5"},
			want:    []string{"3", "4", "5"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pub := log.NewPublisher(log.WithBufferSize(tc.bufSize))
			sub := pub.Subscribe()

			for _, w := range tc.writes {
				pub.Publish(log.Entry{Message: w})
			}

			assert.Equal(t, tc.want, messages(t, sub, len(tc.want)))
		})
	}
}

func TestSubscriptionClose(t *testing.T) {
	t.Parallel()

	pub := log.NewPublisher()
	sub := pub.Subscribe()

	pub.Publish(log.Entry{Message: "before"})

	sub.Close()
	sub.Close()

	// The next publish drops the subscription and closes its channel.
	pub.Publish(log.Entry{Message: "after"})

	assert.Equal(t, []string{"before"}, messages(t, sub, 1))

	_, open := <-sub.C()
	assert.False(t, open)
}

func TestPublisherClose(t *testing.T) {
	t.Parallel()

	pub := log.NewPublisher()
	sub1 := pub.Subscribe()
	sub2 := pub.Subscribe()

	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())

	pub.Publish(log.Entry{Message: "ignored"})

	_, open1 := <-sub1.C()
	_, open2 := <-sub2.C()

	assert.False(t, open1)
	assert.False(t, open2)

	late := pub.Subscribe()
	_, open := <-late.C()
	assert.False(t, open)
}

func TestPublisherConcurrency(t *testing.T) {
	t.Parallel()

	pub := log.NewPublisher(log.WithBufferSize(8))
	logger := slog.New(pub.Handler(slog.LevelInfo))

	var wg sync.WaitGroup

	for range 5 {
		wg.Go(func() {
			for range 100 {
				logger.Info("indexed", slog.Int("files", 3))
			}
		})
	}

	for range 5 {
		wg.Go(func() {
			sub := pub.Subscribe()
			for range 20 {
				select {
				case <-sub.C():
				default:
				}
			}

			sub.Close()
		})
	}

	wg.Wait()
	require.NoError(t, pub.Close())
}

func TestPublisherHandler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		log  func(*slog.Logger)
		want string
	}{
		"message and attrs": {
			log: func(l *slog.Logger) {
				l.Info("project indexed", slog.Int("files", 2), slog.String("root", "/srv/app"))
			},
			want: "project indexed files=2 root=/srv/app",
		},
		"quoted values": {
			log: func(l *slog.Logger) {
				l.Warn("skipping file", slog.String("error", "unexpected token"), slog.String("empty", ""))
			},
			want: `skipping file error="unexpected token" empty=""`,
		},
		"logger attrs and groups": {
			log: func(l *slog.Logger) {
				l.With(slog.String("provider", "enum")).
					WithGroup("ref").
					Info("values", slog.String("property", "method"), slog.Group("schema", slog.String("name", "Route")))
			},
			want: "values provider=enum ref.property=method ref.schema.name=Route",
		},
		"below level": {
			log: func(l *slog.Logger) {
				l.Debug("hidden")
				l.Info("shown")
			},
			want: "shown",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pub := log.NewPublisher()
			t.Cleanup(func() { require.NoError(t, pub.Close()) })

			sub := pub.Subscribe()

			tc.log(slog.New(pub.Handler(slog.LevelInfo)))

			assert.Equal(t, []string{tc.want}, messages(t, sub, 1))
		})
	}
}

func TestTee(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	pub := log.NewPublisher()
	t.Cleanup(func() { require.NoError(t, pub.Close()) })

	sub := pub.Subscribe()

	h := log.Tee(
		log.NewHandler(&buf, log.LevelWarn, log.FormatJSON),
		pub.Handler(slog.LevelDebug),
	)
	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	logger := slog.New(h).With(slog.String("component", "lsp"))
	logger.Debug("document opened")
	logger.Warn("document limit reached")

	assert.Equal(t, []string{
		"document opened component=lsp",
		"document limit reached component=lsp",
	}, messages(t, sub, 2))

	assert.NotContains(t, buf.String(), "document opened")
	assert.Contains(t, buf.String(), "document limit reached")
	assert.Contains(t, buf.String(), `"component":"lsp"`)
}

func TestConfigNewPublishingHandler(t *testing.T) {
	t.Parallel()

	cfg := log.NewConfig()
	cfg.Level = "warn"
	cfg.Format = "logfmt"

	var buf bytes.Buffer

	pub := log.NewPublisher()
	t.Cleanup(func() { require.NoError(t, pub.Close()) })

	sub := pub.Subscribe()

	h, err := cfg.NewPublishingHandler(&buf, pub)
	require.NoError(t, err)

	logger := slog.New(h)
	logger.Info("quiet")
	logger.Error("loud")

	e := <-sub.C()
	assert.Equal(t, "loud", e.Message)
	assert.Equal(t, slog.LevelError, e.Level)
	assert.Contains(t, buf.String(), "msg=loud")
	assert.NotContains(t, buf.String(), "quiet")

	cfg.Level = "verbose"

	_, err = cfg.NewPublishingHandler(&buf, pub)
	require.ErrorIs(t, err, log.ErrInvalidArgument)
}
