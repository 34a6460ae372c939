// Package log provides structured logging handler construction for use with
// [log/slog].
//
// It supports multiple output formats ([FormatJSON], [FormatLogfmt], and
// [FormatText]) and severity levels ([LevelError], [LevelWarn], [LevelInfo],
// and [LevelDebug]). The text format is rendered by [charm.land/log/v2].
// Use [NewHandler] to create a handler directly, or use [Config] with CLI
// flag integration via [github.com/spf13/pflag] and shell completion support
// via [github.com/spf13/cobra].
//
// Typical usage creates a [Config], registers flags, then builds a handler
// at startup:
//
//	cfg := log.NewConfig()
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//	cfg.RegisterCompletions(rootCmd)
//
//	handler, err := cfg.NewHandler(os.Stderr)
//	slog.SetDefault(slog.New(handler))
//
// A [Publisher] fans out log records to subscribers, which is useful for
// forwarding logs to a language client. [Tee] sends records to both a
// regular handler and the publisher:
//
//	pub := log.NewPublisher()
//	handler := log.Tee(
//	    log.NewHandler(os.Stderr, log.LevelInfo, log.FormatText),
//	    pub.Handler(slog.LevelInfo),
//	)
//	logger := slog.New(handler)
//
//	sub := pub.Subscribe()
//	go func() {
//	    for entry := range sub.C() {
//	        // Send entry.Message as a window/logMessage notification.
//	    }
//	}()
//
// [Config.NewPublishingHandler] builds the same pair from flag values.
package log
