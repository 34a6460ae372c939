// Package main provides the CLI entry point for annotate, a completion
// engine for PHP docblock annotations.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/annotate/annotation"
	"go.jacobcolvin.com/annotate/annotation/phpsource"
	"go.jacobcolvin.com/annotate/annotation/values"
	"go.jacobcolvin.com/annotate/log"
	"go.jacobcolvin.com/annotate/lsp"
	"go.jacobcolvin.com/annotate/version"
)

var (
	// ErrReadInput indicates the input file could not be read.
	ErrReadInput = errors.New("read input")
	// ErrWriteOutput indicates results could not be written.
	ErrWriteOutput = errors.New("write output")
	// ErrInvalidPosition indicates the cursor position flags are unusable.
	ErrInvalidPosition = errors.New("invalid position")
)

type app struct {
	logCfg    *log.Config
	engineCfg *annotation.Config
	logger    *slog.Logger
	pub       *log.Publisher
	values    values.Options
	root      string
}

func main() {
	a := &app{
		logCfg:    log.NewConfig(),
		engineCfg: annotation.NewConfig(),
		pub:       log.NewPublisher(),
	}
	a.engineCfg.Registry = values.DefaultRegistry(a.values)

	rootCmd := &cobra.Command{
		Use:   "annotate",
		Short: "Complete PHP docblock annotations",
		Long: `annotate suggests annotation names, attribute names, and attribute values
inside PHP documentation comments. Annotation schemas are discovered from
classes in the project marked with @Annotation, and values come from @Enum
tags, field defaults, and catalogs kept in the project.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	flags := rootCmd.PersistentFlags()
	a.logCfg.RegisterFlags(flags)
	a.engineCfg.RegisterFlags(flags)
	flags.StringVarP(&a.root, "root", "r", ".", "project root directory")
	flags.StringVar(&a.values.CatalogPath, "values-file", "",
		"value catalog path relative to the project root (default .annotate.yaml)")
	flags.StringVar(&a.values.SchemaDir, "schema-dir", "",
		"JSON Schema catalog directory relative to the project root (default schemas)")

	for _, register := range []func(*cobra.Command) error{
		a.logCfg.RegisterCompletions,
		a.engineCfg.RegisterCompletions,
	} {
		err := register(rootCmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
		}
	}

	rootCmd.AddCommand(
		a.completeCmd(),
		a.schemasCmd(),
		a.lspCmd(),
		versionCmd(),
	)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// setup builds the logger and the provider registry from parsed flags.
func (a *app) setup() error {
	handler, err := a.logCfg.NewPublishingHandler(os.Stderr, a.pub)
	if err != nil {
		return err
	}

	a.logger = slog.New(handler)
	slog.SetDefault(a.logger)

	a.values.Logger = a.logger
	a.engineCfg.Registry = values.DefaultRegistry(a.values)

	return nil
}

func (a *app) newEngine() (*annotation.Engine, error) {
	return a.engineCfg.NewEngine(annotation.WithLogger(a.logger))
}

func (a *app) loadProject(ctx context.Context) (*phpsource.Project, error) {
	return phpsource.Load(ctx, os.DirFS(a.root), phpsource.WithLogger(a.logger))
}

func (a *app) completeCmd() *cobra.Command {
	var (
		offset int
		line   int
		column int
		format string
	)

	cmd := &cobra.Command{
		Use:   "complete [flags] <file.php>",
		Short: "Print completion candidates at a position in a file",
		Long: `Print the completion candidates for a cursor position in a PHP file. The
position is either a byte offset, or a 1-based line and column where the
column counts UTF-16 code units as editors do.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", ErrReadInput, err)
			}

			text := string(data)

			pos, err := resolvePosition(text, offset, line, column)
			if err != nil {
				return err
			}

			engine, err := a.newEngine()
			if err != nil {
				return err
			}

			srv := lsp.New(engine, lsp.WithRoot(a.root), lsp.WithLogger(a.logger))

			candidates, err := srv.Complete(cmd.Context(), lsp.URIFromPath(args[0]), text, pos)
			if err != nil {
				return err
			}

			return writeCandidates(os.Stdout, candidates, format)
		},
	}

	cmd.Flags().IntVar(&offset, "offset", -1, "byte offset of the cursor")
	cmd.Flags().IntVar(&line, "line", 0, "1-based line of the cursor")
	cmd.Flags().IntVar(&column, "column", 0, "1-based column of the cursor")
	cmd.Flags().StringVarP(&format, "output", "o", "", "output format, one of: [text json] (default text on a terminal, json otherwise)")
	cmd.MarkFlagsMutuallyExclusive("offset", "line")
	cmd.MarkFlagsRequiredTogether("line", "column")

	return cmd
}

func (a *app) schemasCmd() *cobra.Command {
	var (
		target     string
		jsonSchema bool
	)

	cmd := &cobra.Command{
		Use:   "schemas [flags]",
		Short: "List the annotation schemas declared in the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, err := a.loadProject(cmd.Context())
			if err != nil {
				return err
			}

			var schemas []*annotation.Schema

			if target == "" {
				for _, decl := range project.Schemas() {
					if s := annotation.NewSchema(decl); s != nil {
						schemas = append(schemas, s)
					}
				}
			} else {
				engine, err := a.newEngine()
				if err != nil {
					return err
				}

				schemas = engine.With(annotation.WithIndex(project)).
					SchemasFor(annotation.ParseTarget(target))
			}

			if jsonSchema {
				return writeJSONSchemas(os.Stdout, schemas)
			}

			return writeSchemas(os.Stdout, schemas)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "only list schemas usable on this target")
	cmd.Flags().BoolVar(&jsonSchema, "json-schema", false, "print each schema as a JSON Schema document")

	err := cmd.RegisterFlagCompletionFunc("target",
		cobra.FixedCompletions(annotation.GetAllTargetStrings(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	return cmd
}

func (a *app) lspCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Serve completion over the Language Server Protocol on stdio",
		Long: `Serve completion over the Language Server Protocol on standard input and
output. The workspace root sent by the client takes precedence over --root.
Log output is also forwarded to the client.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			engine, err := a.newEngine()
			if err != nil {
				return err
			}

			srv := lsp.New(engine,
				lsp.WithRoot(a.root),
				lsp.WithLogger(a.logger),
				lsp.WithPublisher(a.pub),
			)

			defer func() {
				err := srv.Close()
				if err != nil {
					a.logger.Warn("close server", slog.Any("error", err))
				}
			}()

			return srv.RunStdio()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(os.Stdout, version.String())
			if err != nil {
				return fmt.Errorf("%w: %w", ErrWriteOutput, err)
			}

			return nil
		},
	}
}
