package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"go.jacobcolvin.com/annotate/annotation"
	"go.jacobcolvin.com/annotate/annotation/values/schemacatalog"
	"go.jacobcolvin.com/annotate/lsp"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// resolvePosition returns the byte offset selected by the position flags.
// A negative offset means the offset flag was not given.
func resolvePosition(text string, offset, line, column int) (int, error) {
	if offset >= 0 {
		if offset > len(text) {
			return 0, fmt.Errorf("%w: offset %d is past the end of the file", ErrInvalidPosition, offset)
		}

		return offset, nil
	}

	if line < 1 || column < 1 {
		return 0, fmt.Errorf("%w: give --offset, or --line and --column", ErrInvalidPosition)
	}

	return lsp.Offset(text, protocol.Position{
		Line:      protocol.UInteger(line - 1),
		Character: protocol.UInteger(column - 1),
	}), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

func outputFormat(w io.Writer, format string) (string, error) {
	switch strings.ToLower(format) {
	case "":
		if isTerminal(w) {
			return formatText, nil
		}

		return formatJSON, nil

	case formatText:
		return formatText, nil

	case formatJSON:
		return formatJSON, nil
	}

	return "", fmt.Errorf("%w: unknown output format %q", ErrWriteOutput, format)
}

func writeCandidates(w io.Writer, candidates []annotation.Candidate, format string) error {
	f, err := outputFormat(w, format)
	if err != nil {
		return err
	}

	if f == formatJSON {
		if candidates == nil {
			candidates = []annotation.Candidate{}
		}

		return writeJSON(w, candidates)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range candidates {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Label, c.Kind, c.Detail)
	}

	err = tw.Flush()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	return nil
}

func writeSchemas(w io.Writer, schemas []*annotation.Schema) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, s := range schemas {
		targets := make([]string, 0, len(s.Targets))
		for _, t := range s.Targets {
			targets = append(targets, t.String())
		}

		if len(targets) == 0 {
			targets = append(targets, annotation.TargetUndefined.String())
		}

		path := ""
		if s.Decl != nil {
			path = s.Decl.Path
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, strings.Join(targets, ","), path)
	}

	err := tw.Flush()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	return nil
}

func writeJSONSchemas(w io.Writer, schemas []*annotation.Schema) error {
	out := make([]any, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, schemacatalog.Export(s))
	}

	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	out = append(out, '\n')

	_, err = w.Write(out)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	return nil
}
