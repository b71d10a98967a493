package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/shoplog/internal/atomicfile"
	"github.com/rickgao/shoplog/internal/export"
	"github.com/rickgao/shoplog/internal/model"
	"github.com/rickgao/shoplog/internal/parser"
	"github.com/rickgao/shoplog/internal/validate"
)

var withXLSX bool

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Write the shops in a log as JSON and CSV",
	Long: `Reads a client log (plain or .gz), extracts every shop listing and writes
<output>.json and <output>.csv. A .json, .csv or .gz suffix on <output> is
dropped first.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		written, err := convertFile(args[0], args[1], withXLSX)
		if err != nil {
			return reportInvalid(cmd.ErrOrStderr(), err)
		}
		for _, p := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "written to %s\n", p)
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().BoolVar(&withXLSX, "xlsx", false, "also write <output>.xlsx")
}

// loadRecords reads, parses and validates the shops in a log file.
func loadRecords(input string) ([]model.ShopRecord, error) {
	text, err := parser.ReadFile(input)
	if err != nil {
		return nil, err
	}
	res := parser.ParseLog(text, marker)
	if len(res.Orphans) > 0 {
		slog.Debug("field lines outside any shop block", "count", len(res.Orphans))
	}
	checked := validate.Batch(res.Records)
	if err := checked.Err(); err != nil {
		return nil, err
	}
	return checked.Value, nil
}

type target struct {
	path  string
	write func(w io.Writer) error
}

// convertFile writes the exports for input next to the output base and
// returns their absolute paths.
func convertFile(input, output string, xlsx bool) ([]string, error) {
	records, err := loadRecords(input)
	if err != nil {
		return nil, err
	}
	rows := export.FlattenAll(records)

	base := outputBase(output)
	targets := []target{
		{base + ".json", func(w io.Writer) error { return export.WriteJSON(w, records) }},
		{base + ".csv", func(w io.Writer) error { return export.WriteCSV(w, rows) }},
	}
	if xlsx {
		targets = append(targets, target{base + ".xlsx", func(w io.Writer) error { return export.WriteXLSX(w, rows) }})
	}

	var g errgroup.Group
	paths := make([]string, len(targets))
	for i, t := range targets {
		abs, err := filepath.Abs(t.path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", t.path, err)
		}
		paths[i] = abs
		g.Go(func() error {
			if err := atomicfile.Write(abs, t.write); err != nil {
				return fmt.Errorf("write %s: %w", t.path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// reportInvalid prints every validation message before returning err.
func reportInvalid(w io.Writer, err error) error {
	var rejected *validate.RejectedError
	if errors.As(err, &rejected) {
		for _, msg := range validate.Messages(rejected.Errors) {
			fmt.Fprintln(w, msg)
		}
	}
	return err
}
