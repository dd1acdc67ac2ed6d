// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/orcid-metrics/internal/collect"
	"github.com/pdiddy/orcid-metrics/internal/ident"
	"github.com/pdiddy/orcid-metrics/internal/report"
	"github.com/pdiddy/orcid-metrics/internal/sheet"
)

var extractCmd = &cobra.Command{
	Use:   "extract <orcids.xlsx|orcids.csv>",
	Short: "Collect works, citation metrics and mentions for a list of ORCIDs",
	Long: `Extract reads the ORCID column of the input spreadsheet (the column headed
"orcid", or the first column), lists every work of each valid ORCID, looks up
Crossref metrics and Event Data mentions for works with a DOI, and writes the
consolidated table.

Without --output the table is written to the current directory as
orcid_crossref_eventdata_YYYYMMDD_HHMMSS.<format>.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringP("output", "o", "", "output file (format inferred from .xlsx, .csv or .json)")
	extractCmd.Flags().String("format", "", "output format: xlsx, csv or json (default xlsx)")
	extractCmd.Flags().String("report", "", "write a YAML run report to this path")
	extractCmd.Flags().Bool("no-progress", false, "disable the progress bar")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := extractionConfig()
	if err != nil {
		return err
	}
	if cfg.Email == "" {
		logger.Warn("no mailto email configured; set --email or .secrets/mailto-email")
	}

	output, _ := cmd.Flags().GetString("output")
	formatName, _ := cmd.Flags().GetString("format")
	format, err := outputFormat(output, formatName)
	if err != nil {
		return err
	}

	in, err := readInput(args[0])
	if err != nil {
		return err
	}
	valid, invalid := ident.CleanORCIDs(in.Values)
	fmt.Fprintf(out, "Input column: %s | Valid ORCIDs: %d | Invalid: %d\n", in.Column, len(valid), len(invalid))
	for _, id := range invalid {
		fmt.Fprintf(out, "  invalid: %s\n", id)
	}
	if len(valid) == 0 {
		return collect.ErrNoORCIDs
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var bar *progress
	if noBar, _ := cmd.Flags().GetBool("no-progress"); !noBar {
		bar = newProgress(os.Stderr, len(valid))
	}

	res, err := newCollector(cfg, nil).Run(ctx, valid, collect.Options{
		Sleep:        cfg.Sleep,
		FixedSources: cfg.FixedSources,
		Log:          out,
		Progress:     bar.callback(),
	})
	bar.finish()
	if err != nil {
		return err
	}

	if output == "" {
		output = sheet.OutputName(time.Now(), format)
	}
	if err := writeOutput(output, format, res, cfg.FixedSources); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d rows to %s\n", len(res.Rows), output)

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		rep := report.New(cfg, valid, invalid, res)
		rep.Input = args[0]
		rep.Output = output
		if err := rep.Write(path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Run report: %s (run %s)\n", path, rep.RunID)
	}
	return nil
}

// outputFormat resolves the format from --format, then the --output
// extension, then xlsx.
func outputFormat(output, name string) (sheet.Format, error) {
	if name != "" {
		return sheet.ParseFormat(name)
	}
	if ext := strings.TrimPrefix(filepath.Ext(output), "."); ext != "" {
		return sheet.ParseFormat(ext)
	}
	return sheet.FormatXLSX, nil
}

func readInput(path string) (*sheet.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()
	return sheet.ReadORCIDs(f, path)
}

func writeOutput(path string, format sheet.Format, res *collect.Result, fixed []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return sheet.Write(f, format, res.Rows, fixed)
}
