// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/orcid-metrics/internal/ident"
)

var validateCmd = &cobra.Command{
	Use:   "validate <orcids.xlsx|orcids.csv>",
	Short: "Check the ORCID column of a spreadsheet without querying any API",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().Bool("strict", false, "exit non-zero when any identifier is invalid")
	validateCmd.Flags().Int("preview", 5, "number of input rows to print")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	in, err := readInput(args[0])
	if err != nil {
		return err
	}

	n, _ := cmd.Flags().GetInt("preview")
	fmt.Fprintln(out, strings.Join(in.Header, "\t"))
	for i, row := range in.Preview {
		if i >= n {
			break
		}
		fmt.Fprintln(out, strings.Join(row, "\t"))
	}
	fmt.Fprintln(out)

	valid, invalid := ident.CleanORCIDs(in.Values)
	fmt.Fprintf(out, "Column: %s\n", in.Column)
	fmt.Fprintf(out, "Valid ORCIDs: %d\n", len(valid))
	fmt.Fprintf(out, "Invalid ORCIDs: %d\n", len(invalid))
	for _, id := range invalid {
		fmt.Fprintf(out, "  %s\n", id)
	}

	if strict, _ := cmd.Flags().GetBool("strict"); strict && len(invalid) > 0 {
		return fmt.Errorf("%d invalid ORCID(s) in %s", len(invalid), args[0])
	}
	return nil
}
