package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sistema-ministerial-api/internal/dto"
)

var generateOpts struct {
	congregation string
	week         string
	regenerate   bool
	doubleBook   bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the designations of one week",
	Long: `Runs the same generation as POST /generate-assignments against the stored
program of the week and prints the result as JSON.

Example:
  ministerial generate --congregation 6f1c... --week 2024-03-04`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&generateOpts.congregation, "congregation", "", "congregation id")
	f.StringVar(&generateOpts.week, "week", "", "week (YYYY-MM-DD), normalised to Monday")
	f.BoolVar(&generateOpts.regenerate, "regenerate", false, "also refill FILLED parts")
	f.BoolVar(&generateOpts.doubleBook, "allow-double-booking", false, "let one student hold two parts")
	_ = generateCmd.MarkFlagRequired("congregation")
	_ = generateCmd.MarkFlagRequired("week")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), cfg, logr)
	if err != nil {
		return err
	}
	defer a.Close()

	req := dto.GenerateAssignmentsRequest{Week: generateOpts.week, Regenerate: generateOpts.regenerate}
	if cmd.Flags().Changed("allow-double-booking") {
		req.AllowDoubleBooking = &generateOpts.doubleBook
	}
	result, err := a.assignments.Generate(cmd.Context(), generateOpts.congregation, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
