package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zora-edu/zora-api/internal/plans"
	"github.com/zora-edu/zora-api/internal/validation"
)

// errInvalidPayload makes validate exit non-zero after printing the result.
var errInvalidPayload = errors.New("payload failed validation")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Inspect plan catalogs and validate form payloads",
		SilenceUsage:  true,
	}
	root.AddCommand(newLintCmd(), newRecommendCmd(), newValidateCmd())
	return root
}

func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint [catalog.yaml]",
		Short: "Load a catalog and show which preferences fall back",
		Long: "Loads the catalog (the built-in one when no path is given), applies the " +
			"same checks as the API at startup, and prints the plan chosen for every " +
			"duration and quota combination.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			catalog, err := plans.LoadCatalog(path)
			if err != nil {
				return err
			}
			return writeCoverage(cmd.OutOrStdout(), catalog)
		},
	}
}

// writeCoverage prints one row per duration/quota pair.
func writeCoverage(out io.Writer, catalog *plans.Catalog) error {
	all := catalog.Plans()
	fmt.Fprintf(out, "%d plans, fallback %s\n", len(all), fallbackID(all))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DURATION\tQUOTA\tPLAN\tMATCH")
	fallbacks := 0
	for _, quota := range plans.Quotas {
		for _, duration := range plans.Durations {
			matches := plans.Filter(all, duration, quota)
			plan, match := fallbackID(all), "fallback"
			if len(matches) > 0 {
				plan, match = matches[0].ID, "exact"
			} else {
				fallbacks++
			}
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", duration, quota, plan, match)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if fallbacks > 0 {
		fmt.Fprintf(out, "fallback combinations: %d\n", fallbacks)
	}
	return nil
}

func fallbackID(all []plans.Plan) string {
	if len(all) <= plans.FallbackIndex {
		return "(none)"
	}
	return all[plans.FallbackIndex].ID
}

func newRecommendCmd() *cobra.Command {
	var (
		catalogPath string
		answers     plans.Answers
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print the plan recommended for a set of wizard answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := plans.LoadCatalog(catalogPath)
			if err != nil {
				return err
			}
			rec, err := catalog.Resolve(answers)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file (defaults to the built-in catalog)")
	cmd.Flags().IntVar(&answers.NumberOfChildren, "children", 0, "number of children")
	cmd.Flags().IntVar(&answers.PreferredDuration, "duration", 0, "preferred duration in months (3, 6 or 12)")
	cmd.Flags().StringVar(&answers.GradeLevel, "grade", "", "grade level")
	cmd.Flags().StringSliceVar(&answers.LearningGoals, "goals", nil, "learning goals")
	_ = cmd.MarkFlagRequired("children")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var form string
	cmd := &cobra.Command{
		Use:   "validate --form <kind> [payload.json|-]",
		Short: "Validate a JSON payload against a form schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, ok := validation.SchemaFor(form)
			if !ok {
				return fmt.Errorf("unknown form %q (want %s)", form, strings.Join(formNames(), ", "))
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var payload map[string]any
			dec := json.NewDecoder(in)
			dec.UseNumber()
			if err := dec.Decode(&payload); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}

			result := validation.Validate(schema, payload)
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Valid {
				return errInvalidPayload
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&form, "form", "", "form kind: "+strings.Join(formNames(), ", "))
	_ = cmd.MarkFlagRequired("form")
	return cmd
}

func formNames() []string {
	return []string{validation.FormContact, validation.FormB2B, validation.FormNewsletter, validation.FormCheckout}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
