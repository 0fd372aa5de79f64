package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"claimsift/domain/dataset"
	"claimsift/internal"
	"claimsift/internal/config"
	"claimsift/internal/container"
	harness "claimsift/internal/evaluation"
	"claimsift/internal/report"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "claimsift",
		Short: "Fraud-detection feature pipeline and recall-driven model selection",
	}

	var dataFile string
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "Claims file (.csv or .xlsx) or http(s) JSON feed URL; defaults to DATA_FILE")

	rootCmd.AddCommand(
		newRunCmd(&dataFile),
		newEncodeCmd(&dataFile),
		newSearchCmd(&dataFile),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads .env and the environment, then wires the container
func setup(dataFile string) (*container.Container, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dataFile != "" {
		cfg.Data.File = dataFile
	}
	return container.New(cfg, internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)))
}

func newRunCmd(dataFile *string) *cobra.Command {
	var seed int64
	var testRatio float64
	var fitMode string
	var out string
	var html bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Encode claims, grid-search every family and score the winners on a held-out split",
		Long: `Run the full selection protocol and print a markdown report.

Example: claimsift run --data dataset/dataset.csv --seed 7 --out report.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(*dataFile)
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.ConnectDatabase(); err != nil {
				return err
			}

			opts := c.RunOptions()
			if cmd.Flags().Changed("seed") {
				opts.Split.Seed = seed
			}
			if cmd.Flags().Changed("test-ratio") {
				opts.Split.TestRatio = testRatio
			}
			if fitMode != "" {
				opts.FitMode = fitMode
			}

			result, err := c.Selection.RunFromSource(cmd.Context(), c.OpenReader(c.Config.Data.File), opts)
			if err != nil {
				return err
			}

			doc := []byte(report.Markdown(result.Summary))
			if html {
				doc = report.HTML(result.Summary)
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(doc)
				return err
			}
			if err := os.WriteFile(out, doc, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Run %s written to %s\n", result.Summary.ID, out)
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "Split seed (overrides SPLIT_SEED)")
	cmd.Flags().Float64Var(&testRatio, "test-ratio", 0.2, "Held-out fraction (overrides TEST_RATIO)")
	cmd.Flags().StringVar(&fitMode, "fit-mode", "", "Encoder fit: whole or train (overrides FIT_MODE)")
	cmd.Flags().StringVar(&out, "out", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&html, "html", false, "Render the report as HTML")

	return cmd
}

func newEncodeCmd(dataFile *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode claims into the numeric feature matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(*dataFile)
			if err != nil {
				return err
			}
			records, _, err := c.OpenReader(c.Config.Data.File).ReadRecords(cmd.Context())
			if err != nil {
				return err
			}
			enc, ds, err := c.Encoder.Fit(records)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			neg, pos := ds.LabelCounts()
			fmt.Fprintf(w, "Encoded %d claims (%d non-fraud, %d fraud) into %d features\n", ds.RowCount(), neg, pos, ds.ColumnCount())
			fmt.Fprintf(w, "Repaired ages: %d\n", enc.FixedAges)
			fmt.Fprintf(w, "Removed constant features: %v\n", enc.RemovedFeatures)
			if enc.AgeScaled {
				fmt.Fprintf(w, "Age range: %g to %g\n", enc.AgeMin, enc.AgeMax)
			}

			if out == "" {
				return nil
			}
			return writeMatrix(out, ds)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the encoded matrix (features plus FraudFound) as CSV")
	return cmd
}

func newSearchCmd(dataFile *string) *cobra.Command {
	var family string
	var seed int64

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Grid-search one classifier family on the training split",
		Long: `Grid-search one family with cross-validation on the training split.

Example: claimsift search --family random_forest --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(*dataFile)
			if err != nil {
				return err
			}
			return runSearch(cmd.Context(), c, family, seed, cmd.Flags().Changed("seed"))
		},
	}

	cmd.Flags().StringVar(&family, "family", harness.FamilyLogistic, "Family to search: logistic_regression or random_forest")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Split seed (overrides SPLIT_SEED)")
	return cmd
}

func runSearch(ctx context.Context, c *container.Container, family string, seed int64, seedSet bool) error {
	var selected *harness.Family
	for i := range c.Families {
		if c.Families[i].Name() == family {
			selected = &c.Families[i]
		}
	}
	if selected == nil {
		return fmt.Errorf("unknown family %q", family)
	}

	opts := c.RunOptions()
	if seedSet {
		opts.Split.Seed = seed
	}

	records, _, err := c.OpenReader(c.Config.Data.File).ReadRecords(ctx)
	if err != nil {
		return err
	}
	ds, err := c.Encoder.Encode(records)
	if err != nil {
		return err
	}
	train, _, err := c.Splitter.SplitDataset(ctx, ds, opts.Split)
	if err != nil {
		return err
	}

	cv, err := harness.NewCrossValidator(opts.Folds, harness.WithCVLogger(c.Logger))
	if err != nil {
		return err
	}
	search := harness.NewGridSearch(cv,
		harness.WithParallelism(c.Config.Pipeline.GridParallelism),
		harness.WithSearchLogger(c.Logger),
	)
	_, err = search.Search(ctx, *selected, train.Features, train.Labels)
	return err
}

func writeMatrix(path string, ds *dataset.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append(append([]string{}, ds.FeatureNames...), "FraudFound")
	if err := w.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for i, features := range ds.Features {
		for j, v := range features {
			row[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		row[len(row)-1] = strconv.Itoa(ds.Labels[i])
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
