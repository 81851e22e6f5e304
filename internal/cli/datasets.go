package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/dataset"
)

var (
	datasetsCheck bool
	sampleCount   int
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Inspect configured datasets",
}

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured datasets",
	Long: `List the datasets from config in the order the API reports them.
With --check, each dataset's file glob is resolved and reported.`,
	Args: cobra.NoArgs,
	RunE: runDatasetsList,
}

var datasetsSampleCmd = &cobra.Command{
	Use:   "sample <name>",
	Short: "Print random sample texts from a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetsSample,
}

func init() {
	datasetsListCmd.Flags().BoolVar(&datasetsCheck, "check", false, "verify each dataset's files are reachable")
	datasetsSampleCmd.Flags().IntVarP(&sampleCount, "count", "n", 1, "number of samples to print")
	datasetsCmd.AddCommand(datasetsListCmd, datasetsSampleCmd)
	rootCmd.AddCommand(datasetsCmd)
}

func runDatasetsList(cmd *cobra.Command, args []string) error {
	catalog, err := buildCatalog(cfg.Datasets)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if datasetsCheck {
		fmt.Fprintln(tw, "NAME\tFORMAT\tPATH\tSTATUS")
	} else {
		fmt.Fprintln(tw, "NAME\tFORMAT\tPATH")
	}
	for _, d := range cfg.Datasets {
		if !datasetsCheck {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.Format, d.Path)
			continue
		}
		status := "ok"
		if err := pingDataset(cmdContext(cmd), catalog, d.Name); err != nil {
			status = err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.Format, d.Path, status)
	}
	return tw.Flush()
}

func pingDataset(ctx context.Context, catalog *dataset.Catalog, name string) error {
	src, err := catalog.Lookup(name)
	if err != nil {
		return err
	}
	p, ok := src.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.Ping(ctx)
}

func runDatasetsSample(cmd *cobra.Command, args []string) error {
	catalog, err := buildCatalog(cfg.Datasets)
	if err != nil {
		return err
	}
	samples, err := dataset.NewSampleCache(catalog, nil, dataset.Options{
		PoolSize:     cfg.Sample.PoolSize,
		Capacity:     1,
		BuildTimeout: cfg.Sample.BuildTimeout,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for range max(sampleCount, 1) {
		text, err := samples.GetSample(cmdContext(cmd), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, text)
	}
	return nil
}
