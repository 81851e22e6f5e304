package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/embedding"
)

var vectorsOut string

var vectorsCmd = &cobra.Command{
	Use:   "vectors",
	Short: "Manage the word vector store",
}

var vectorsImportCmd = &cobra.Command{
	Use:   "import <glove.txt>",
	Short: "Import GloVe text vectors into a bbolt store",
	Long: `Import word vectors in GloVe text format (one "token v1 ... vN" line per
word) into the store read by the embed preprocessing option.

Examples:
  textlab vectors import glove.6B.100d.txt
  textlab vectors import glove.6B.50d.txt --out data/glove50.db`,
	Args: cobra.ExactArgs(1),
	RunE: runVectorsImport,
}

var vectorsInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show dimension and size of the vector store",
	Args:  cobra.NoArgs,
	RunE:  runVectorsInfo,
}

func init() {
	vectorsCmd.PersistentFlags().StringVar(&vectorsOut, "out", "", "vector store path (default: vectors_path from config)")
	vectorsCmd.AddCommand(vectorsImportCmd, vectorsInfoCmd)
	rootCmd.AddCommand(vectorsCmd)
}

func vectorsPath() string {
	if vectorsOut != "" {
		return vectorsOut
	}
	if cfg.VectorsPath != "" {
		return cfg.VectorsPath
	}
	return "data/vectors.db"
}

func runVectorsImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open vectors file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat vectors file: %w", err)
	}

	path := vectorsPath()
	store, err := embedding.OpenBolt(path, false)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer store.Close()

	out := cmd.ErrOrStderr()
	bar := newProgressBar(out, info.Size(), "Importing", true)
	n, err := embedding.Import(cmdContext(cmd), io.TeeReader(f, bar), store, func(done int) {
		bar.Describe(fmt.Sprintf("[cyan]Importing[reset] %d words", done))
	})
	if err != nil {
		return fmt.Errorf("import failed after %d words: %w", n, err)
	}
	bar.Finish()

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d words (dimension %d) into %s\n", n, store.Dimension(), path)
	return nil
}

func runVectorsInfo(cmd *cobra.Command, args []string) error {
	path := vectorsPath()
	store, err := embedding.OpenBolt(path, true)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer store.Close()

	n, err := store.Len()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Store:     %s\n", path)
	fmt.Fprintf(w, "Words:     %d\n", n)
	fmt.Fprintf(w, "Dimension: %d\n", store.Dimension())
	return nil
}
