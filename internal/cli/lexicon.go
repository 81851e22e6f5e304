package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/handler"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/lexicon"
)

var lexiconOut string

var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "Manage the synonym lexicon",
}

var lexiconImportCmd = &cobra.Command{
	Use:   "import <synonyms.yaml>",
	Short: "Import a YAML synonym map into a SQLite lexicon",
	Long: `Import a "word: [synonym, ...]" YAML document into a SQLite lexicon.
Existing entries for imported words are replaced.

Examples:
  textlab lexicon import data/synonyms.yaml
  textlab lexicon import wordnet.yaml --out data/lexicon.db`,
	Args: cobra.ExactArgs(1),
	RunE: runLexiconImport,
}

var lexiconLookupCmd = &cobra.Command{
	Use:   "lookup <word>...",
	Short: "Print the synonym candidates of each word",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLexiconLookup,
}

func init() {
	lexiconImportCmd.Flags().StringVar(&lexiconOut, "out", "", "SQLite lexicon path (default: lexicon.path when driver is sqlite)")
	lexiconCmd.AddCommand(lexiconImportCmd, lexiconLookupCmd)
	rootCmd.AddCommand(lexiconCmd)
}

func lexiconPath() string {
	if lexiconOut != "" {
		return lexiconOut
	}
	if cfg.Lexicon.Driver == "sqlite" {
		return cfg.Lexicon.Path
	}
	return "data/lexicon.db"
}

func runLexiconImport(cmd *cobra.Command, args []string) error {
	entries, err := lexicon.ReadYAML(args[0])
	if err != nil {
		return err
	}

	path := lexiconPath()
	lex, err := lexicon.OpenSQLite(path)
	if err != nil {
		return fmt.Errorf("failed to open lexicon: %w", err)
	}
	defer lex.Close()

	bar := newProgressBar(cmd.ErrOrStderr(), int64(len(entries)), "Importing", false)
	n, err := lex.Import(cmdContext(cmd), entries, func(done int) {
		bar.Set(done)
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	bar.Finish()

	total, err := lex.Len(cmdContext(cmd))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d words into %s (%d total)\n", n, path, total)
	return nil
}

func runLexiconLookup(cmd *cobra.Command, args []string) error {
	a := &app{backends: make(map[string]handler.Checker)}
	defer a.Close()
	lex, err := openLexicon(a, cfg.Lexicon)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, word := range args {
		syns, err := lex.Synonyms(cmdContext(cmd), word)
		if err != nil {
			return err
		}
		if len(syns) == 0 {
			fmt.Fprintf(w, "%s: (none)\n", word)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", word, strings.Join(syns, ", "))
	}
	return nil
}
