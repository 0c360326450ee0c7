package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexsearch/internal/catalog"
	"github.com/ziadkadry99/lexsearch/internal/citation"
)

var citationsCmd = &cobra.Command{
	Use:   "citations [file...]",
	Short: "Extract and normalize legal citations",
	Long: `Scans the given files (or --text, or stdin) for case law, statute,
regulation and constitutional citations and prints them normalized, with
links to their sources. With --save the citations are recorded in the
citation catalog.`,
	RunE: runCitations,
}

var citationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List citations recorded in the catalog",
	Args:  cobra.NoArgs,
	RunE:  runCitationsList,
}

func init() {
	citationsCmd.Flags().String("text", "", "text to scan instead of files or stdin")
	citationsCmd.Flags().String("jurisdiction", "", "jurisdiction of the text, used for statute links")
	citationsCmd.Flags().String("source", "", "source identifier recorded on each citation (default the file path)")
	citationsCmd.Flags().Bool("save", false, "record the citations in the catalog")
	citationsCmd.Flags().Bool("json", false, "output as JSON")

	citationsListCmd.Flags().String("type", "", "filter by type: case_law, statute, regulation, constitution, unknown")
	citationsListCmd.Flags().String("jurisdiction", "", "filter by jurisdiction")
	citationsListCmd.Flags().Int("limit", 50, "maximum number of entries")
	citationsListCmd.Flags().Int("offset", 0, "entries to skip")
	citationsListCmd.Flags().Bool("json", false, "output as JSON")

	citationsCmd.AddCommand(citationsListCmd)
	rootCmd.AddCommand(citationsCmd)
}

func runCitations(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	text, _ := cmd.Flags().GetString("text")
	jurisdiction, _ := cmd.Flags().GetString("jurisdiction")
	source, _ := cmd.Flags().GetString("source")
	save, _ := cmd.Flags().GetBool("save")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	inputs, err := citationInputs(cmd.InOrStdin(), args, text, jurisdiction, source)
	if err != nil {
		return err
	}
	cits := citation.ExtractAndNormalize(inputs)

	if save && len(cits) > 0 {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, database, err := openCatalog(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := store.Record(ctx, cits); err != nil {
			return fmt.Errorf("saving citations: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Recorded %d citation(s) in %s\n", len(cits), database.Path())
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if cits == nil {
			cits = []citation.Citation{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cits)
	}
	fmt.Fprint(out, citation.FormatList(cits))
	return nil
}

// citationInputs builds one input per file, or a single input from text or
// stdin when no files are given.
func citationInputs(stdin io.Reader, files []string, text, jurisdiction, source string) ([]citation.Input, error) {
	if text != "" && len(files) > 0 {
		return nil, fmt.Errorf("--text cannot be combined with file arguments")
	}

	if len(files) == 0 {
		if text == "" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			text = string(data)
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("no text to scan")
		}
		in := citation.FromText(text, jurisdiction)
		in.Source = source
		return []citation.Input{in}, nil
	}

	inputs := make([]citation.Input, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		in := citation.FromText(string(data), jurisdiction)
		in.Source = source
		if in.Source == "" {
			in.Source = path
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func runCitationsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	typ, _ := cmd.Flags().GetString("type")
	jurisdiction, _ := cmd.Flags().GetString("jurisdiction")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, database, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	entries, err := store.List(ctx, catalog.ListFilter{
		Type:         citation.Type(typ),
		Jurisdiction: jurisdiction,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return fmt.Errorf("listing citations: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if entries == nil {
			entries = []catalog.Entry{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No citations recorded. Run `lexsearch citations --save` first.")
		return nil
	}
	fmt.Fprintf(out, "%-6s %-13s %-16s %-19s %s\n", "SEEN", "TYPE", "JURISDICTION", "LAST SEEN", "CITATION")
	for _, e := range entries {
		fmt.Fprintf(out, "%-6d %-13s %-16s %-19s %s\n",
			e.Occurrences, e.Type, e.Jurisdiction, e.LastSeen.Format("2006-01-02 15:04"), e.Text)
	}
	return nil
}
