package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vixscript/vixpip/internal/index"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the package index",
	Long: `List packages in the index whose name or description contains the query
(case-insensitive substring). With no query every package is listed.`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(searchCmd)
}

// searchEntry is one index package for display.
type searchEntry struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Installed   bool   `json:"installed"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	res := a.index.Load(cmd.Context())
	if res.Err != nil {
		return fmt.Errorf("failed to fetch package index: %w", res.Err)
	}

	installed, err := a.store.List()
	if err != nil {
		return fmt.Errorf("listing installed packages: %w", err)
	}

	var entries []searchEntry
	for _, name := range res.Index.Names() {
		e, err := res.Index.Entry(name)
		if err != nil {
			a.logger.Debug("skipping index entry", "name", name, "err", err)
			continue
		}
		if !matchesSearch(e, query) {
			continue
		}
		entries = append(entries, searchEntry{
			Name:        e.Name,
			Version:     e.DisplayVersion(),
			Description: e.Description,
			Installed:   slices.Contains(installed, e.Name),
		})
	}

	if len(entries) == 0 {
		if query != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "no packages matching %q\n", query)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "package index is empty")
		}
		return nil
	}

	if searchJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tINSTALLED\tDESCRIPTION")
	for _, e := range entries {
		mark := ""
		if e.Installed {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Version, mark, e.Description)
	}
	return w.Flush()
}

// matchesSearch reports whether the entry's name or description contains
// query, ignoring case. An empty query matches everything.
func matchesSearch(e index.Entry, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(e.Name), q) ||
		strings.Contains(strings.ToLower(e.Description), q)
}
