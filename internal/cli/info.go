package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <package-name>",
	Short: "Show index metadata for a package",
	Args:  requirePackage,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	name := args[0]

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	res := a.index.Load(cmd.Context())
	if res.Err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "failed to fetch package index: %v\n", res.Err)
	}
	entry, err := res.Index.Entry(name)
	if err != nil {
		return err
	}

	installed := "no"
	if ok, err := a.store.Installed(name); err != nil {
		return err
	} else if ok {
		installed = "yes"
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 1, ' ', 0)
	fmt.Fprintf(w, "name:\t%s\n", entry.Name)
	fmt.Fprintf(w, "url:\t%s\n", entry.URL)
	fmt.Fprintf(w, "version:\t%s\n", entry.DisplayVersion())
	fmt.Fprintf(w, "description:\t%s\n", orDash(entry.Description))
	fmt.Fprintf(w, "author:\t%s\n", orDash(entry.Author))
	fmt.Fprintf(w, "installed:\t%s\n", installed)
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
