package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long:  `List every package directory in ~/.vixscript/extensions.`,
	Args:  cobra.ArbitraryArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	names, err := a.store.List()
	if err != nil {
		return fmt.Errorf("listing installed packages: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "no packages installed")
		return nil
	}
	fmt.Fprintln(out, "installed packages:")
	for _, name := range names {
		fmt.Fprintln(out, " -", name)
	}
	return nil
}
