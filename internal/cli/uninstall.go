package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <package-name>",
	Short: "Remove an installed package",
	Long:  `Recursively delete ~/.vixscript/extensions/<package-name>.`,
	Args:  requirePackage,
	RunE:  runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	name := args[0]

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := a.store.Uninstall(name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s uninstalled\n", name)
	return nil
}
