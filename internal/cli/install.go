package cli

import (
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <package-name>",
	Short: "Download and install a package from the index",
	Long: `Look the package up in the package index, download its archive and extract it
into ~/.vixscript/extensions/<package-name>. A single common top-level folder in
the archive is flattened away.`,
	Args: requirePackage,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	return a.installer(cmd).Install(cmd.Context(), args[0])
}
