package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vixscript/vixpip/internal/branding"
	"github.com/vixscript/vixpip/internal/config"
	"github.com/vixscript/vixpip/internal/userdata"
)

var doctorFix bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Delete archives left behind by interrupted installs")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the vixpip setup",
	Long: `Check the config file, the extension root, leftover archives from failed
installs, and whether the package index can be fetched.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	a, err := newApp(cmd)
	if err != nil {
		fmt.Fprintf(out, "  %s config %s: %v\n", failMark(), config.FilePath(), err)
		return fmt.Errorf("doctor found 1 problem(s)")
	}
	fmt.Fprintf(out, "  %s config: %s\n", okMark(), config.FilePath())

	problems := 0
	if !checkRoot(out, a.store.Root()) {
		problems++
	}
	problems += checkLeftovers(out, a)

	res := a.index.Load(cmd.Context())
	if res.Err != nil {
		fmt.Fprintf(out, "  %s index %s: %v\n", failMark(), a.index.URL(), res.Err)
		problems++
	} else {
		fmt.Fprintf(out, "  %s index: %d package(s) at %s\n", okMark(), len(res.Index), a.index.URL())
	}

	if problems > 0 {
		return fmt.Errorf("doctor found %d problem(s)", problems)
	}
	return nil
}

// checkRoot verifies the extension root exists and is writable.
func checkRoot(out io.Writer, root string) bool {
	if err := userdata.EnsureDir(root); err != nil {
		fmt.Fprintf(out, "  %s extension root %s: %v\n", failMark(), root, err)
		return false
	}
	probe, err := os.CreateTemp(root, ".doctor-*")
	if err != nil {
		fmt.Fprintf(out, "  %s extension root %s is not writable: %v\n", failMark(), root, err)
		return false
	}
	probe.Close()
	_ = os.Remove(probe.Name())

	fmt.Fprintf(out, "  %s extension root: %s\n", okMark(), root)
	return true
}

// checkLeftovers reports archives from interrupted installs and, with
// --fix, deletes them. It returns the number of unresolved leftovers.
func checkLeftovers(out io.Writer, a *app) int {
	names, err := a.store.Leftovers()
	if err != nil {
		fmt.Fprintf(out, "  %s cannot scan for leftover archives: %v\n", warnMark(), err)
		return 0
	}
	if len(names) == 0 {
		fmt.Fprintf(out, "  %s no leftover archives\n", okMark())
		return 0
	}

	unresolved := 0
	for _, name := range names {
		archive := filepath.Join(a.store.Root(), name+".zip")
		if doctorFix {
			if err := a.store.RemoveArchive(name); err != nil {
				fmt.Fprintf(out, "  %s %s: %v\n", failMark(), archive, err)
				unresolved++
				continue
			}
			fmt.Fprintf(out, "  %s removed leftover %s\n", okMark(), archive)
			continue
		}
		fmt.Fprintf(out, "  %s leftover %s (rerun `%s install %s` or `%s doctor --fix`)\n",
			warnMark(), archive, branding.CLIName(), name, branding.CLIName())
		unresolved++
	}
	return unresolved
}

// Status markers are colored only when stdout is a terminal.
func okMark() string { return color.GreenString("[ OK ]") }
func warnMark() string { return color.YellowString("[WARN]") }
func failMark() string { return color.RedString("[FAIL]") }
