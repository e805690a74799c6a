package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vixscript/vixpip/internal/branding"
)

// Exit codes returned by ExitCode.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// usageError is returned for malformed invocations.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

var (
	errUnknownCommand = &usageError{msg: "unknown command or missing package"}
	errNoCommand      = &usageError{msg: "usage: " + branding.CLIName() + " [install|uninstall|list] [package]"}
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	verbose bool

	// helpRequested is set whenever cobra falls back to printing help, which
	// happens for --help and for a command group run without a subcommand.
	helpRequested bool
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` installs vixscript extensions from the package index into
~/.vixscript/extensions, and lists or removes installed extensions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errNoCommand
		}
		return errUnknownCommand
	},
}

func init() {
	cobra.EnableCaseInsensitive = true
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.SetFlagErrorFunc(func(*cobra.Command, error) error {
		return errUnknownCommand
	})
	// "help" and --help are not commands; both get the usage error.
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "help",
		Hidden: true,
		Args:   cobra.ArbitraryArgs,
		RunE: func(*cobra.Command, []string) error {
			return errUnknownCommand
		},
	})
	rootCmd.SetHelpFunc(func(*cobra.Command, []string) {
		helpRequested = true
	})
}

// usageArgs wraps a cobra validator so any mismatch yields the usage error.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return errUnknownCommand
		}
		return nil
	}
}

// requirePackage accepts one or more arguments and uses the first as the
// package name; anything after it is ignored.
func requirePackage(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return errUnknownCommand
	}
	return nil
}

// Execute runs the command named by os.Args with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	return run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

// run executes one command and prints any error as a plain message on out.
func run(ctx context.Context, args []string, out, errOut io.Writer) error {
	resetFlags()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil && helpRequested {
		err = errUnknownCommand
	}
	if err != nil {
		fmt.Fprintln(out, err.Error())
	}
	return err
}

// resetFlags restores every flag to its default so repeated runs in one
// process start clean.
func resetFlags() {
	helpRequested = false
	resetCommandFlags(rootCmd)
}

func resetCommandFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetCommandFlags(sub)
	}
}

// ExitCode maps an Execute error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ue *usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitFailure
}
