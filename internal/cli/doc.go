// Package cli defines the Cobra command tree for vixpip. Each file in this
// package registers one command (install, uninstall, list, etc.) with the
// root command. Commands build their components from the loaded settings
// and only handle argument parsing and output; failures come back as errors
// that Execute prints and maps to an exit code.
package cli
