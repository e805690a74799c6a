package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/vixscript/vixpip/internal/branding"
	"github.com/vixscript/vixpip/internal/config"
	"github.com/vixscript/vixpip/internal/fetch"
	"github.com/vixscript/vixpip/internal/index"
	"github.com/vixscript/vixpip/internal/installer"
	"github.com/vixscript/vixpip/internal/store"
)

// app bundles the components a command needs, built from the loaded settings.
type app struct {
	settings *config.Settings
	logger   *log.Logger
	client   *fetch.Client
	index    *index.Fetcher
	store    *store.Store
}

func newApp(cmd *cobra.Command) (*app, error) {
	logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: branding.CLIName(),
		Level:  log.InfoLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	settings, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger.Debug("settings loaded", "index", settings.IndexURL, "root", settings.ExtensionsRoot, "timeout", settings.Timeout, "retries", settings.Retries)

	client := fetch.New(
		fetch.WithUserAgent(settings.UserAgent),
		fetch.WithTimeout(settings.Timeout),
		fetch.WithRetries(settings.Retries),
		fetch.WithLogger(logger),
	)

	return &app{
		settings: settings,
		logger:   logger,
		client:   client,
		index:    index.NewFetcher(settings.IndexURL, client, logger),
		store:    store.New(settings.ExtensionsRoot),
	}, nil
}

func (a *app) installer(cmd *cobra.Command) *installer.Installer {
	return installer.New(a.index, a.client, a.store,
		installer.WithOutput(cmd.OutOrStdout()),
		installer.WithLogger(a.logger),
	)
}
