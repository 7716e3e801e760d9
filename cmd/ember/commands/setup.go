// Package commands implements the ember CLI subcommands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/emberbase/ember-go/client"
	"github.com/emberbase/ember-go/config"
	"github.com/emberbase/ember-go/errors"
	"github.com/emberbase/ember-go/logger"
)

// cfg is the resolved configuration, populated by Setup before any RunE fires
var cfg *config.Config

// Setup loads the configuration (honoring --config) and initializes the
// global logger. Called from the root command's PersistentPreRunE.
func Setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")

	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	if err := logger.Initialize(cfg.Log.JSON); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	return nil
}

// newClient builds a client from the resolved configuration with the default
// loopback transport. Commands that need a live connection attach a websocket
// transport themselves.
func newClient() *client.Client {
	return client.New(cfg.App.ID, client.Options{
		GC:     cfg.Cache.GCConfig(),
		Logger: logger.Logger.Named("ember"),
	})
}
