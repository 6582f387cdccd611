package cmd

import (
	"errors"

	"github.com/PolarWolf314/tokensmith/internal/api"
	"github.com/PolarWolf314/tokensmith/internal/audit"
	"github.com/PolarWolf314/tokensmith/internal/configs"
	logger "github.com/PolarWolf314/tokensmith/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ErrReported is returned by commands that already printed their failure.
// The caller should exit non-zero without printing it again.
var ErrReported = errors.New("command failed")

var (
	verbose    bool
	debug      bool
	configPath string
	Logger     logger.Logger
)

// newAPIClient builds the backend client. Tests replace it to mock HTTP.
var newAPIClient = func(cfg *configs.Config) *api.Client {
	return api.New(cfg.APIURL, cfg.AuthToken, cfg.Timeout())
}

// addCommonFlags registers the flags every command group shares.
func addCommonFlags(c *cobra.Command) {
	c.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	c.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	c.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tokensmith/config.toml)")
}

func initLogger(group string) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		Logger = logger.Logger{
			Verbose: verbose,
			Debug:   debug,
		}
		Logger.Debugf("Initializing %s command with verbose=%t, debug=%t", group, verbose, debug)
	}
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return configs.Settings.ConfigPath
}

// loadConfig reads and validates the config, environment overrides included.
func loadConfig() (*configs.Config, error) {
	path := resolvedConfigPath()
	Logger.Debugf("Loading config from %s", path)

	cfg, err := configs.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func auditTrail(cfg *configs.Config) *audit.Trail {
	return &audit.Trail{Path: cfg.AuditLog, ClientID: cfg.ClientID}
}

// Helper functions for testing

// GetTokenCmd returns the TokenCmd for testing.
func GetTokenCmd() *cobra.Command {
	return TokenCmd
}

// GetKeysCmd returns the KeysCmd for testing.
func GetKeysCmd() *cobra.Command {
	return KeysCmd
}

// GetConfigCmd returns the ConfigCmd for testing.
func GetConfigCmd() *cobra.Command {
	return ConfigCmd
}

// GetLogCmd returns the LogCmd for testing.
func GetLogCmd() *cobra.Command {
	return LogCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	configPath = ""
	Logger = logger.Logger{}
	resetTokenState()
	resetKeysState()
	resetConfigState()
	resetLogCommandState()
	for _, group := range []*cobra.Command{TokenCmd, KeysCmd, ConfigCmd, LogCmd} {
		resetCobraFlagState(group)
	}
}

// resetCobraFlagState clears Changed on every flag so tests don't leak into
// each other.
func resetCobraFlagState(c *cobra.Command) {
	reset := func(flag *pflag.Flag) { flag.Changed = false }
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetCobraFlagState(sub)
	}
}
