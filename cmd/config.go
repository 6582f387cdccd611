package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/tokensmith/internal/configs"
	"github.com/PolarWolf314/tokensmith/internal/ui"

	"github.com/spf13/cobra"
)

var (
	configAPIURL         string
	configWorkspace      string
	configKeyStore       string
	configKeyringBackend string
	configExportDir      string
	configShowJSON       bool

	// ConfigCmd is the top-level config command.
	ConfigCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage tokensmith configuration",
		Long: `Provides commands for writing and inspecting the tokensmith configuration.

The config file lives at $XDG_CONFIG_HOME/tokensmith/config.toml. The backend
token is best supplied through TOKENSMITH_TOKEN; TOKENSMITH_API_URL and
TOKENSMITH_WORKSPACE_ID override the file as well.

Examples:
  # Point tokensmith at a self-hosted backend
  tokensmith config init --api-url https://secrets.example.com --workspace ws-1

  # Keep the private key in the OS keyring
  tokensmith config init --key-store keyring

  # Show the effective configuration
  tokensmith config show`,
		PersistentPreRun: initLogger("config"),
	}
)

func init() {
	addCommonFlags(ConfigCmd)

	configInitCmd.Flags().StringVar(&configAPIURL, "api-url", "", "backend base URL")
	configInitCmd.Flags().StringVarP(&configWorkspace, "workspace", "w", "", "default workspace id")
	configInitCmd.Flags().StringVar(&configKeyStore, "key-store", "", "where the private key lives: file or keyring")
	configInitCmd.Flags().StringVar(&configKeyringBackend, "keyring-backend", "", "pin an OS keyring backend, e.g. keychain or secret-service")
	configInitCmd.Flags().StringVar(&configExportDir, "export-dir", "", "default directory for bundles")
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")

	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
}

// resetConfigState resets the config commands' global state for testing.
func resetConfigState() {
	configAPIURL = ""
	configWorkspace = ""
	configKeyStore = ""
	configKeyringBackend = ""
	configExportDir = ""
	configShowJSON = false
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the config file, keeping values not given as flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config init command")

		path := resolvedConfigPath()
		cfg, err := configs.LoadFile(path)
		if err != nil {
			Logger.Errorf("Failed to load config: %v", err)
			fmt.Println(formatConfigError(err))
			return ErrReported
		}

		flags := cmd.Flags()
		if flags.Changed("api-url") {
			cfg.APIURL = configAPIURL
		}
		if flags.Changed("workspace") {
			cfg.WorkspaceID = configWorkspace
		}
		if flags.Changed("key-store") {
			cfg.KeyStore.Backend = configKeyStore
		}
		if flags.Changed("keyring-backend") {
			cfg.KeyStore.KeyringBackend = configKeyringBackend
		}
		if flags.Changed("export-dir") {
			cfg.Export.Dir = configExportDir
		}
		if cfg.ClientID == "" {
			cfg.ClientID = configs.GenerateClientID()
			Logger.Debugf("Assigned client id %s", cfg.ClientID)
		}

		if err := cfg.Validate(); err != nil {
			Logger.Errorf("Invalid config: %v", err)
			fmt.Println(ui.Failed("Configuration is invalid"))
			fmt.Println("    " + ui.Muted.Sprint(err.Error()))
			return ErrReported
		}

		if err := configs.Save(path, cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		Logger.Infof("Config written to %s", path)
		fmt.Println(ui.Done("Configuration written to " + ui.Path.Sprint(path)))
		if cfg.AuthToken == "" {
			fmt.Println(ui.Hint("Export " + ui.Code.Sprint(configs.EnvToken) + " with your backend token before issuing service tokens"))
		}
		return nil
	},
}

type configShowOutput struct {
	Path        string `json:"path"`
	APIURL      string `json:"apiUrl"`
	AuthToken   string `json:"authToken,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	Timeout     int    `json:"timeoutSeconds"`
	ClientID    string `json:"clientId,omitempty"`
	AuditLog    string `json:"auditLog,omitempty"`
	KeyStore    string `json:"keyStore"`
	KeyPath     string `json:"keyPath,omitempty"`
	ExportDir   string `json:"exportDir,omitempty"`
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")

		path := resolvedConfigPath()
		cfg, err := configs.Load(path)
		if err != nil {
			Logger.Errorf("Failed to load config: %v", err)
			fmt.Println(formatConfigError(err))
			return ErrReported
		}

		out := configShowOutput{
			Path:        path,
			APIURL:      cfg.APIURL,
			AuthToken:   redact(cfg.AuthToken),
			WorkspaceID: cfg.WorkspaceID,
			Timeout:     cfg.TimeoutSeconds,
			ClientID:    cfg.ClientID,
			AuditLog:    cfg.AuditLog,
			KeyStore:    cfg.KeyStore.Backend,
			ExportDir:   cfg.Export.Dir,
		}
		if cfg.KeyStore.Backend == configs.BackendFile {
			out.KeyPath = cfg.KeyStore.Path
		}

		if configShowJSON {
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config to JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Println(ui.Info.Sprint("Configuration") + " " + ui.Muted.Sprint(path))
		fmt.Println()
		row := func(label, value string) {
			if value != "" {
				fmt.Printf("  %-16s %s\n", label+":", value)
			}
		}
		row("API URL", ui.Highlight.Sprint(out.APIURL))
		row("Auth token", out.AuthToken)
		row("Workspace", out.WorkspaceID)
		row("Timeout", fmt.Sprintf("%ds", out.Timeout))
		row("Client ID", out.ClientID)
		row("Key store", out.KeyStore)
		row("Key path", out.KeyPath)
		row("Export dir", out.ExportDir)
		row("Audit log", out.AuditLog)
		return nil
	},
}
