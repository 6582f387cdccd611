package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/PolarWolf314/tokensmith/internal/bundle"
	"github.com/PolarWolf314/tokensmith/internal/notify"
	"github.com/PolarWolf314/tokensmith/internal/ui"
	"github.com/PolarWolf314/tokensmith/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	createName      string
	createWorkspace string
	createScopes    []string
	createExpiresIn string
	createOut       string
)

func init() {
	tokenCreateCmd.Flags().StringVarP(&createName, "name", "n", "", "service token name")
	tokenCreateCmd.Flags().StringVarP(&createWorkspace, "workspace", "w", "", "workspace id (default from config)")
	tokenCreateCmd.Flags().StringArrayVarP(&createScopes, "scope", "s", nil, "scope as permission:environment[:path], repeatable")
	tokenCreateCmd.Flags().StringVarP(&createExpiresIn, "expires-in", "e", "", "never, 1d, 7d, 1m, 6m, 12m or a number of seconds (default never)")
	tokenCreateCmd.Flags().StringVarP(&createOut, "out", "o", "", "directory for the bundle, or - for stdout (default from config)")
}

// resetTokenCreateState resets the create command's global state for testing.
func resetTokenCreateState() {
	createName = ""
	createWorkspace = ""
	createScopes = nil
	createExpiresIn = ""
	createOut = ""
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a scoped service token and export its bundle",
	Long: `Creates a service token and writes a bundle holding its public key,
its private key and the token itself.

The bundle is the only copy of the private key. It is written with owner-only
permissions and is never overwritten.

Examples:
  # Read-only access to production
  tokensmith token create --name ci-bot --scope read:prod

  # Read and write a subtree of dev for one week
  tokensmith token create --name deployer --scope readWrite:dev:/api --expires-in 7d

  # Print the bundle instead of writing a file
  tokensmith token create --name ci-bot --scope read:prod --out -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting token create command")

		cfg, err := loadConfig()
		if err != nil {
			Logger.Errorf("Failed to load config: %v", err)
			fmt.Println(formatConfigError(err))
			return ErrReported
		}

		workspace := createWorkspace
		if workspace == "" {
			workspace = cfg.WorkspaceID
		}
		Logger.Debugf("Workspace: %s, scopes: %v, expires-in: %q", workspace, createScopes, createExpiresIn)

		out := createOut
		if out == "" {
			out = cfg.Export.Dir
		}

		var (
			notifier workflows.Notifier
			exporter workflows.BundleExporter
			rep      *report
		)
		if out == "-" {
			// Keep stdout clean for the bundle.
			rep = &report{w: os.Stderr}
			notifier = notify.Console{Out: os.Stderr}
			exporter = bundle.WriterExporter{W: os.Stdout}
		} else {
			spinner, cleanup := startSpinner("Creating service token...")
			defer cleanup()
			rep = &report{spinner: spinner}
			notifier = rep
			exporter = bundle.FileExporter{Dir: out, Prefix: cfg.Export.Prefix}
		}
		defer rep.Flush()

		raw, err := parseScopeFlags(createScopes)
		if err != nil {
			Logger.Errorf("Invalid scope flag: %v", err)
			notifier.Notify("Failed to create service token", notify.Error)
			rep.Add(formatIssueError(err)...)
			return ErrReported
		}

		issuer, err := newIssuer(cfg, true, notifier, exporter)
		if err != nil {
			Logger.Errorf("Failed to open key store: %v", err)
			notifier.Notify("Failed to create service token", notify.Error)
			rep.Add(formatIssueError(err)...)
			return ErrReported
		}

		result, err := issuer.Issue(context.Background(), workflows.IssueOptions{
			Name:        createName,
			WorkspaceID: workspace,
			Scopes:      raw,
			ExpiresIn:   createExpiresIn,
		})
		if err != nil {
			rep.Add(formatIssueError(err)...)
			return ErrReported
		}

		Logger.Infof("Token create command completed successfully for %s", result.Name)
		if result.BundlePath != "-" {
			rep.Add("    bundle: " + ui.Path.Sprint(result.BundlePath))
		}
		for _, g := range result.Grants {
			rep.Add("    scope:  " + ui.Scope.Sprint(g.String()))
		}
		rep.Add("    expiry: " + ui.Highlight.Sprint(result.Expiry.String()))
		rep.Add(ui.Hint("The bundle holds the only copy of the token's private key. Store it somewhere safe"))
		return nil
	},
}
