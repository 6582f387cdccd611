package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/tokensmith/internal/notify"
	"github.com/PolarWolf314/tokensmith/internal/ui"
	"github.com/PolarWolf314/tokensmith/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	updateName      string
	updateScopes    []string
	updateExpiresIn string
)

func init() {
	tokenUpdateCmd.Flags().StringVarP(&updateName, "name", "n", "", "new service token name (default unchanged)")
	tokenUpdateCmd.Flags().StringArrayVarP(&updateScopes, "scope", "s", nil, "replacement scopes as permission:environment[:path] (default unchanged)")
	tokenUpdateCmd.Flags().StringVarP(&updateExpiresIn, "expires-in", "e", "", "new lifetime: never, 1d, 7d, 1m, 6m, 12m or seconds (default never)")
}

// resetTokenUpdateState resets the update command's global state for testing.
func resetTokenUpdateState() {
	updateName = ""
	updateScopes = nil
	updateExpiresIn = ""
}

var tokenUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change the name, scopes or expiry of a service token",
	Long: `Updates an existing service token. Keys are never touched; the token
keeps working with the bundle it was issued with.

Name and scopes not given on the command line are kept as they are.

Examples:
  tokensmith token update abc123 --scope read:prod --scope read:staging
  tokensmith token update abc123 --name ci-bot-legacy --expires-in 1d`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		Logger.Infof("Starting token update command for %s", id)

		cfg, err := loadConfig()
		if err != nil {
			Logger.Errorf("Failed to load config: %v", err)
			fmt.Println(formatConfigError(err))
			return ErrReported
		}

		spinner, cleanup := startSpinner("Updating service token...")
		defer cleanup()
		rep := &report{spinner: spinner}
		defer rep.Flush()

		issuer, err := newIssuer(cfg, false, rep, nil)
		if err != nil {
			Logger.Errorf("Failed to set up issuer: %v", err)
			rep.Notify("Failed to update service token", notify.Error)
			return ErrReported
		}

		opts := workflows.IssueOptions{CredentialID: id, Name: updateName, ExpiresIn: updateExpiresIn}

		if !cmd.Flags().Changed("name") || !cmd.Flags().Changed("scope") {
			Logger.Debugf("Fetching current values of %s", id)
			current, err := issuer.Describe(context.Background(), id)
			if err != nil {
				Logger.Errorf("Failed to fetch service token: %v", err)
				rep.Add(ui.Failed("Failed to fetch service token " + ui.Highlight.Sprint(id)))
				rep.Add(formatIssueError(err)...)
				return ErrReported
			}
			if !cmd.Flags().Changed("name") {
				opts.Name = current.Name
			}
			if !cmd.Flags().Changed("scope") {
				opts.Scopes = current.Scopes
			}
		}

		if cmd.Flags().Changed("scope") {
			raw, err := parseScopeFlags(updateScopes)
			if err != nil {
				Logger.Errorf("Invalid scope flag: %v", err)
				rep.Notify("Failed to update service token", notify.Error)
				rep.Add(formatIssueError(err)...)
				return ErrReported
			}
			opts.Scopes = raw
		}

		result, err := issuer.Issue(context.Background(), opts)
		if err != nil {
			rep.Add(formatIssueError(err)...)
			return ErrReported
		}

		Logger.Infof("Token update command completed successfully for %s", id)
		rep.Add("    name:   " + ui.Highlight.Sprint(result.Name))
		for _, g := range result.Grants {
			rep.Add("    scope:  " + ui.Scope.Sprint(g.String()))
		}
		rep.Add("    expiry: " + ui.Highlight.Sprint(result.Expiry.String()))
		return nil
	},
}
