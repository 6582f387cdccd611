package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PolarWolf314/tokensmith/internal/ui"

	"github.com/spf13/cobra"
)

var showJSON bool

func init() {
	tokenShowCmd.Flags().BoolVar(&showJSON, "json", false, "output in JSON format")
}

// resetTokenShowState resets the show command's global state for testing.
func resetTokenShowState() {
	showJSON = false
}

type tokenShowOutput struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	WorkspaceID string          `json:"workspaceId,omitempty"`
	Scopes      []tokenShowItem `json:"scopes"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
}

type tokenShowItem struct {
	Permission  string `json:"permission"`
	Environment string `json:"environment"`
	SecretPath  string `json:"secretPath"`
}

var tokenShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Display a service token's name, scopes and expiry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		Logger.Infof("Starting token show command for %s", id)

		cfg, err := loadConfig()
		if err != nil {
			Logger.Errorf("Failed to load config: %v", err)
			fmt.Println(formatConfigError(err))
			return ErrReported
		}

		issuer, err := newIssuer(cfg, false, nil, nil)
		if err != nil {
			return err
		}

		d, err := issuer.Describe(context.Background(), id)
		if err != nil {
			Logger.Errorf("Failed to fetch service token: %v", err)
			fmt.Println(ui.Failed("Failed to fetch service token " + ui.Highlight.Sprint(id)))
			for _, line := range formatIssueError(err) {
				fmt.Println(line)
			}
			return ErrReported
		}

		if showJSON {
			out := tokenShowOutput{ID: d.ID, Name: d.Name, WorkspaceID: d.WorkspaceID, ExpiresAt: d.ExpiresAt}
			out.Scopes = make([]tokenShowItem, 0, len(d.Scopes))
			for _, s := range d.Scopes {
				out.Scopes = append(out.Scopes, tokenShowItem(s))
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal service token: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Println(ui.Info.Sprint("Service token") + " " + ui.Highlight.Sprint(d.Name) + " " + ui.Muted.Sprint(d.ID))
		fmt.Println()
		if d.WorkspaceID != "" {
			fmt.Printf("  %-12s %s\n", "Workspace:", d.WorkspaceID)
		}
		expires := "never"
		if d.ExpiresAt != nil {
			expires = d.ExpiresAt.Local().Format(time.RFC1123)
		}
		fmt.Printf("  %-12s %s\n", "Expires:", expires)
		fmt.Printf("  %-12s\n", "Scopes:")
		for _, s := range d.Scopes {
			fmt.Printf("    %-12s %-16s %s\n", ui.Scope.Sprint(s.Permission), s.Environment, ui.Path.Sprint(s.SecretPath))
		}
		return nil
	},
}
