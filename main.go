package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/PolarWolf314/tokensmith/cmd"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tokensmith",
	Short: "tokensmith - issue scoped service tokens for a secrets workspace.",
	Long: `tokensmith issues service tokens for a secrets workspace.

Each token gets a fresh key pair. The workspace key is re-sealed to the new
public key, so the backend never sees a key it could decrypt secrets with.

Usage:
  tokensmith <command> [flags]

Available Commands:
  token      Create, update and inspect service tokens
  keys       Manage your long-lived key pair
  config     Manage configuration
  log        View the issuance audit log

Run 'tokensmith help <command>' for more details on a specific command.
`,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(c *cobra.Command, args []string) {
		cmd.PrintBanner(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(cmd.TokenCmd)
	rootCmd.AddCommand(cmd.KeysCmd)
	rootCmd.AddCommand(cmd.ConfigCmd)
	rootCmd.AddCommand(cmd.LogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cmd.ErrReported) {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
