package cmd

import (
	"github.com/PolarWolf314/tokensmith/internal/configs"
	"github.com/PolarWolf314/tokensmith/internal/keystore"
	"github.com/PolarWolf314/tokensmith/internal/scopes"
	"github.com/PolarWolf314/tokensmith/internal/workflows"

	"github.com/spf13/cobra"
)

var TokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue and manage scoped service tokens",
	Long: `Creates service tokens bound to a workspace, a set of scopes and an expiry.

A new token gets its own key pair. The workspace key is re-sealed to the
token's public key, and the private key is delivered once in a bundle file.`,
	PersistentPreRun: initLogger("token"),
}

func init() {
	addCommonFlags(TokenCmd)

	TokenCmd.AddCommand(tokenCreateCmd)
	TokenCmd.AddCommand(tokenUpdateCmd)
	TokenCmd.AddCommand(tokenShowCmd)
}

// resetTokenState resets the token commands' global state for testing.
func resetTokenState() {
	resetTokenCreateState()
	resetTokenUpdateState()
	resetTokenShowState()
}

// newIssuer wires the issuance workflow to the backend and the local key
// store. The key store is only opened when withKeys is set.
func newIssuer(cfg *configs.Config, withKeys bool, notifier workflows.Notifier, exporter workflows.BundleExporter) (*workflows.Issuer, error) {
	client := newAPIClient(cfg)

	issuer := &workflows.Issuer{
		Keys:     client,
		Store:    client,
		Notifier: notifier,
		Exporter: exporter,
		Logger:   Logger,
		Audit:    auditTrail(cfg),
	}

	if withKeys {
		store, err := keystore.Open(cfg.KeyStore, Logger)
		if err != nil {
			return nil, err
		}
		issuer.PrivateKeys = store
	}
	return issuer, nil
}

// parseScopeFlags reads repeated permission:environment[:path] values.
func parseScopeFlags(values []string) ([]scopes.RawScope, error) {
	raw := make([]scopes.RawScope, 0, len(values))
	for _, v := range values {
		r, err := scopes.Parse(v)
		if err != nil {
			return nil, err
		}
		raw = append(raw, r)
	}
	return raw, nil
}
