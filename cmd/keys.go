package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/PolarWolf314/tokensmith/internal/envelope"
	kerrors "github.com/PolarWolf314/tokensmith/internal/errors"
	"github.com/PolarWolf314/tokensmith/internal/keystore"
	"github.com/PolarWolf314/tokensmith/internal/ui"
	"github.com/PolarWolf314/tokensmith/internal/utils"

	"github.com/spf13/cobra"
)

var keysForce bool

var KeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage your long-lived key pair",
	Long: `Your key pair identifies you to a workspace. A workspace admin seals the
workspace key to your public key; tokensmith opens it with your private key
whenever it issues a service token.`,
	PersistentPreRun: initLogger("keys"),
}

func init() {
	addCommonFlags(KeysCmd)

	keysInitCmd.Flags().BoolVarP(&keysForce, "force", "f", false, "replace an existing private key")
	keysImportCmd.Flags().BoolVarP(&keysForce, "force", "f", false, "replace an existing private key")

	KeysCmd.AddCommand(keysInitCmd)
	KeysCmd.AddCommand(keysImportCmd)
	KeysCmd.AddCommand(keysShowCmd)
}

// resetKeysState resets the keys commands' global state for testing.
func resetKeysState() {
	keysForce = false
}

func openKeyStore() (keystore.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	Logger.Debugf("Opening %s key store", cfg.KeyStore.Backend)
	return keystore.Open(cfg.KeyStore, Logger)
}

func formatKeyError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrInvalidConfig):
		return formatConfigError(err)
	case errors.Is(err, kerrors.ErrPrivateKeyExists):
		return ui.Failed("A private key already exists") + "\n" +
			ui.Hint("To replace it, run "+ui.Code.Sprint("tokensmith keys init --force")+". Workspace keys sealed to the old key can no longer be opened")
	case errors.Is(err, kerrors.ErrPrivateKeyNotFound):
		return ui.Failed("No private key found") + "\n" +
			ui.Hint("Run "+ui.Code.Sprint("tokensmith keys init")+" to create one")
	case errors.Is(err, kerrors.ErrInvalidPrivateKey):
		return ui.Failed("The private key is not a base64 encoded 32 byte key")
	case errors.Is(err, kerrors.ErrUnknownKeyStore):
		return ui.Failed("Unknown key store backend") + "\n" +
			ui.Hint("Set keystore.backend to "+ui.Code.Sprint("file")+" or "+ui.Code.Sprint("keyring"))
	default:
		return ui.Failed("Key store error: " + err.Error())
	}
}

func printPublicKey(public *[envelope.KeySize]byte) {
	fmt.Printf("    public key: %s\n", ui.Highlight.Sprint(envelope.EncodeKey(public)))
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate and store a new key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys init command")

		store, err := openKeyStore()
		if err != nil {
			Logger.Errorf("Failed to open key store: %v", err)
			fmt.Println(formatKeyError(err))
			return ErrReported
		}

		if keysForce {
			fmt.Println(ui.Warn("Using --force replaces your private key. Workspace keys sealed to the old key can no longer be opened"))
		}

		kp, err := envelope.GenerateKeyPair()
		if err != nil {
			return fmt.Errorf("generating key pair: %w", err)
		}
		defer kp.Wipe()

		if err := store.Save(kp.PrivateKey, keysForce); err != nil {
			Logger.Errorf("Failed to save private key: %v", err)
			fmt.Println(formatKeyError(err))
			return ErrReported
		}

		Logger.Infof("Key pair created successfully")
		fmt.Println(ui.Done("Generated a new key pair"))
		printPublicKey(kp.PublicKey)
		fmt.Println(ui.Hint("Ask a workspace admin to grant this public key access to the workspace"))
		return nil
	},
}

var keysImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Store an existing base64 private key",
	Long: `Reads a base64 encoded private key and stores it. The key is read from
stdin when piped, otherwise it is prompted for without echo.

Example:
  tokensmith keys import < privkey.b64`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys import command")

		data, err := utils.ReadSecret(cmd.InOrStdin(), "Private key: ")
		if err != nil {
			Logger.Errorf("Failed to read private key: %v", err)
			fmt.Println(ui.Failed("Could not read a private key"))
			fmt.Println(ui.Hint("Pipe a base64 private key, e.g. " + ui.Code.Sprint("tokensmith keys import < privkey.b64")))
			return ErrReported
		}
		static, err := keystore.ParseStatic(data)
		if err != nil {
			Logger.Errorf("Failed to parse private key: %v", err)
			fmt.Println(formatKeyError(err))
			return ErrReported
		}

		store, err := openKeyStore()
		if err != nil {
			Logger.Errorf("Failed to open key store: %v", err)
			fmt.Println(formatKeyError(err))
			return ErrReported
		}

		if err := store.Save(static.Key, keysForce); err != nil {
			Logger.Errorf("Failed to save private key: %v", err)
			fmt.Println(formatKeyError(err))
			return ErrReported
		}

		public, err := envelope.PublicKeyFor(static.Key)
		if err != nil {
			return fmt.Errorf("deriving public key: %w", err)
		}
		fmt.Println(ui.Done("Imported private key"))
		printPublicKey(public)
		return nil
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print your public key",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys show command")

		store, err := openKeyStore()
		if err != nil {
			Logger.Errorf("Failed to open key store: %v", err)
			fmt.Println(formatKeyError(err))
			return ErrReported
		}

		private, err := store.PrivateKey(context.Background())
		if err != nil {
			Logger.Errorf("Failed to load private key: %v", err)
			fmt.Println(formatKeyError(err))
			return ErrReported
		}

		public, err := envelope.PublicKeyFor(private)
		if err != nil {
			return fmt.Errorf("deriving public key: %w", err)
		}
		fmt.Println(envelope.EncodeKey(public))
		return nil
	},
}
