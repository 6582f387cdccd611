// Testing utilities shared between command tests: temporary environments,
// output capture and a mocked secrets backend.
package cmd

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/tokensmith/internal/api"
	"github.com/PolarWolf314/tokensmith/internal/configs"

	"github.com/jarcoal/httpmock"
	"github.com/spf13/cobra"
)

const testAPIURL = "https://api.test"

// setupTestEnvironment points every tokensmith path into a temporary
// directory, changes into it and resets command state.
func setupTestEnvironment(t *testing.T) string {
	t.Helper()

	tempDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	originalSettings := configs.Settings

	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	configs.Settings = &configs.PathSettings{
		ConfigPath: filepath.Join(tempDir, "config", "config.toml"),
		DataPath:   filepath.Join(tempDir, "data"),
		KeysPath:   filepath.Join(tempDir, "data", "keys"),
	}
	t.Setenv(configs.EnvAPIURL, testAPIURL)
	t.Setenv(configs.EnvToken, "test-token")
	t.Setenv(configs.EnvWorkspaceID, "")
	ResetGlobalState()

	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to change to original directory: %v", err)
		}
		configs.Settings = originalSettings
		ResetGlobalState()
	})

	return tempDir
}

// mockBackend routes every backend client built by the commands through
// httpmock.
func mockBackend(t *testing.T) {
	t.Helper()

	original := newAPIClient
	newAPIClient = func(cfg *configs.Config) *api.Client {
		c := original(cfg)
		httpmock.ActivateNonDefault(c.HTTPClient())
		return c
	}
	t.Cleanup(func() {
		newAPIClient = original
		httpmock.DeactivateAndReset()
	})
}

// captureStreams captures stdout and stderr separately during function execution.
func captureStreams(fn func() error) (string, string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	stdoutChan := make(chan string, 1)
	stderrChan := make(chan string, 1)

	drain := func(r io.Reader, out chan<- string) {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, r); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		out <- buf.String()
	}
	go drain(stdoutReader, stdoutChan)
	go drain(stderrReader, stderrChan)

	err := fn()

	// Close writers to signal EOF
	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	return <-stdoutChan, <-stderrChan, err
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	stdout, stderr, err := captureStreams(fn)
	return stdout + stderr, err
}

// createTestCLI creates a complete CLI instance for testing with the given arguments.
func createTestCLI(args ...string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tokensmith",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.AddCommand(GetTokenCmd())
	rootCmd.AddCommand(GetKeysCmd())
	rootCmd.AddCommand(GetConfigCmd())
	rootCmd.AddCommand(GetLogCmd())
	rootCmd.SetArgs(args)
	return rootCmd
}

// runCLI runs the CLI with args and returns everything it printed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ResetGlobalState()
	return captureOutput(func() error {
		return createTestCLI(args...).Execute()
	})
}
