package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PolarWolf314/tokensmith/internal/audit"
	kerrors "github.com/PolarWolf314/tokensmith/internal/errors"
	"github.com/PolarWolf314/tokensmith/internal/ui"
	"github.com/PolarWolf314/tokensmith/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logReverse   bool
	logWorkspace string
	logName      string
	logOperation string
	logSince     string
	logUntil     string
	logOneline   bool
	logJSON      bool
)

func init() {
	addCommonFlags(LogCmd)

	LogCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	LogCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	LogCmd.Flags().StringVarP(&logWorkspace, "workspace", "w", "", "filter by workspace id")
	LogCmd.Flags().StringVar(&logName, "name", "", "filter by service token name")
	LogCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation: create, update (comma-separated)")
	LogCmd.Flags().StringVar(&logSince, "since", "", "show entries on or after date (YYYY-MM-DD)")
	LogCmd.Flags().StringVar(&logUntil, "until", "", "show entries on or before date (YYYY-MM-DD)")
	LogCmd.Flags().BoolVar(&logOneline, "oneline", false, "compact one-line format")
	LogCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logWorkspace = ""
	logName = ""
	logOperation = ""
	logSince = ""
	logUntil = ""
	logOneline = false
	logJSON = false
}

// LogCmd shows the local record of issued and updated service tokens.
var LogCmd = &cobra.Command{
	Use:   "log",
	Short: "View the issuance audit log",
	Long: `Displays the service tokens this installation created or updated.

The log never contains key material. Use filters to narrow down the results.

Examples:
  tokensmith log                          # View full log
  tokensmith log -n 10                    # Last 10 entries
  tokensmith log --reverse                # Most recent first
  tokensmith log --workspace ws-1         # Filter by workspace
  tokensmith log --operation create       # Only newly issued tokens
  tokensmith log --since 2024-01-01       # Filter by date
  tokensmith log --json                   # JSON output`,
	PersistentPreRun: initLogger("log"),
	RunE:             runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")

	cfg, err := loadConfig()
	if err != nil {
		Logger.Errorf("Failed to load config: %v", err)
		fmt.Println(formatConfigError(err))
		return ErrReported
	}

	spinner, cleanup := startSpinner("Loading audit log...")
	defer cleanup()

	opts := workflows.LogOptions{
		Limit:      logLimit,
		Reverse:    logReverse,
		Workspace:  logWorkspace,
		Name:       logName,
		Operations: logOperation,
		Since:      logSince,
		Until:      logUntil,
	}

	result, err := workflows.Log(context.Background(), auditTrail(cfg), opts)
	if err != nil {
		Logger.Errorf("Failed to read audit log: %v", err)
		spinner.FinalMSG = formatLogError(err)
		if errors.Is(err, kerrors.ErrAuditDisabled) {
			return nil
		}
		return ErrReported
	}

	Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	if len(result.Entries) == 0 {
		if result.TotalEntriesBeforeFilter == 0 {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " No audit log entries found. Entries are added when a service token is created or updated."
		} else {
			spinner.FinalMSG = "No audit log entries found matching the filters."
		}
		return nil
	}

	// Stop the spinner before printing entries.
	cleanup()

	switch {
	case logJSON:
		return outputLogJSON(result.Entries)
	case logOneline:
		outputLogOneline(result.Entries)
	default:
		outputLogDefault(result.Entries)
	}
	return nil
}

func formatLogError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrAuditDisabled):
		return ui.Info.Sprint("ℹ") + " The audit log is disabled\n" +
			ui.Hint("Set "+ui.Code.Sprint("audit_log")+" in the config file to record issued tokens")
	case errors.Is(err, kerrors.ErrInvalidDateFormat):
		return ui.Failed(err.Error())
	default:
		return ui.Failed("Failed to read audit log: " + err.Error())
	}
}

func outputLogJSON(entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputLogOneline(entries []audit.Entry) {
	for _, e := range entries {
		fmt.Printf("%s %s %s %s\n", workflows.FormatDate(e.Timestamp), e.Operation, e.CredentialName, workflows.FormatDetailsOneline(e))
	}
}

func outputLogDefault(entries []audit.Entry) {
	for _, e := range entries {
		fmt.Printf("%-19s  %-6s  %-20s  %s\n", workflows.FormatDateTime(e.Timestamp), e.Operation, e.CredentialName, workflows.FormatDetails(e))
	}
}
