package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/PolarWolf314/tokensmith/internal/configs"
	kerrors "github.com/PolarWolf314/tokensmith/internal/errors"
	"github.com/PolarWolf314/tokensmith/internal/notify"
	"github.com/PolarWolf314/tokensmith/internal/ui"

	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// report collects the final message of a command. With a spinner the
// message is printed when the spinner stops; otherwise it is written to w.
// It doubles as the issuance notifier, so the outcome line comes first.
type report struct {
	spinner *spinner.Spinner
	w       io.Writer
	lines   []string
}

func (r *report) Notify(message string, kind notify.Kind) {
	line := ui.Done(message)
	if kind == notify.Error {
		line = ui.Failed(message)
	}
	r.lines = append([]string{line}, r.lines...)
}

func (r *report) Add(lines ...string) {
	r.lines = append(r.lines, lines...)
}

func (r *report) Flush() {
	msg := strings.Join(r.lines, "\n")
	r.lines = nil
	if r.spinner != nil {
		r.spinner.FinalMSG = msg
		return
	}
	if msg != "" {
		fmt.Fprint(r.w, ui.EnsureNewline(msg))
	}
}

// formatIssueError turns an issuance error into follow-up hints. The raw
// error is only shown through the logger.
func formatIssueError(err error) []string {
	var hint string
	switch {
	case errors.Is(err, kerrors.ErrValidation):
		hint = "Check " + ui.Flag.Sprint("--name") + ", " + ui.Flag.Sprint("--scope") + " and " + ui.Flag.Sprint("--expires-in")
	case errors.Is(err, kerrors.ErrPrivateKeyNotFound):
		hint = "No private key found. Run " + ui.Code.Sprint("tokensmith keys init") + " and ask a workspace admin to grant your public key access"
	case errors.Is(err, kerrors.ErrInvalidPrivateKey):
		hint = "Your stored private key is unreadable. Re-import it with " + ui.Code.Sprint("tokensmith keys import --force")
	case errors.Is(err, kerrors.ErrWrappedKeyNotFound):
		hint = "The workspace key has not been shared with you yet. Ask a workspace admin for access"
	case errors.Is(err, kerrors.ErrUnauthorized):
		hint = "The backend refused your credentials. Check " + ui.Code.Sprint(configs.EnvToken)
	case errors.Is(err, kerrors.ErrPrecondition):
		hint = "Set the workspace with " + ui.Flag.Sprint("--workspace") + " or " + ui.Code.Sprint("tokensmith config init --workspace <id>")
	case errors.Is(err, kerrors.ErrDecryption):
		hint = "The workspace key could not be opened with your private key. It may have been shared with a different key"
	case errors.Is(err, kerrors.ErrBundleExists):
		hint = "A bundle with this name already exists. Move it away or choose another " + ui.Flag.Sprint("--out") + " directory"
	case errors.Is(err, kerrors.ErrCredentialNotFound):
		hint = "No service token with that id exists"
	case errors.Is(err, kerrors.ErrIssuance):
		hint = "The backend rejected the request"
	}

	var lines []string
	if hint != "" {
		lines = append(lines, ui.Hint(hint))
	}
	if !verbose && !debug {
		lines = append(lines, ui.Hint("Run with "+ui.Flag.Sprint("--verbose")+" for details"))
	}
	return lines
}

// formatConfigError describes a config that could not be loaded.
func formatConfigError(err error) string {
	msg := ui.Failed("Could not load configuration") + "\n"
	if errors.Is(err, kerrors.ErrInvalidConfig) {
		msg += "    " + ui.Muted.Sprint(err.Error()) + "\n"
	}
	msg += ui.Hint("Run " + ui.Code.Sprint("tokensmith config init") + " to write a valid config")
	return msg
}
