// Package logger provides the operator-facing log channel for tokensmith.
//
// Output is prefixed with a colored level tag. End users get a single
// success or failure notification per command; the raw error detail behind
// a failure goes here instead.
//
// # Verbosity Levels
//
// Logging behavior is controlled by two flags:
//
//   - --verbose: Shows info, warning and error messages
//   - --debug: Shows all messages including debug details
//
// # Log Methods
//
//	Logger.Infof()       // Shown with --verbose or --debug
//	Logger.Debugf()      // Shown only with --debug
//	Logger.Warnf()       // Shown with --verbose or --debug
//	Logger.WarnfAlways() // Always shown (critical warnings)
//	Logger.Errorf()      // Shown with --verbose or --debug
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Issuing token %s", name)
//
// Commands create a logger in their PersistentPreRun and pass it to the
// workflows they call.
package logger
