// Package ui provides semantic text formatting for CLI output.
//
// Formatters render content by meaning (commands, paths, scopes, errors)
// rather than by color. When NO_COLOR is set or the terminal doesn't support
// colors, text decorations (backticks, quotes, brackets) are used instead.
//
//	ui.Code.Sprint("tokensmith keys init")   // Commands
//	ui.Path.Sprint("tokensmith_ci-bot.json") // File paths
//	ui.Highlight.Sprint("ci-bot")            // User values
//	ui.Scope.Sprint("read:prod:/")           // Access scopes
//	ui.Done("Created service token")         // ✓ line
//	ui.Failed("Failed to create")            // ✗ line
//	ui.Hint("Run tokensmith keys init")      // → line
package ui
