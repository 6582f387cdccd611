// Package utils provides terminal and input helpers shared by the commands.
//
// Secrets such as private keys are either piped on stdin or typed at a
// prompt that does not echo. ReadSecret picks whichever applies.
package utils
