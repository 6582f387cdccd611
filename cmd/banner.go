package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/PolarWolf314/tokensmith/internal/ui"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

// PrintBanner writes the tokensmith ASCII art followed by a usage hint.
func PrintBanner(w io.Writer) {
	banner := figure.NewColorFigure("tokensmith", "small", "cyan", true)

	art := banner.ColorString()
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor || color.NoColor {
		art = banner.String()
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, art)
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.Hint("Run "+ui.Code.Sprint("tokensmith --help")+" to see available commands"))
}
