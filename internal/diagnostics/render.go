package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorEnabled decides whether to colorize output written to f, honoring
// the config override: "always", "never" or "auto".
func ColorEnabled(f *os.File, mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render writes the report's diagnostics to w in source order.
func Render(w io.Writer, report *Report, colorize bool) {
	errColor := color.New(color.FgRed, color.Bold)
	warnColor := color.New(color.FgYellow, color.Bold)
	locColor := color.New(color.Bold)
	for _, c := range []*color.Color{errColor, warnColor, locColor} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	for _, d := range report.Sorted() {
		sev := errColor
		if d.Severity == Warning {
			sev = warnColor
		}
		fmt.Fprintf(w, "%s: %s: %s\n",
			locColor.Sprint(d.Loc.String()),
			sev.Sprintf("%s [%s]", d.Severity, d.Code),
			d.Message)
		for _, f := range d.Followups {
			fmt.Fprintf(w, "  %s: note: %s\n", f.Loc, f.Message)
		}
	}
}
