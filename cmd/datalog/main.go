// Command datalog runs the front-end semantic passes over a Datalog
// program and reports diagnostics.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/alecthomas/repr"
	"github.com/pkg/errors"

	"github.com/funvibe/datalog/internal/analyzer"
	"github.com/funvibe/datalog/internal/config"
	"github.com/funvibe/datalog/internal/diagnostics"
	"github.com/funvibe/datalog/internal/parser"
	"github.com/funvibe/datalog/internal/pipeline"
	"github.com/funvibe/datalog/internal/transform"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "datalog:", err)
		os.Exit(2)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to datalog.yaml")
	show := flag.String("show", "", "extra dump: ast, types or type-analysis")
	noColor := flag.Bool("no-color", false, "disable diagnostic colors")
	flag.Parse()

	if flag.NArg() != 1 {
		return errors.New("usage: datalog [flags] <program.dl>")
	}
	filePath := flag.Arg(0)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *show != "" {
		cfg.Show = append(cfg.Show, *show)
	}
	if *noColor {
		cfg.Color = "never"
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "reading %s", filePath)
	}

	tu := pipeline.NewTranslationUnit(filePath, string(source), cfg)

	// The parse and expansion stages run first; the environment is rebuilt
	// over the flattened program so mangled types register, then clauses
	// are analyzed. Every stage keeps going on errors so one run reports
	// as much as possible.
	p := pipeline.New(
		&parser.Processor{},
		&analyzer.EnvironmentProcessor{},
		&transform.Processor{},
		&analyzer.EnvironmentProcessor{Validate: true},
		&analyzer.TypeAnalysisProcessor{},
	)
	tu = p.Run(tu)

	if cfg.Showing("ast") {
		fmt.Fprintf(os.Stdout, "// translation unit %s\n", tu.ID)
		repr.New(os.Stdout, repr.Indent("  ")).Println(tu.Program)
	}
	if cfg.Showing("types") && tu.TypeEnv != nil {
		fmt.Fprint(os.Stdout, tu.TypeEnv.String())
	}
	if cfg.Showing("type-analysis") {
		for _, line := range tu.AnnotatedClauses {
			fmt.Fprintln(os.Stdout, line)
		}
	}

	colorize := diagnostics.ColorEnabled(os.Stderr, cfg.Color)
	diagnostics.Render(os.Stderr, tu.Report, colorize)

	if tu.Report.Errors() > 0 {
		os.Exit(1)
	}
	return nil
}
