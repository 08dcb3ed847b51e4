// Package pipeline threads a translation unit through the front-end
// processing stages.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/funvibe/datalog/internal/ast"
	"github.com/funvibe/datalog/internal/config"
	"github.com/funvibe/datalog/internal/diagnostics"
	"github.com/funvibe/datalog/internal/typesystem"
)

// TranslationUnit is the mutable state shared by every pass: the program
// tree, the configuration, the append-only report and the cached analysis
// results. Passes run single-threaded; no synchronization is needed.
type TranslationUnit struct {
	ID       uuid.UUID
	FilePath string
	Source   string

	Program *ast.Program
	Report  *diagnostics.Report
	Config  *config.Config

	// TypeEnv is the registry built by the environment processor; rebuilt
	// from scratch on every run of that processor.
	TypeEnv *typesystem.Environment

	// ArgumentTypes maps each argument occurrence of each analyzed clause
	// to the set of types it may belong to.
	ArgumentTypes map[*ast.Clause]map[ast.Argument]typesystem.TypeSet

	// AnnotatedClauses holds the debug rendering of each analyzed clause
	// with variables annotated by their inferred type sets; only populated
	// when the type-analysis dump was requested.
	AnnotatedClauses []string
}

func NewTranslationUnit(filePath, source string, cfg *config.Config) *TranslationUnit {
	if cfg == nil {
		cfg = config.Default()
	}
	return &TranslationUnit{
		ID:       uuid.New(),
		FilePath: filePath,
		Source:   source,
		Program:  ast.NewProgram(),
		Report:   diagnostics.NewReport(),
		Config:   cfg,
	}
}

// Processor is a single pipeline stage.
type Processor interface {
	Process(tu *TranslationUnit) *TranslationUnit
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(initial *TranslationUnit) *TranslationUnit {
	tu := initial
	for _, processor := range p.processors {
		tu = processor.Process(tu)
		// Continue on errors to collect diagnostics from all stages.
	}
	return tu
}
