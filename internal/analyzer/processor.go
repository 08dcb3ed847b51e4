package analyzer

import (
	"github.com/funvibe/datalog/internal/pipeline"
)

// EnvironmentProcessor rebuilds the type environment from the program's
// declarations. Reference validation is only meaningful once the program
// is flat, so the pre-instantiation run leaves it off.
type EnvironmentProcessor struct {
	Validate bool
}

func (ep *EnvironmentProcessor) Process(tu *pipeline.TranslationUnit) *pipeline.TranslationUnit {
	if tu.Program == nil {
		return tu
	}
	tu.TypeEnv = BuildEnvironment(tu.Program)
	if ep.Validate {
		ValidateReferences(tu.Program, tu.TypeEnv, tu.Report)
	}
	return tu
}

// TypeAnalysisProcessor runs the clause type analysis over every relation
// and exports the per-clause argument type maps to the translation unit.
type TypeAnalysisProcessor struct{}

func (tp *TypeAnalysisProcessor) Process(tu *pipeline.TranslationUnit) *pipeline.TranslationUnit {
	if tu.Program == nil || tu.TypeEnv == nil {
		return tu
	}

	annotate := tu.Config != nil && tu.Config.Showing("type-analysis")

	analysis := NewTypeAnalysis()
	analysis.Run(tu.Program, tu.TypeEnv, tu.Report, annotate)

	tu.ArgumentTypes = analysis.ArgumentTypes
	tu.AnnotatedClauses = analysis.AnnotatedClauses
	return tu
}
