package query

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Env is the read-only context handed to a custom function. It exposes "task"
// and "query" and is rebuilt for every evaluation.
type Env map[string]any

// Expression is a compiled custom function body
type Expression interface {
	Evaluate(env Env) (any, error)
}

// Evaluator compiles expression source. It is injected so the query engine does
// not depend on one expression language.
type Evaluator interface {
	Compile(source string) (Expression, error)
}

// ExprEvaluator evaluates expressions with expr-lang
type ExprEvaluator struct{}

type exprProgram struct {
	program *vm.Program
}

// Compile parses the expression once; evaluation happens per task
func (ExprEvaluator) Compile(source string) (Expression, error) {
	program, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	return &exprProgram{program: program}, nil
}

func (p *exprProgram) Evaluate(env Env) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	return expr.Run(p.program, map[string]any(env))
}
