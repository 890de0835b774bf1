package sequence

import (
	"strings"

	"github.com/expr-lang/expr"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
)

// ExprEvaluator decides a custom condition with an expr-lang expression.
// The environment exposes steps (all results), last (the latest result)
// and count (the number of result slots).
type ExprEvaluator struct {
	Source string
}

// NewExprEvaluator checks the syntax of source
func NewExprEvaluator(source string) (*ExprEvaluator, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, dserror.New("custom condition expression is empty").
			WithCode(dserror.CodeMalformedCondition)
	}
	if _, err := expr.Compile(source, expr.Env(exprEnv(NewContext())), expr.AsBool()); err != nil {
		return nil, dserror.Wrapf(err, "compile condition %q", source).
			WithCode(dserror.CodeMalformedCondition)
	}
	return &ExprEvaluator{Source: source}, nil
}

// EvaluateCondition implements Evaluator
func (e *ExprEvaluator) EvaluateCondition(ctx *Context) (bool, error) {
	env := exprEnv(ctx)
	program, err := expr.Compile(e.Source, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, dserror.Wrapf(err, "compile condition %q", e.Source).
			WithCode(dserror.CodeMalformedCondition)
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, dserror.Wrapf(err, "eval condition %q", e.Source).
			WithCode(dserror.CodeMalformedCondition)
	}
	result, ok := output.(bool)
	if !ok {
		return false, dserror.Newf("condition %q did not return bool (got %T)", e.Source, output).
			WithCode(dserror.CodeMalformedCondition)
	}
	return result, nil
}

func exprEnv(ctx *Context) map[string]interface{} {
	results := ctx.Results()
	var last interface{} = map[string]interface{}{}
	for i := len(results) - 1; i >= 0; i-- {
		if results[i] != nil {
			last = results[i]
			break
		}
	}
	return map[string]interface{}{
		"steps": results,
		"last":  last,
		"count": len(results),
	}
}
