package core

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// EvaluateCondition evaluates a `when` expression such as
// `os == "darwin" && arch == "arm64"` against the facts of ctx.
// An empty condition is always true.
func EvaluateCondition(condition string, ctx *SystemContext) (bool, error) {
	if condition == "" {
		return true, nil
	}

	env := ctx.Facts()
	program, err := expr.Compile(condition, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("invalid condition %q: %w", condition, err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("condition %q failed: %w", condition, err)
	}
	return out.(bool), nil
}
