// Package interaction gates resolution on post-apply player choices.
// Conditions, counts and titles are CEL expressions evaluated against the
// resolution context; candidates are checked by named validators.
package interaction

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// Env is the resolution context visible to interaction expressions.
type Env struct {
	Outcome   string
	Approach  string
	Metadata  map[string]int
	Resources map[string]int
}

func (e Env) activation() map[string]any {
	return map[string]any{
		"outcome":   e.Outcome,
		"approach":  e.Approach,
		"metadata":  intMap(e.Metadata),
		"resources": intMap(e.Resources),
	}
}

func intMap(m map[string]int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = int64(v)
	}
	return out
}

// Evaluator compiles and runs interaction expressions.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator builds the CEL environment for interaction expressions.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		ext.Strings(),
		cel.Variable("outcome", cel.StringType),
		cel.Variable("approach", cel.StringType),
		cel.Variable("metadata", cel.MapType(cel.StringType, cel.IntType)),
		cel.Variable("resources", cel.MapType(cel.StringType, cel.IntType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Check compiles an expression without running it. The loader uses it to
// reject broken content up front.
func (e *Evaluator) Check(expr string) error {
	_, err := e.program(expr)
	return err
}

func (e *Evaluator) program(expr string) (cel.Program, error) {
	ast, iss := e.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("CEL compile error in %q: %w", expr, iss.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program error in %q: %w", expr, err)
	}
	return prg, nil
}

func (e *Evaluator) eval(expr string, env Env) (any, error) {
	prg, err := e.program(expr)
	if err != nil {
		return nil, err
	}
	out, _, err := prg.Eval(env.activation())
	if err != nil {
		return nil, fmt.Errorf("CEL eval error in %q: %w", expr, err)
	}
	return out.Value(), nil
}

// Bool evaluates a condition. An empty expression is true.
func (e *Evaluator) Bool(expr string, env Env) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return true, nil
	}
	v, err := e.eval(expr, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q returned %T, want bool", expr, v)
	}
	return b, nil
}

// Int evaluates a count expression.
func (e *Evaluator) Int(expr string, env Env) (int, error) {
	v, err := e.eval(expr, env)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("count %q returned %T, want int", expr, v)
	}
}

// String evaluates a title expression.
func (e *Evaluator) String(expr string, env Env) (string, error) {
	v, err := e.eval(expr, env)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("title %q returned %T, want string", expr, v)
	}
	return s, nil
}
