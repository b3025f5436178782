package commands

import (
	"fmt"

	"github.com/nathoo/kingdomcore/types"
)

// ParamError indicates a malformed command request.
type ParamError struct {
	Type  string
	Param string
	Msg   string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: param %q %s", e.Type, e.Param, e.Msg)
}

func stringParam(req types.CommandRequest, key string) string {
	s, _ := req.Params[key].(string)
	return s
}

func boolParam(req types.CommandRequest, key string, def bool) bool {
	if b, ok := req.Params[key].(bool); ok {
		return b
	}
	return def
}

func intParam(req types.CommandRequest, key string, def int) int {
	switch n := req.Params[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

// countParam reads an integer or dice formula, rolling formulas once.
// Returns the value and the formula it came from (empty for literals).
func countParam(req types.CommandRequest, ctx Context, key string, def int) (int, string, error) {
	v, ok := req.Params[key]
	if !ok {
		return def, "", nil
	}
	switch n := v.(type) {
	case int, int64, float64:
		return intParam(req, key, def), "", nil
	case string:
		if ctx.Dice == nil {
			return 0, "", &ParamError{Type: req.Type, Param: key, Msg: "needs a dice evaluator"}
		}
		got, err := ctx.Dice.Evaluate(n)
		if err != nil {
			return 0, "", &ParamError{Type: req.Type, Param: key, Msg: err.Error()}
		}
		return got, n, nil
	default:
		return 0, "", &ParamError{Type: req.Type, Param: key, Msg: fmt.Sprintf("has unsupported type %T", v)}
	}
}

func rolledSuffix(formula string, n int) string {
	if formula == "" {
		return ""
	}
	return fmt.Sprintf(" (rolled %s = %d)", formula, n)
}
