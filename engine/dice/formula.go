// Package dice parses and evaluates dice formulas such as "1d4+1" or
// "2d6-3" against a deterministic RNG.
package dice

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrEmptyFormula indicates a blank formula.
var ErrEmptyFormula = errors.New("dice formula is empty")

// ErrInvalidDie indicates a die group with a count or sides outside
// 1..MaxCount and 1..MaxSides.
var ErrInvalidDie = errors.New("dice must have positive sides and count within limits")

// Bounds on a single die group. Every die advances the RNG position, which
// a save replays on load.
const (
	MaxCount = 100
	MaxSides = 1000
)

// Evaluator turns a formula into a concrete integer.
type Evaluator interface {
	Evaluate(formula string) (int, error)
}

// formulaLexer tokenizes "NdS", integers and +/- operators.
var formulaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Die", Pattern: `\d*[dD]\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Op", Pattern: `[+-]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// Formula is the parsed form of a dice expression.
type Formula struct {
	First *Term     `parser:"@@"`
	Rest  []*OpTerm `parser:"@@*"`
}

// OpTerm is a signed term following the first one.
type OpTerm struct {
	Op   string `parser:"@Op"`
	Term *Term  `parser:"@@"`
}

// Term is either a die group or a constant.
type Term struct {
	Die   string `parser:"  @Die"`
	Const string `parser:"| @Int"`
}

var formulaParser = participle.MustBuild[Formula](
	participle.Lexer(formulaLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a formula and checks every die group.
func Parse(formula string) (*Formula, error) {
	if strings.TrimSpace(formula) == "" {
		return nil, ErrEmptyFormula
	}
	f, err := formulaParser.ParseString("", formula)
	if err != nil {
		return nil, fmt.Errorf("parsing formula %q: %w", formula, err)
	}
	for _, t := range f.terms() {
		if t.Die == "" {
			continue
		}
		if _, _, err := splitDie(t.Die); err != nil {
			return nil, fmt.Errorf("parsing formula %q: %w", formula, err)
		}
	}
	return f, nil
}

// Validate reports whether a formula is syntactically valid.
func Validate(formula string) error {
	_, err := Parse(formula)
	return err
}

// IsConstant reports whether the formula contains no dice.
func (f *Formula) IsConstant() bool {
	for _, t := range f.terms() {
		if t.Die != "" {
			return false
		}
	}
	return true
}

func (f *Formula) terms() []*Term {
	out := []*Term{f.First}
	for _, r := range f.Rest {
		out = append(out, r.Term)
	}
	return out
}

// Roller evaluates formulas by rolling through an RNG.
type Roller struct {
	RNG *RNG
}

// Evaluate parses and rolls a formula. Totals below zero are clamped to
// zero: a formula always yields a non-negative magnitude.
func (r Roller) Evaluate(formula string) (int, error) {
	f, err := Parse(formula)
	if err != nil {
		return 0, err
	}
	total, err := r.term(f.First)
	if err != nil {
		return 0, err
	}
	for _, rest := range f.Rest {
		v, err := r.term(rest.Term)
		if err != nil {
			return 0, err
		}
		if rest.Op == "-" {
			total -= v
		} else {
			total += v
		}
	}
	if total < 0 {
		total = 0
	}
	return total, nil
}

func (r Roller) term(t *Term) (int, error) {
	if t.Die == "" {
		return strconv.Atoi(t.Const)
	}
	count, sides, err := splitDie(t.Die)
	if err != nil {
		return 0, err
	}
	sum := 0
	for i := 0; i < count; i++ {
		sum += r.RNG.Roll(sides)
	}
	return sum, nil
}

// splitDie splits "2d6" into (2, 6). A missing count means one die.
func splitDie(s string) (count, sides int, err error) {
	c, sd, _ := strings.Cut(strings.ToLower(s), "d")
	count = 1
	if c != "" {
		if count, err = strconv.Atoi(c); err != nil {
			return 0, 0, err
		}
	}
	if sides, err = strconv.Atoi(sd); err != nil {
		return 0, 0, err
	}
	if count <= 0 || sides <= 0 || count > MaxCount || sides > MaxSides {
		return 0, 0, ErrInvalidDie
	}
	return count, sides, nil
}

// Fixed is an Evaluator that returns constant values per formula, falling
// back to Default. Useful where a collaborator has already rolled.
type Fixed struct {
	Values  map[string]int
	Default int
}

// Evaluate returns the fixed value for the formula.
func (f Fixed) Evaluate(formula string) (int, error) {
	if err := Validate(formula); err != nil {
		return 0, err
	}
	if v, ok := f.Values[formula]; ok {
		return v, nil
	}
	return f.Default, nil
}
