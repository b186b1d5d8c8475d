package dice

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmptyExpression is returned by Parse for blank input.
var ErrEmptyExpression = errors.New("dice: empty expression")

// Limits on a parsed expression. They keep rolling bounded in time and keep
// Min and Max well inside int range.
const (
	MaxDice     = 1000   // dice per term
	MaxSides    = 1000   // faces per die
	MaxConstant = 100000 // magnitude of a constant term
	MaxTerms    = 64     // terms per expression
)

// Term is one signed summand of an Expression: either NdS dice or a flat constant.
type Term struct {
	Count    int  // number of dice; 0 for a constant term
	Sides    int  // faces per die; 0 for a constant term
	Constant int  // flat value when Sides == 0
	Negative bool // term is subtracted
}

// IsDice reports whether the term rolls dice.
func (t Term) IsDice() bool { return t.Sides > 0 }

// Expression represents a parsed dice expression ready to be rolled.
//
// Invariant: 1 <= len(Terms) <= MaxTerms; dice terms have 1 <= Count <= MaxDice
// and 2 <= Sides <= MaxSides.
type Expression struct {
	Raw   string // original input string
	Terms []Term
}

// Max returns the highest total the expression can produce.
func (e Expression) Max() int {
	total := 0
	for _, t := range e.Terms {
		v := t.Constant
		if t.IsDice() {
			v = t.Count * t.Sides
			if t.Negative {
				v = t.Count
			}
		}
		if t.Negative {
			v = -v
		}
		total += v
	}
	return total
}

// Min returns the lowest total the expression can produce.
func (e Expression) Min() int {
	total := 0
	for _, t := range e.Terms {
		v := t.Constant
		if t.IsDice() {
			v = t.Count
			if t.Negative {
				v = t.Count * t.Sides
			}
		}
		if t.Negative {
			v = -v
		}
		total += v
	}
	return total
}

// IsZero reports whether the expression is a constant zero, such as "0" or "0+0".
func (e Expression) IsZero() bool {
	for _, t := range e.Terms {
		if t.IsDice() || t.Constant != 0 {
			return false
		}
	}
	return true
}

// Parse parses a dice expression string into an Expression.
// Supported forms are sums and differences of dice and constants:
// "d20", "2d6", "2d6+3", "1d8+1d4", "-1d4", "4", "1d6 - 1".
// A single pair of enclosing parentheses is ignored.
//
// Precondition: expr must be a non-empty string.
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	raw := strings.TrimSpace(expr)
	s := strings.ToLower(strings.Join(strings.Fields(raw), ""))
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		return Expression{}, ErrEmptyExpression
	}

	var terms []Term
	i := 0
	for i < len(s) {
		negative := false
		switch s[i] {
		case '+':
			i++
		case '-':
			negative = true
			i++
		default:
			if i > 0 {
				return Expression{}, fmt.Errorf("dice: expected operator at offset %d in %q", i, raw)
			}
		}
		j := i
		for j < len(s) && s[j] != '+' && s[j] != '-' {
			j++
		}
		t, err := parseTerm(s[i:j], raw)
		if err != nil {
			return Expression{}, err
		}
		t.Negative = negative
		if len(terms) == MaxTerms {
			return Expression{}, fmt.Errorf("dice: more than %d terms in %q", MaxTerms, raw)
		}
		terms = append(terms, t)
		i = j
	}

	return Expression{Raw: raw, Terms: terms}, nil
}

func parseTerm(tok, raw string) (Term, error) {
	if tok == "" {
		return Term{}, fmt.Errorf("dice: missing term in %q", raw)
	}
	dIdx := strings.Index(tok, "d")
	if dIdx < 0 {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return Term{}, fmt.Errorf("dice: invalid constant %q in %q: %w", tok, raw, err)
		}
		if n > MaxConstant {
			return Term{}, fmt.Errorf("dice: constant %d in %q exceeds %d", n, raw, MaxConstant)
		}
		return Term{Constant: n}, nil
	}

	// Count defaults to 1 when omitted ("d20").
	count := 1
	if countStr := tok[:dIdx]; countStr != "" {
		var err error
		count, err = strconv.Atoi(countStr)
		if err != nil {
			return Term{}, fmt.Errorf("dice: invalid die count in %q: %w", raw, err)
		}
		if count <= 0 {
			return Term{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", raw)
		}
		if count > MaxDice {
			return Term{}, fmt.Errorf("dice: invalid die count in %q: must be <= %d", raw, MaxDice)
		}
	}

	sides, err := strconv.Atoi(tok[dIdx+1:])
	if err != nil {
		return Term{}, fmt.Errorf("dice: invalid die sides in %q: %w", raw, err)
	}
	if sides < 2 {
		return Term{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 2", raw)
	}
	if sides > MaxSides {
		return Term{}, fmt.Errorf("dice: invalid die sides in %q: must be <= %d", raw, MaxSides)
	}
	return Term{Count: count, Sides: sides}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}
