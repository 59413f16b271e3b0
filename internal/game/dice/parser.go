package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Expression is a parsed dice expression ready to be rolled.
//
// Invariant: Count >= 1, Sides >= 2, 0 <= KeepHighest < Count.
type Expression struct {
	Raw         string
	Count       int
	Sides       int
	Modifier    int
	KeepHighest int // keep only the N highest dice when > 0, as in 4d6kh3
}

var exprPattern = regexp.MustCompile(`^(\d*)d(\d+)(?:kh(\d+))?([+-]\d+)?$`)

// Parse parses "d20", "2d6", "2d6+3", "4d8-2" or "4d6kh3".
//
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	m := exprPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(expr)))
	if m == nil {
		return Expression{}, fmt.Errorf("dice: malformed expression %q", expr)
	}
	e := Expression{Raw: expr, Count: 1}
	if m[1] != "" {
		e.Count, _ = strconv.Atoi(m[1])
	}
	e.Sides, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		e.KeepHighest, _ = strconv.Atoi(m[3])
	}
	if m[4] != "" {
		e.Modifier, _ = strconv.Atoi(m[4])
	}
	switch {
	case e.Count < 1:
		return Expression{}, fmt.Errorf("dice: die count in %q must be >= 1", expr)
	case e.Sides < 2:
		return Expression{}, fmt.Errorf("dice: die sides in %q must be >= 2", expr)
	case m[3] != "" && (e.KeepHighest < 1 || e.KeepHighest >= e.Count):
		return Expression{}, fmt.Errorf("dice: kh value %d must be > 0 and < count %d in %q", e.KeepHighest, e.Count, expr)
	}
	return e, nil
}

// MustParse parses expr and panics on error.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse: " + err.Error())
	}
	return e
}
