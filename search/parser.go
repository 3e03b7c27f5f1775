package search

import (
	"strings"

	"research-review-portal/models"
)

// Parse compiles a parenthesised AND/OR expression such as
// `crime AND (policy OR reform)`.
//
// Operators have no relative precedence. The scan folds left to right under the
// most recently seen operator, so `a AND b OR c` is `(a AND b) OR c` and
// `a OR b AND c` is `(a OR b) AND c`. Only parentheses group. Adjacent words
// fold under the pending operator, which is AND until an operator appears, so
// `a b` is `a AND b` and `a OR b c` is `(a OR b) OR c`. Operators must be upper
// case; lower case "and" or "or" are search words.
func Parse(input string) (Expr, error) {
	p := &parser{tokens: tokenize(input)}
	return p.group(0)
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) group(depth int) (Expr, error) {
	var acc Expr
	pending := And

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++

		switch tok {
		case "(":
			sub, err := p.group(depth + 1)
			if err != nil {
				return nil, err
			}
			acc = fold(acc, sub, pending)
		case ")":
			if depth == 0 {
				return nil, models.NewValidationError("search", "unexpected closing parenthesis")
			}
			return acc, nil
		case string(And), string(Or):
			pending = Operator(tok)
		default:
			acc = fold(acc, Term(tok), pending)
		}
	}

	if depth > 0 {
		return nil, models.NewValidationError("search", "missing closing parenthesis")
	}
	return acc, nil
}

func fold(acc, next Expr, op Operator) Expr {
	switch {
	case next == nil:
		return acc
	case acc == nil:
		return next
	}
	return Combination{Op: op, Exprs: []Expr{acc, next}}
}

var parenSpacer = strings.NewReplacer("(", " ( ", ")", " ) ")

func tokenize(input string) []string {
	return strings.Fields(parenSpacer.Replace(input))
}
