// Package search turns free-text queries and structured filters into a
// parameterised SQL predicate over articles, their authors and keywords.
package search

import (
	"strings"
)

type Operator string

const (
	And Operator = "AND"
	Or  Operator = "OR"
)

// ParseOperator accepts AND or OR in any case. An empty string means AND.
func ParseOperator(s string) (Operator, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND":
		return And, true
	case "OR":
		return Or, true
	}
	return "", false
}

// Expr is a boolean combination of search terms.
type Expr interface {
	build(b *strings.Builder, vars *[]any)
}

// Term matches when it is a case-insensitive substring of the article title,
// the author's first or last name, or any keyword of the article.
type Term string

// Combination joins its expressions with a single operator.
type Combination struct {
	Op    Operator
	Exprs []Expr
}

const termSQL = `(LOWER(articles.title) LIKE ? ESCAPE '\'` +
	` OR EXISTS (SELECT 1 FROM users WHERE users.id = articles.author_id` +
	` AND (LOWER(users.first_name) LIKE ? ESCAPE '\' OR LOWER(users.last_name) LIKE ? ESCAPE '\'))` +
	` OR EXISTS (SELECT 1 FROM keywords WHERE keywords.article_id = articles.id` +
	` AND LOWER(keywords.keyword) LIKE ? ESCAPE '\'))`

func (t Term) build(b *strings.Builder, vars *[]any) {
	pattern := "%" + escapeLike(strings.ToLower(string(t))) + "%"
	b.WriteString(termSQL)
	*vars = append(*vars, pattern, pattern, pattern, pattern)
}

func (c Combination) build(b *strings.Builder, vars *[]any) {
	switch len(c.Exprs) {
	case 0:
		return
	case 1:
		c.Exprs[0].build(b, vars)
		return
	}
	b.WriteByte('(')
	for i, e := range c.Exprs {
		if i > 0 {
			b.WriteString(" " + string(c.Op) + " ")
		}
		e.build(b, vars)
	}
	b.WriteByte(')')
}

// Compile renders e as SQL with positional placeholders.
func Compile(e Expr) (string, []any) {
	if e == nil {
		return "", nil
	}
	var (
		b    strings.Builder
		vars []any
	)
	e.build(&b, &vars)
	return b.String(), vars
}

// Terms tokenizes s on whitespace and joins the terms with op.
// It returns nil when s holds no terms.
func Terms(s string, op Operator) Expr {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	exprs := make([]Expr, 0, len(fields))
	for _, f := range fields {
		exprs = append(exprs, Term(f))
	}
	return Combination{Op: op, Exprs: exprs}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
