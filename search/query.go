package search

import (
	"strconv"
	"strings"
	"time"

	"research-review-portal/models"
)

// OrderBy is the result ordering of every search.
const OrderBy = "articles.created_at DESC, articles.id DESC"

// YearOlder selects articles created before January 1 of the previous year.
const YearOlder = "older"

type YearFilter struct {
	Year  int
	Older bool
}

// Range returns the creation-time window for the filter. from is zero for Older.
func (y YearFilter) Range(now time.Time) (from, to time.Time) {
	if y.Older {
		return time.Time{}, time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	from = time.Date(y.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

// Query is a validated search request.
type Query struct {
	Text   Expr
	Status models.ArticleStatus
	Type   models.ArticleType
	Year   *YearFilter
}

// Builder validates search parameters and renders them as SQL.
type Builder struct {
	now func() time.Time
}

func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// Build validates params. An empty status defaults to Approved.
func (b *Builder) Build(params models.SearchParams) (*Query, error) {
	q := &Query{Status: models.StatusApproved}

	if params.Status != "" {
		q.Status = models.ArticleStatus(params.Status)
		if !q.Status.Valid() {
			return nil, models.NewValidationError("status", "unknown status "+strconv.Quote(params.Status))
		}
	}

	if params.Type != "" {
		q.Type = models.ArticleType(params.Type)
		if !q.Type.Valid() {
			return nil, models.NewValidationError("type", "unknown type "+strconv.Quote(params.Type))
		}
	}

	year, err := parseYear(params.Year)
	if err != nil {
		return nil, err
	}
	q.Year = year

	op, ok := ParseOperator(params.Operator)
	if !ok {
		return nil, models.NewValidationError("operator", "must be AND or OR")
	}

	if strings.EqualFold(params.Syntax, "boolean") {
		q.Text, err = Parse(params.Search)
		if err != nil {
			return nil, err
		}
	} else {
		q.Text = Terms(params.Search, op)
	}

	return q, nil
}

func parseYear(s string) (*YearFilter, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, nil
	case strings.EqualFold(s, YearOlder):
		return &YearFilter{Older: true}, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1000 || year > 9999 {
		return nil, models.NewValidationError("year", "must be a four digit year or \"older\"")
	}
	return &YearFilter{Year: year}, nil
}

// Where renders q as a single SQL condition. Filter categories are joined with AND.
func (b *Builder) Where(q *Query) (string, []any) {
	conds := []string{"articles.status = ?"}
	vars := []any{string(q.Status)}

	if text, textVars := Compile(q.Text); text != "" {
		conds = append(conds, text)
		vars = append(vars, textVars...)
	}

	if q.Type != "" {
		conds = append(conds, "articles.type = ?")
		vars = append(vars, string(q.Type))
	}

	if q.Year != nil {
		from, to := q.Year.Range(b.now().UTC())
		if !from.IsZero() {
			conds = append(conds, "articles.created_at >= ?")
			vars = append(vars, from)
		}
		conds = append(conds, "articles.created_at < ?")
		vars = append(vars, to)
	}

	return strings.Join(conds, " AND "), vars
}
