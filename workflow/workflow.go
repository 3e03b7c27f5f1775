// Package workflow holds the article status transition table and the capability
// check every article operation goes through.
package workflow

import (
	"research-review-portal/models"
)

type Operation string

const (
	OpCreate       Operation = "create"
	OpView         Operation = "view"
	OpListAll      Operation = "list_all"
	OpSearchAll    Operation = "search_all_statuses"
	OpAssign       Operation = "assign"
	OpSubmitReview Operation = "submit_review"
	OpResubmit     Operation = "resubmit"
	OpSetFeatured  Operation = "set_featured"
	OpDelete       Operation = "delete"
	OpChangeRole   Operation = "change_role"
)

type transition struct {
	// from is nil when the operation is legal in every status.
	from []models.ArticleStatus
	// targets is nil when the operation leaves the status unchanged.
	targets []models.ArticleStatus
	// to is used instead of the requested target when set.
	to models.ArticleStatus
}

var transitions = map[Operation]transition{
	OpAssign: {
		from: []models.ArticleStatus{models.StatusSent},
	},
	OpSubmitReview: {
		from:    []models.ArticleStatus{models.StatusSent, models.StatusUnderReview},
		targets: []models.ArticleStatus{models.StatusReviewed, models.StatusApproved, models.StatusDeclined},
	},
	OpResubmit: {
		from: []models.ArticleStatus{models.StatusReviewed, models.StatusUnderReview, models.StatusDeclined},
		to:   models.StatusUnderReview,
	},
	OpSetFeatured: {},
}

// Next returns the status an article in current moves to when op is applied.
// target is only consulted by operations that let the caller pick the outcome.
func Next(current models.ArticleStatus, op Operation, target models.ArticleStatus) (models.ArticleStatus, error) {
	t, ok := transitions[op]
	if !ok {
		return current, models.NewConflictError("operation %q does not change article status", op)
	}
	if !current.Valid() {
		return current, models.NewConflictError("article has unknown status %q", current)
	}
	if t.from != nil && !contains(t.from, current) {
		return current, models.NewConflictError("cannot %s an article in status %s", op, current)
	}

	switch {
	case t.to != "":
		return t.to, nil
	case t.targets != nil:
		if !contains(t.targets, target) {
			return current, models.NewValidationError("status", "must be one of Reviewed, Approved, Declined")
		}
		return target, nil
	default:
		return current, nil
	}
}

// Allowed reports whether op may be applied to an article in current.
func Allowed(current models.ArticleStatus, op Operation) bool {
	t, ok := transitions[op]
	if !ok {
		return false
	}
	return t.from == nil || contains(t.from, current)
}

func contains(statuses []models.ArticleStatus, s models.ArticleStatus) bool {
	for _, status := range statuses {
		if status == s {
			return true
		}
	}
	return false
}
