package workflow

import (
	"research-review-portal/models"
)

// Resource describes what an operation acts on.
type Resource struct {
	Article *models.Article
	// Assigned is true when the actor holds a review assignment on Article.
	Assigned bool
	// Role is the role being granted by OpChangeRole.
	Role models.UserRole
	// CurrentRole is the target user's role before OpChangeRole.
	CurrentRole models.UserRole
}

var requiresVerifiedEmail = map[Operation]bool{
	OpCreate:       true,
	OpAssign:       true,
	OpSubmitReview: true,
	OpResubmit:     true,
	OpSetFeatured:  true,
	OpDelete:       true,
	OpChangeRole:   true,
}

// Authorize decides whether actor may perform op on res.
func Authorize(actor models.Actor, op Operation, res Resource) error {
	if op == OpView && res.Article != nil && res.Article.Status == models.StatusApproved {
		return nil
	}
	if actor.ID == "" {
		return models.NewForbiddenError("authentication required")
	}
	if requiresVerifiedEmail[op] && !actor.EmailVerified {
		return models.NewForbiddenError("email address is not verified")
	}

	switch op {
	case OpCreate:
		if res.Article != nil && res.Article.AuthorID != actor.ID && !actor.IsStaff() {
			return models.NewForbiddenError("cannot upload on behalf of another author")
		}
		return nil
	case OpView:
		if actor.IsStaff() || res.Assigned || isOwner(actor, res.Article) {
			return nil
		}
		return models.NewForbiddenError("article is not published")
	case OpListAll, OpSearchAll, OpAssign, OpSetFeatured:
		if actor.IsStaff() {
			return nil
		}
		return models.NewForbiddenError("editor role required")
	case OpSubmitReview:
		if res.Assigned {
			return nil
		}
		return models.NewForbiddenError("reviewer is not assigned to this article")
	case OpResubmit:
		if isOwner(actor, res.Article) {
			return nil
		}
		return models.NewForbiddenError("only the owning author can resubmit")
	case OpDelete:
		if actor.Role == models.RoleAdmin {
			return nil
		}
		return models.NewForbiddenError("admin role required")
	case OpChangeRole:
		if !actor.IsStaff() {
			return models.NewForbiddenError("editor role required")
		}
		if res.Role == models.RoleAdmin && actor.Role != models.RoleAdmin {
			return models.NewForbiddenError("only an admin can grant the admin role")
		}
		if res.CurrentRole == models.RoleAdmin && actor.Role != models.RoleAdmin {
			return models.NewForbiddenError("only an admin can change an admin's role")
		}
		return nil
	}
	return models.NewForbiddenError("operation not permitted")
}

func isOwner(actor models.Actor, article *models.Article) bool {
	return article != nil && article.AuthorID == actor.ID
}
