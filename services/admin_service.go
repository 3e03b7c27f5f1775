package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"research-review-portal/models"
	"research-review-portal/workflow"
)

type AdminService interface {
	// Delete removes the requested articles and users one at a time. The
	// report lists what was removed and why the rest was not; a non-nil error
	// accompanies a report with failures.
	Delete(ctx context.Context, actor models.Actor, req models.DeleteRequest) (*models.DeleteReport, error)
}

type adminService struct {
	Dependencies
}

func NewAdminService(deps Dependencies) AdminService {
	return &adminService{Dependencies: deps.withDefaults()}
}

func (s *adminService) Delete(ctx context.Context, actor models.Actor, req models.DeleteRequest) (*models.DeleteReport, error) {
	if len(req.ArticleIDs) == 0 && len(req.Emails) == 0 {
		return nil, reject(workflow.OpDelete, models.NewValidationError("articleIds", "articleIds or emails must be provided"))
	}
	if err := workflow.Authorize(actor, workflow.OpDelete, workflow.Resource{}); err != nil {
		return nil, reject(workflow.OpDelete, err)
	}

	report := &models.DeleteReport{
		DeletedArticleIDs: []uint{},
		DeletedUserIDs:    []string{},
	}
	seen := make(map[uint]bool, len(req.ArticleIDs))
	for _, id := range req.ArticleIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		s.deleteArticle(ctx, report, id)
	}

	if err := s.deleteUsers(ctx, report, req.Emails, req.DeleteUserArticles); err != nil {
		return nil, err
	}

	s.Logger.InfoContext(ctx, "bulk delete finished",
		"actor_id", actor.ID,
		"articles_deleted", len(report.DeletedArticleIDs),
		"users_deleted", len(report.DeletedUserIDs),
		"failures", len(report.Failures),
	)
	if !report.Success() {
		return report, deleteError(report)
	}
	return report, nil
}

// deleteError reports failed deletions under the kind they share. Mixed kinds
// are reported as a dependency failure.
func deleteError(report *models.DeleteReport) error {
	kind := report.Failures[0].Kind
	targets := make([]string, 0, len(report.Failures))
	for _, failure := range report.Failures {
		if failure.Kind != kind {
			kind = models.KindDependency
		}
		switch {
		case failure.ArticleID != 0:
			targets = append(targets, "article "+strconv.FormatUint(uint64(failure.ArticleID), 10))
		case failure.UserID != "":
			targets = append(targets, "user "+failure.UserID)
		default:
			targets = append(targets, "user "+failure.Email)
		}
	}

	switch kind {
	case models.KindNotFound:
		return models.NewNotFoundError("delete target", strings.Join(targets, ", "))
	case models.KindConflict:
		return models.NewConflictError("%s: %s", strings.Join(targets, ", "), report.Failures[0].Message)
	default:
		return models.NewDependencyError("bulk delete", fmt.Errorf("%d deletions failed", len(report.Failures)))
	}
}

// deleteArticle reports whether the article is gone.
func (s *adminService) deleteArticle(ctx context.Context, report *models.DeleteReport, id uint) bool {
	article, err := s.Articles.GetByID(ctx, id)
	if err == nil {
		err = s.Articles.Delete(ctx, id)
	}
	if err != nil {
		report.Failures = append(report.Failures, models.DeleteFailure{
			ArticleID: id,
			Kind:      models.KindOf(err),
			Message:   err.Error(),
		})
		return false
	}

	report.DeletedArticleIDs = append(report.DeletedArticleIDs, id)
	// Blobs are content addressed and may be shared, so they are kept.
	s.Logger.InfoContext(ctx, "article deleted", "article_id", id, "blob_key", article.PDFPath)
	return true
}

func (s *adminService) deleteUsers(ctx context.Context, report *models.DeleteReport, emails []string, cascade bool) error {
	if len(emails) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(emails))
	for _, email := range emails {
		if email = strings.TrimSpace(email); email != "" {
			normalized = append(normalized, email)
		}
	}

	users, err := s.Users.GetByEmails(ctx, normalized)
	if err != nil {
		return err
	}
	byEmail := make(map[string]models.User, len(users))
	for _, user := range users {
		byEmail[strings.ToLower(user.Email)] = user
	}

	done := make(map[string]bool, len(users))
	for _, email := range normalized {
		user, ok := byEmail[strings.ToLower(email)]
		if !ok {
			report.UnknownEmails = append(report.UnknownEmails, email)
			continue
		}
		if done[user.ID] {
			continue
		}
		done[user.ID] = true
		s.deleteUser(ctx, report, user, cascade)
	}
	return nil
}

func (s *adminService) deleteUser(ctx context.Context, report *models.DeleteReport, user models.User, cascade bool) {
	fail := func(err error) {
		report.Failures = append(report.Failures, models.DeleteFailure{
			UserID:  user.ID,
			Email:   user.Email,
			Kind:    models.KindOf(err),
			Message: err.Error(),
		})
	}

	owned, err := s.Articles.IDsByAuthor(ctx, user.ID)
	if err != nil {
		fail(err)
		return
	}
	if len(owned) > 0 && !cascade {
		fail(models.NewConflictError("user owns %d articles; set deleteUserArticles to remove them", len(owned)))
		return
	}
	for _, id := range owned {
		if !s.deleteArticle(ctx, report, id) {
			fail(models.NewConflictError("article %d owned by the user could not be deleted", id))
			return
		}
	}

	err = s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.Reviews.DeleteByReviewer(ctx, user.ID); err != nil {
			return err
		}
		return s.Users.Delete(ctx, user.ID)
	})
	if err != nil {
		fail(err)
		return
	}
	report.DeletedUserIDs = append(report.DeletedUserIDs, user.ID)
	s.Logger.InfoContext(ctx, "user deleted", "user_id", user.ID)
}
