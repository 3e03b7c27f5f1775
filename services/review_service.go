package services

import (
	"context"
	"strings"

	"research-review-portal/metrics"
	"research-review-portal/models"
	"research-review-portal/notify"
	"research-review-portal/workflow"
)

type ReviewService interface {
	AssignReviewer(ctx context.Context, actor models.Actor, articleID uint, reviewerID string) (*models.Article, error)
	SubmitReview(ctx context.Context, actor models.Actor, articleID uint, req models.SubmitReviewRequest, upload *models.Upload) (*models.ReviewSubmission, error)
	// Resubmit replaces the article PDF and puts it back under review.
	Resubmit(ctx context.Context, actor models.Actor, articleID uint, req models.ResubmitRequest, upload *models.Upload) (*models.Article, error)
	ListAssignments(ctx context.Context, actor models.Actor, pendingOnly bool) ([]models.Review, error)
}

type reviewService struct {
	Dependencies
}

func NewReviewService(deps Dependencies) ReviewService {
	return &reviewService{Dependencies: deps.withDefaults()}
}

func (s *reviewService) AssignReviewer(ctx context.Context, actor models.Actor, articleID uint, reviewerID string) (*models.Article, error) {
	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		return nil, reject(workflow.OpAssign, models.NewValidationError("reviewerId", "is required"))
	}
	if err := workflow.Authorize(actor, workflow.OpAssign, workflow.Resource{}); err != nil {
		return nil, reject(workflow.OpAssign, err)
	}

	article, err := s.Articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, reject(workflow.OpAssign, err)
	}
	reviewer, err := s.Users.GetByID(ctx, reviewerID)
	if err != nil {
		return nil, reject(workflow.OpAssign, err)
	}
	next, err := workflow.Next(article.Status, workflow.OpAssign, "")
	if err != nil {
		return nil, reject(workflow.OpAssign, err)
	}

	// Repeated assignments are accepted without notifying the reviewer again.
	already, err := s.Reviews.IsAssigned(ctx, articleID, reviewerID)
	if err != nil {
		return nil, err
	}
	if !already {
		if err := s.Reviews.Assign(ctx, articleID, reviewerID); err != nil {
			return nil, reject(workflow.OpAssign, err)
		}

		metrics.RecordTransition(string(workflow.OpAssign), string(article.Status), string(next))
		s.Logger.InfoContext(ctx, "reviewer assigned",
			"article_id", articleID,
			"reviewer_id", reviewerID,
			"actor_id", actor.ID,
		)
		s.dispatch(ctx, notify.Notification{
			Type:           notify.EventReviewAssigned,
			ArticleID:      article.ID,
			ArticleTitle:   article.Title,
			Status:         next,
			RecipientID:    reviewer.ID,
			RecipientEmail: reviewer.Email,
		})
	}

	detail, err := s.Articles.GetDetail(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return s.withURL(detail), nil
}

func (s *reviewService) SubmitReview(ctx context.Context, actor models.Actor, articleID uint, req models.SubmitReviewRequest, upload *models.Upload) (*models.ReviewSubmission, error) {
	comments := strings.TrimSpace(req.Comments)
	if req.Status == models.StatusReviewed && comments == "" {
		return nil, reject(workflow.OpSubmitReview, models.NewValidationError("comments", "are required when requesting revisions"))
	}
	if req.ReviewerID != actor.ID {
		return nil, reject(workflow.OpSubmitReview, models.NewForbiddenError("reviews can only be submitted by the reviewer themselves"))
	}

	article, err := s.Articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, reject(workflow.OpSubmitReview, err)
	}
	assigned, err := s.Reviews.IsAssigned(ctx, articleID, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(actor, workflow.OpSubmitReview, workflow.Resource{Article: article, Assigned: assigned}); err != nil {
		return nil, reject(workflow.OpSubmitReview, err)
	}
	next, err := workflow.Next(article.Status, workflow.OpSubmitReview, req.Status)
	if err != nil {
		return nil, reject(workflow.OpSubmitReview, err)
	}

	// An annotated PDF, when supplied, replaces the article file.
	var key string
	if upload != nil {
		if key, err = s.storeUpload(ctx, upload); err != nil {
			return nil, reject(workflow.OpSubmitReview, err)
		}
	}

	review := &models.Review{ArticleID: articleID, ReviewerID: actor.ID}
	if comments != "" {
		review.Comments = &comments
	}
	err = s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.Reviews.Upsert(ctx, review); err != nil {
			return err
		}
		updates := map[string]any{"status": next}
		if key != "" {
			updates["pdf_path"] = key
		}
		return s.Articles.UpdateVersioned(ctx, articleID, article.Version, updates)
	})
	if err != nil {
		s.logOrphanedBlob(ctx, articleID, key, err)
		return nil, reject(workflow.OpSubmitReview, err)
	}

	metrics.RecordTransition(string(workflow.OpSubmitReview), string(article.Status), string(next))
	s.Logger.InfoContext(ctx, "review submitted",
		"article_id", articleID,
		"reviewer_id", actor.ID,
		"from", article.Status,
		"to", next,
	)
	s.dispatch(ctx, notify.Notification{
		Type:           notify.EventStatusChanged,
		ArticleID:      article.ID,
		ArticleTitle:   article.Title,
		Status:         next,
		RecipientID:    article.Author.ID,
		RecipientEmail: article.Author.Email,
		Comments:       comments,
	})

	saved, err := s.Reviews.Get(ctx, articleID, actor.ID)
	if err != nil {
		return nil, err
	}
	updated, err := s.Articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return &models.ReviewSubmission{Review: saved, Article: s.withURL(updated)}, nil
}

func (s *reviewService) Resubmit(ctx context.Context, actor models.Actor, articleID uint, req models.ResubmitRequest, upload *models.Upload) (*models.Article, error) {
	if upload == nil {
		return nil, reject(workflow.OpResubmit, models.NewValidationError("file", "a replacement PDF is required"))
	}
	if req.Status != "" && req.Status != models.StatusUnderReview {
		return nil, reject(workflow.OpResubmit, models.NewValidationError("status", "must be Under_Review"))
	}

	article, err := s.Articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, reject(workflow.OpResubmit, err)
	}
	if err := workflow.Authorize(actor, workflow.OpResubmit, workflow.Resource{Article: article}); err != nil {
		return nil, reject(workflow.OpResubmit, err)
	}
	next, err := workflow.Next(article.Status, workflow.OpResubmit, "")
	if err != nil {
		return nil, reject(workflow.OpResubmit, err)
	}

	key, err := s.storeUpload(ctx, upload)
	if err != nil {
		return nil, reject(workflow.OpResubmit, err)
	}
	err = s.Articles.UpdateVersioned(ctx, articleID, article.Version, map[string]any{
		"status":   next,
		"pdf_path": key,
	})
	if err != nil {
		s.logOrphanedBlob(ctx, articleID, key, err)
		return nil, reject(workflow.OpResubmit, err)
	}

	metrics.RecordTransition(string(workflow.OpResubmit), string(article.Status), string(next))
	s.Logger.InfoContext(ctx, "article resubmitted",
		"article_id", articleID,
		"from", article.Status,
		"actor_id", actor.ID,
	)

	reviews, err := s.Reviews.ListByArticle(ctx, articleID)
	if err != nil {
		s.Logger.WarnContext(ctx, "could not list reviewers to notify", "article_id", articleID, "error", err)
	}
	for _, review := range reviews {
		if review.Reviewer == nil {
			continue
		}
		s.dispatch(ctx, notify.Notification{
			Type:           notify.EventResubmitted,
			ArticleID:      article.ID,
			ArticleTitle:   article.Title,
			Status:         next,
			RecipientID:    review.ReviewerID,
			RecipientEmail: review.Reviewer.Email,
		})
	}

	updated, err := s.Articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return s.withURL(updated), nil
}

// ListAssignments returns the actor's review rows. With pendingOnly, rows whose
// article can no longer take a review are skipped.
func (s *reviewService) ListAssignments(ctx context.Context, actor models.Actor, pendingOnly bool) ([]models.Review, error) {
	if actor.ID == "" {
		return nil, models.NewForbiddenError("authentication required")
	}
	reviews, err := s.Reviews.ListByReviewer(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	result := make([]models.Review, 0, len(reviews))
	for _, review := range reviews {
		if review.Article == nil {
			continue
		}
		if pendingOnly && !workflow.Allowed(review.Article.Status, workflow.OpSubmitReview) {
			continue
		}
		s.withURL(review.Article)
		result = append(result, review)
	}
	return result, nil
}
