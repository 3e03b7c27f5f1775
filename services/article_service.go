package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"research-review-portal/metrics"
	"research-review-portal/models"
	"research-review-portal/repositories"
	"research-review-portal/storage"
	"research-review-portal/workflow"
)

type ArticleService interface {
	CreateArticle(ctx context.Context, actor models.Actor, req models.CreateArticleRequest, upload *models.Upload) (*models.Article, error)
	// GetArticle returns the article with the reviews actor may see.
	GetArticle(ctx context.Context, actor models.Actor, id uint) (*models.Article, error)
	// GetPublicArticle returns an approved article and records a view in the background.
	GetPublicArticle(ctx context.Context, id uint) (*models.Article, error)
	ListArticles(ctx context.Context, actor models.Actor, params models.ArticleListParams) ([]models.Article, int64, error)
	ListFeatured(ctx context.Context) ([]models.Article, error)
	SetFeatured(ctx context.Context, actor models.Actor, id uint, featured bool) (*models.Article, error)
	IncrementViews(ctx context.Context, actor models.Actor, id uint) (*models.Article, error)
	OpenPDF(ctx context.Context, key string) (io.ReadCloser, error)
}

type articleService struct {
	Dependencies
}

func NewArticleService(deps Dependencies) ArticleService {
	return &articleService{Dependencies: deps.withDefaults()}
}

func (s *articleService) CreateArticle(ctx context.Context, actor models.Actor, req models.CreateArticleRequest, upload *models.Upload) (*models.Article, error) {
	article, err := s.newArticle(actor, req, upload)
	if err != nil {
		return nil, reject(workflow.OpCreate, err)
	}
	if err := workflow.Authorize(actor, workflow.OpCreate, workflow.Resource{Article: article}); err != nil {
		return nil, reject(workflow.OpCreate, err)
	}

	if upload != nil {
		key, err := s.storeUpload(ctx, upload)
		if err != nil {
			return nil, reject(workflow.OpCreate, err)
		}
		article.PDFPath = key
	}

	err = s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureAuthor(ctx, actor, article.AuthorID); err != nil {
			return err
		}
		return s.Articles.Create(ctx, article)
	})
	if err != nil {
		if upload != nil {
			s.logOrphanedBlob(ctx, article.ID, article.PDFPath, err)
		}
		return nil, reject(workflow.OpCreate, err)
	}

	metrics.RecordTransition(string(workflow.OpCreate), "", string(models.StatusSent))
	s.Logger.InfoContext(ctx, "article created",
		"article_id", article.ID,
		"author_id", article.AuthorID,
		"actor_id", actor.ID,
	)

	created, err := s.Articles.GetByID(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	return s.withURL(created), nil
}

// newArticle validates req and builds the row to insert.
func (s *articleService) newArticle(actor models.Actor, req models.CreateArticleRequest, upload *models.Upload) (*models.Article, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, models.NewValidationError("title", "is required")
	}
	if !req.Type.Valid() {
		return nil, models.NewValidationError("type", "must be one of Article, Journal, Poster, Paper")
	}

	reference := strings.TrimSpace(req.PDFReference)
	if upload == nil && reference == "" {
		return nil, models.NewValidationError("file", "a PDF file or pdfReference is required")
	}

	authorID := strings.TrimSpace(req.AuthorID)
	if authorID == "" {
		authorID = actor.ID
	}

	article := &models.Article{
		Title:    title,
		Type:     req.Type,
		AuthorID: authorID,
		Status:   models.StatusSent,
		Version:  1,
	}
	if upload == nil {
		article.PDFPath = reference
	}
	for _, keyword := range parseKeywords(req.Keywords, req.KeywordsRaw) {
		article.Keywords = append(article.Keywords, models.Keyword{Keyword: keyword})
	}
	return article, nil
}

// ensureAuthor makes sure a user row exists for authorID before an article references it.
func (s *articleService) ensureAuthor(ctx context.Context, actor models.Actor, authorID string) error {
	_, err := s.Users.GetByID(ctx, authorID)
	if err == nil {
		return nil
	}
	if models.KindOf(err) != models.KindNotFound {
		return err
	}

	user := &models.User{ID: authorID, Role: models.RoleAuthor}
	switch {
	case authorID == actor.ID && actor.Email != "":
		user.Email = actor.Email
	case s.AllowPlaceholderAuthors:
		user.Email = models.PlaceholderEmail(authorID)
		s.Logger.WarnContext(ctx, "creating placeholder author", "author_id", authorID)
	default:
		return models.NewDependencyError("resolve author", fmt.Errorf("author %q is not registered", authorID))
	}
	return s.Users.EnsureExists(ctx, user)
}

// parseKeywords merges the list and comma separated forms, dropping blanks.
// Repeated keywords are kept.
func parseKeywords(list []string, raw string) []string {
	candidates := append([]string{}, list...)
	if raw != "" {
		candidates = append(candidates, strings.Split(raw, ",")...)
	}

	keywords := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if keyword := strings.TrimSpace(c); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}

func (s *articleService) GetArticle(ctx context.Context, actor models.Actor, id uint) (*models.Article, error) {
	article, err := s.Articles.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	assigned := false
	if actor.ID != "" {
		if assigned, err = s.Reviews.IsAssigned(ctx, id, actor.ID); err != nil {
			return nil, err
		}
	}
	if err := workflow.Authorize(actor, workflow.OpView, workflow.Resource{Article: article, Assigned: assigned}); err != nil {
		return nil, reject(workflow.OpView, err)
	}

	// Reviewers only see their own review; outsiders see none.
	if !actor.IsStaff() && article.AuthorID != actor.ID {
		own := article.Reviews[:0]
		for _, review := range article.Reviews {
			if actor.ID != "" && review.ReviewerID == actor.ID {
				own = append(own, review)
			}
		}
		article.Reviews = own
	}
	return s.withURL(article), nil
}

func (s *articleService) GetPublicArticle(ctx context.Context, id uint) (*models.Article, error) {
	article, err := s.Articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.Status != models.StatusApproved {
		return nil, models.NewNotFoundError("article", id)
	}

	s.Async(func() { s.recordView(id) })
	return s.withURL(article), nil
}

// recordView bumps the view counter outside the request that triggered it.
func (s *articleService) recordView(id uint) {
	ctx, cancel := context.WithTimeout(context.Background(), viewIncrementTimeout)
	defer cancel()

	if err := s.Articles.IncrementViews(ctx, id); err != nil {
		metrics.ViewIncrementFailures.Inc()
		s.Logger.WarnContext(ctx, "view increment failed", "article_id", id, "error", err)
	}
}

func (s *articleService) ListArticles(ctx context.Context, actor models.Actor, params models.ArticleListParams) ([]models.Article, int64, error) {
	if actor.ID == "" {
		return nil, 0, models.NewForbiddenError("authentication required")
	}

	query := repositories.ArticleListParams{}
	if params.Status != "" {
		status := models.ArticleStatus(params.Status)
		if !status.Valid() {
			return nil, 0, models.NewValidationError("status", "unknown article status")
		}
		query.Status = status
	}

	// Staff see every article, everyone else only their own.
	if workflow.Authorize(actor, workflow.OpListAll, workflow.Resource{}) != nil {
		query.AuthorID = actor.ID
	}

	params = params.Normalized()
	query.Limit = params.Limit
	query.Offset = (params.Page - 1) * params.Limit

	articles, total, err := s.Articles.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return s.withURLs(articles), total, nil
}

func (s *articleService) ListFeatured(ctx context.Context) ([]models.Article, error) {
	articles, err := s.Articles.ListFeatured(ctx)
	if err != nil {
		return nil, err
	}
	return s.withURLs(articles), nil
}

func (s *articleService) SetFeatured(ctx context.Context, actor models.Actor, id uint, featured bool) (*models.Article, error) {
	if err := workflow.Authorize(actor, workflow.OpSetFeatured, workflow.Resource{}); err != nil {
		return nil, reject(workflow.OpSetFeatured, err)
	}

	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.Articles.LockFeatured(ctx); err != nil {
			return err
		}
		article, err := s.Articles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := workflow.Next(article.Status, workflow.OpSetFeatured, ""); err != nil {
			return err
		}
		if article.Featured == featured {
			return nil
		}
		if featured {
			count, err := s.Articles.CountFeatured(ctx)
			if err != nil {
				return err
			}
			if count >= models.MaxFeatured {
				return models.NewConflictError("at most %d articles can be featured", models.MaxFeatured)
			}
		}
		return s.Articles.UpdateVersioned(ctx, id, article.Version, map[string]any{"featured": featured})
	})
	if err != nil {
		return nil, reject(workflow.OpSetFeatured, err)
	}

	s.Logger.InfoContext(ctx, "article featured flag set",
		"article_id", id,
		"featured", featured,
		"actor_id", actor.ID,
	)

	article, err := s.Articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withURL(article), nil
}

func (s *articleService) IncrementViews(ctx context.Context, actor models.Actor, id uint) (*models.Article, error) {
	article, err := s.Articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	assigned := false
	if actor.ID != "" && article.Status != models.StatusApproved {
		if assigned, err = s.Reviews.IsAssigned(ctx, id, actor.ID); err != nil {
			return nil, err
		}
	}
	if err := workflow.Authorize(actor, workflow.OpView, workflow.Resource{Article: article, Assigned: assigned}); err != nil {
		// Unpublished articles are not revealed to outsiders.
		if actor.ID == "" {
			return nil, models.NewNotFoundError("article", id)
		}
		return nil, err
	}

	if err := s.Articles.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	article, err = s.Articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withURL(article), nil
}

func (s *articleService) OpenPDF(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.Blobs.Open(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, models.NewNotFoundError("file", key)
	}
	if err != nil {
		return nil, models.NewDependencyError("open pdf", err)
	}
	return r, nil
}
