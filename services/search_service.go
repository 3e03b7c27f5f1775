package services

import (
	"context"

	"research-review-portal/models"
	"research-review-portal/search"
	"research-review-portal/workflow"
)

// SearchResult is one page of matching articles.
type SearchResult struct {
	Articles []models.Article `json:"articles"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

type SearchService interface {
	Search(ctx context.Context, actor models.Actor, params models.SearchParams) (*SearchResult, error)
}

type searchService struct {
	Dependencies
	builder *search.Builder
}

func NewSearchService(deps Dependencies) SearchService {
	deps = deps.withDefaults()
	return &searchService{
		Dependencies: deps,
		builder:      search.NewBuilder(deps.Now),
	}
}

func (s *searchService) Search(ctx context.Context, actor models.Actor, params models.SearchParams) (*SearchResult, error) {
	query, err := s.builder.Build(params)
	if err != nil {
		return nil, err
	}
	// Only staff may search outside the published catalogue.
	if query.Status != models.StatusApproved {
		if err := workflow.Authorize(actor, workflow.OpSearchAll, workflow.Resource{}); err != nil {
			return nil, reject(workflow.OpSearchAll, err)
		}
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	where, vars := s.builder.Where(query)
	articles, total, err := s.Articles.Search(ctx, where, vars, s.SearchPageSize, (page-1)*s.SearchPageSize)
	if err != nil {
		return nil, err
	}
	return &SearchResult{
		Articles: s.withURLs(articles),
		Total:    total,
		Page:     page,
		PageSize: s.SearchPageSize,
	}, nil
}
