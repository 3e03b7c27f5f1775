package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"research-review-portal/models"
	"research-review-portal/search"
)

// featuredLockKey identifies the PostgreSQL advisory lock serialising featured toggles.
const featuredLockKey = 7_446_001

type ArticleListParams struct {
	AuthorID string
	Status   models.ArticleStatus
	Limit    int
	Offset   int
}

type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id uint) (*models.Article, error)
	GetDetail(ctx context.Context, id uint) (*models.Article, error)
	List(ctx context.Context, params ArticleListParams) ([]models.Article, int64, error)
	Search(ctx context.Context, where string, vars []any, limit, offset int) ([]models.Article, int64, error)
	ListFeatured(ctx context.Context) ([]models.Article, error)
	// UpdateVersioned applies updates only if the row still carries version, and bumps it.
	UpdateVersioned(ctx context.Context, id uint, version int64, updates map[string]any) error
	CountFeatured(ctx context.Context) (int64, error)
	// LockFeatured serialises featured toggles for the rest of the current transaction.
	LockFeatured(ctx context.Context) error
	IncrementViews(ctx context.Context, id uint) error
	IDsByAuthor(ctx context.Context, authorID string) ([]uint, error)
	// Delete removes the article's reviews, then its keywords, then the article.
	Delete(ctx context.Context, id uint) error
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	return storeError("create article", conn(ctx, r.db).Create(article).Error)
}

func (r *articleRepository) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := conn(ctx, r.db).Preload("Author").
		Preload("Keywords", orderByID).
		First(&article, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("article", id)
	}
	if err != nil {
		return nil, models.NewDependencyError("get article", err)
	}
	return &article, nil
}

func (r *articleRepository) GetDetail(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := conn(ctx, r.db).Preload("Author").
		Preload("Keywords", orderByID).
		Preload("Reviews", orderByID).
		Preload("Reviews.Reviewer").
		First(&article, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("article", id)
	}
	if err != nil {
		return nil, models.NewDependencyError("get article", err)
	}
	return &article, nil
}

func (r *articleRepository) List(ctx context.Context, params ArticleListParams) ([]models.Article, int64, error) {
	var (
		articles []models.Article
		total    int64
	)

	query := conn(ctx, r.db).Model(&models.Article{})
	if params.AuthorID != "" {
		query = query.Where("author_id = ?", params.AuthorID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", string(params.Status))
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewDependencyError("count articles", err)
	}

	err := query.Preload("Author").Preload("Keywords", orderByID).
		Order("created_at desc, id desc").
		Offset(params.Offset).Limit(params.Limit).
		Find(&articles).Error
	if err != nil {
		return nil, 0, models.NewDependencyError("list articles", err)
	}
	return articles, total, nil
}

func (r *articleRepository) Search(ctx context.Context, where string, vars []any, limit, offset int) ([]models.Article, int64, error) {
	var (
		articles []models.Article
		total    int64
	)

	query := conn(ctx, r.db).Model(&models.Article{}).Where(where, vars...).Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewDependencyError("count search results", err)
	}

	err := query.Preload("Author").Preload("Keywords", orderByID).
		Order(search.OrderBy).
		Offset(offset).Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, 0, models.NewDependencyError("search articles", err)
	}
	return articles, total, nil
}

func (r *articleRepository) ListFeatured(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	err := conn(ctx, r.db).Preload("Author").Preload("Keywords", orderByID).
		Where("featured = ?", true).
		Order("created_at desc, id desc").
		Find(&articles).Error
	if err != nil {
		return nil, models.NewDependencyError("list featured articles", err)
	}
	return articles, nil
}

func (r *articleRepository) UpdateVersioned(ctx context.Context, id uint, version int64, updates map[string]any) error {
	changes := make(map[string]any, len(updates)+1)
	for column, value := range updates {
		changes[column] = value
	}
	changes["version"] = gorm.Expr("version + 1")

	db := conn(ctx, r.db)
	result := db.Model(&models.Article{}).Where("id = ? AND version = ?", id, version).Updates(changes)
	if result.Error != nil {
		return storeError("update article", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.Article{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return models.NewDependencyError("update article", err)
	}
	if count == 0 {
		return models.NewNotFoundError("article", id)
	}
	return models.NewConflictError("article %d was modified concurrently, reload and retry", id)
}

func (r *articleRepository) CountFeatured(ctx context.Context) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Article{}).Where("featured = ?", true).Count(&count).Error
	if err != nil {
		return 0, models.NewDependencyError("count featured articles", err)
	}
	return count, nil
}

func (r *articleRepository) LockFeatured(ctx context.Context) error {
	db := conn(ctx, r.db)
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec("SELECT pg_advisory_xact_lock(?)", featuredLockKey).Error; err != nil {
		return models.NewDependencyError("lock featured articles", err)
	}
	return nil
}

func (r *articleRepository) IncrementViews(ctx context.Context, id uint) error {
	result := conn(ctx, r.db).Model(&models.Article{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return models.NewDependencyError("increment views", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("article", id)
	}
	return nil
}

func (r *articleRepository) IDsByAuthor(ctx context.Context, authorID string) ([]uint, error) {
	var ids []uint
	err := conn(ctx, r.db).Model(&models.Article{}).Where("author_id = ?", authorID).
		Order("id").Pluck("id", &ids).Error
	if err != nil {
		return nil, models.NewDependencyError("list author articles", err)
	}
	return ids, nil
}

func (r *articleRepository) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return models.NewDependencyError("delete article reviews", err)
		}
		if err := tx.Where("article_id = ?", id).Delete(&models.Keyword{}).Error; err != nil {
			return models.NewDependencyError("delete article keywords", err)
		}
		result := tx.Delete(&models.Article{}, id)
		if result.Error != nil {
			return storeError("delete article", result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("article", id)
		}
		return nil
	})
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}
