package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"research-review-portal/models"
)

type ReviewRepository interface {
	// Assign creates an empty review row for the pair unless one already exists.
	Assign(ctx context.Context, articleID uint, reviewerID string) error
	Get(ctx context.Context, articleID uint, reviewerID string) (*models.Review, error)
	IsAssigned(ctx context.Context, articleID uint, reviewerID string) (bool, error)
	// Upsert writes comments for the (article, reviewer) pair, updating an existing row in place.
	Upsert(ctx context.Context, review *models.Review) error
	ListByArticle(ctx context.Context, articleID uint) ([]models.Review, error)
	ListByReviewer(ctx context.Context, reviewerID string) ([]models.Review, error)
	DeleteByReviewer(ctx context.Context, reviewerID string) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

var reviewConflictColumns = []clause.Column{{Name: "article_id"}, {Name: "reviewer_id"}}

func (r *reviewRepository) Assign(ctx context.Context, articleID uint, reviewerID string) error {
	review := &models.Review{ArticleID: articleID, ReviewerID: reviewerID}
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   reviewConflictColumns,
		DoNothing: true,
	}).Create(review).Error
	return storeError("assign reviewer", err)
}

func (r *reviewRepository) Get(ctx context.Context, articleID uint, reviewerID string) (*models.Review, error) {
	var review models.Review
	err := conn(ctx, r.db).Preload("Reviewer").
		Where("article_id = ? AND reviewer_id = ?", articleID, reviewerID).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("review", reviewerID)
	}
	if err != nil {
		return nil, models.NewDependencyError("get review", err)
	}
	return &review, nil
}

func (r *reviewRepository) IsAssigned(ctx context.Context, articleID uint, reviewerID string) (bool, error) {
	if reviewerID == "" {
		return false, nil
	}
	var count int64
	err := conn(ctx, r.db).Model(&models.Review{}).
		Where("article_id = ? AND reviewer_id = ?", articleID, reviewerID).
		Count(&count).Error
	if err != nil {
		return false, models.NewDependencyError("check review assignment", err)
	}
	return count > 0, nil
}

// A review without comments keeps the comments already stored for the pair.
func (r *reviewRepository) Upsert(ctx context.Context, review *models.Review) error {
	columns := []string{"updated_at"}
	if review.Comments != nil {
		columns = append(columns, "comments")
	}
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   reviewConflictColumns,
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(review).Error
	return storeError("save review", err)
}

func (r *reviewRepository) ListByArticle(ctx context.Context, articleID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := conn(ctx, r.db).Preload("Reviewer").
		Where("article_id = ?", articleID).
		Order("id").
		Find(&reviews).Error
	if err != nil {
		return nil, models.NewDependencyError("list article reviews", err)
	}
	return reviews, nil
}

func (r *reviewRepository) ListByReviewer(ctx context.Context, reviewerID string) ([]models.Review, error) {
	var reviews []models.Review
	err := conn(ctx, r.db).Preload("Article").
		Preload("Article.Author").
		Preload("Article.Keywords", orderByID).
		Where("reviewer_id = ?", reviewerID).
		Order("updated_at desc, id desc").
		Find(&reviews).Error
	if err != nil {
		return nil, models.NewDependencyError("list reviewer assignments", err)
	}
	return reviews, nil
}

func (r *reviewRepository) DeleteByReviewer(ctx context.Context, reviewerID string) error {
	err := conn(ctx, r.db).Where("reviewer_id = ?", reviewerID).Delete(&models.Review{}).Error
	if err != nil {
		return models.NewDependencyError("delete reviewer reviews", err)
	}
	return nil
}
