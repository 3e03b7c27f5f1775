package models

import (
	"time"
)

// Review links a reviewer to an article. The row is created on assignment with no
// comments and updated in place on every review submission by the same reviewer.
type Review struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	ArticleID  uint      `json:"article_id" gorm:"not null;uniqueIndex:idx_review_article_reviewer"`
	Article    *Article  `json:"article,omitempty" gorm:"foreignKey:ArticleID"`
	ReviewerID string    `json:"reviewer_id" gorm:"size:128;not null;uniqueIndex:idx_review_article_reviewer"`
	Reviewer   *User     `json:"reviewer,omitempty" gorm:"foreignKey:ReviewerID"`
	Comments   *string   `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
