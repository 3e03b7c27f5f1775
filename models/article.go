package models

import (
	"time"
)

type ArticleStatus string

const (
	StatusSent        ArticleStatus = "Sent"
	StatusUnderReview ArticleStatus = "Under_Review"
	StatusReviewed    ArticleStatus = "Reviewed"
	StatusDeclined    ArticleStatus = "Declined"
	StatusApproved    ArticleStatus = "Approved"
)

// Statuses lists every status an article can hold.
var Statuses = []ArticleStatus{StatusSent, StatusUnderReview, StatusReviewed, StatusDeclined, StatusApproved}

func (s ArticleStatus) Valid() bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

type ArticleType string

const (
	TypeArticle ArticleType = "Article"
	TypeJournal ArticleType = "Journal"
	TypePoster  ArticleType = "Poster"
	TypePaper   ArticleType = "Paper"
)

var ArticleTypes = []ArticleType{TypeArticle, TypeJournal, TypePoster, TypePaper}

func (t ArticleType) Valid() bool {
	for _, articleType := range ArticleTypes {
		if t == articleType {
			return true
		}
	}
	return false
}

// MaxFeatured is the number of articles that may be featured at the same time.
const MaxFeatured = 6

type Article struct {
	ID        uint          `json:"id" gorm:"primarykey"`
	Title     string        `json:"title" gorm:"not null"`
	Type      ArticleType   `json:"type" gorm:"size:16;not null;default:'Article'"`
	AuthorID  string        `json:"author_id" gorm:"size:128;not null;index"`
	Author    User          `json:"author" gorm:"foreignKey:AuthorID"`
	PDFPath   string        `json:"pdf_path" gorm:"column:pdf_path"`
	PDFURL    string        `json:"pdf_url,omitempty" gorm:"-"`
	Status    ArticleStatus `json:"status" gorm:"size:16;not null;default:'Sent';index"`
	Views     int64         `json:"views" gorm:"not null;default:0"`
	Featured  bool          `json:"featured" gorm:"not null;default:false;index"`
	Version   int64         `json:"version" gorm:"not null;default:1"`
	Keywords  []Keyword     `json:"keywords" gorm:"foreignKey:ArticleID"`
	Reviews   []Review      `json:"reviews,omitempty" gorm:"foreignKey:ArticleID"`
	CreatedAt time.Time     `json:"created_at" gorm:"index"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// KeywordList returns the keyword strings in insertion order.
func (a *Article) KeywordList() []string {
	keywords := make([]string, 0, len(a.Keywords))
	for _, k := range a.Keywords {
		keywords = append(keywords, k.Keyword)
	}
	return keywords
}
