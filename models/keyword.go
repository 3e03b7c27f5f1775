package models

// Keyword is a free-text tag on an article. Duplicates are allowed.
type Keyword struct {
	ID        uint   `json:"-" gorm:"primarykey"`
	ArticleID uint   `json:"-" gorm:"not null;index"`
	Keyword   string `json:"keyword" gorm:"not null"`
}
