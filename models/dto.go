package models

import (
	"io"
	"mime/multipart"
)

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required,min=1,max=100"`
	LastName  string `json:"lastName" binding:"required,min=1,max=100"`
}

type ChangeRoleRequest struct {
	Role UserRole `json:"role" binding:"required,oneof=Author Editor Reviewer Admin"`
}

// CreateArticleRequest is bound from either a JSON body (pdfReference set) or a
// multipart form (File set).
type CreateArticleRequest struct {
	Title        string      `json:"title" form:"title" binding:"required,min=1,max=255"`
	Type         ArticleType `json:"type" form:"type" binding:"required,oneof=Article Journal Poster Paper"`
	AuthorID     string      `json:"authorId" form:"authorId"`
	PDFReference string      `json:"pdfReference" form:"pdfReference"`
	Keywords     []string    `json:"keywords" form:"-"`
	KeywordsRaw  string      `json:"-" form:"keywords"`

	File *multipart.FileHeader `json:"-" form:"file"`
}

type AssignReviewerRequest struct {
	ReviewerID string `json:"reviewerId" binding:"required"`
}

type SubmitReviewRequest struct {
	ReviewerID string        `form:"reviewerId" binding:"required"`
	Comments   string        `form:"comments"`
	Status     ArticleStatus `form:"status" binding:"required,oneof=Reviewed Approved Declined"`

	File *multipart.FileHeader `form:"file"`
}

type ResubmitRequest struct {
	Status ArticleStatus `form:"status"`

	File *multipart.FileHeader `form:"file"`
}

type SetFeaturedRequest struct {
	ArticleID uint  `json:"articleId" binding:"required"`
	Featured  *bool `json:"featured" binding:"required"`
}

type DeleteRequest struct {
	ArticleIDs         []uint   `json:"articleIds"`
	Emails             []string `json:"emails" binding:"omitempty,dive,email"`
	DeleteUserArticles bool     `json:"deleteUserArticles"`
}

// DeleteFailure records one entity a bulk delete could not remove.
type DeleteFailure struct {
	ArticleID uint      `json:"article_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
}

type DeleteReport struct {
	DeletedArticleIDs []uint          `json:"deleted_article_ids"`
	DeletedUserIDs    []string        `json:"deleted_user_ids"`
	UnknownEmails     []string        `json:"unknown_emails,omitempty"`
	Failures          []DeleteFailure `json:"failures,omitempty"`
}

func (r *DeleteReport) Success() bool {
	return len(r.Failures) == 0
}

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

type ArticleListParams struct {
	Status string `form:"status"`
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=10"`
}

// Normalized returns p with page at least 1 and limit within [1, MaxListLimit].
func (p ArticleListParams) Normalized() ArticleListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultListLimit
	}
	if p.Limit > MaxListLimit {
		p.Limit = MaxListLimit
	}
	return p
}

type SearchParams struct {
	Search   string `form:"search"`
	Status   string `form:"status"`
	Type     string `form:"type"`
	Year     string `form:"year"`
	Operator string `form:"operator"`
	Syntax   string `form:"syntax"`
	Page     int    `form:"page,default=1"`
}

type ReviewSubmission struct {
	Review  *Review  `json:"review"`
	Article *Article `json:"article"`
}

// Upload is a PDF supplied with a request.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}
