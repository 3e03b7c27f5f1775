package services

import (
	"context"
	"log/slog"
	"time"

	"research-review-portal/metrics"
	"research-review-portal/models"
	"research-review-portal/notify"
	"research-review-portal/repositories"
	"research-review-portal/storage"
	"research-review-portal/workflow"
)

const viewIncrementTimeout = 5 * time.Second

// Dependencies are the shared handles every service is built from. They are
// opened once by the host process and passed in explicitly.
type Dependencies struct {
	Tx       repositories.Transactor
	Users    repositories.UserRepository
	Articles repositories.ArticleRepository
	Reviews  repositories.ReviewRepository
	Blobs    storage.BlobStore
	Notifier notify.Notifier
	Logger   *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
	// Async runs best-effort background work. It defaults to starting a goroutine.
	Async func(func())

	// AllowPlaceholderAuthors creates a bare user row when an upload names an
	// author the store does not know yet.
	AllowPlaceholderAuthors bool
	SearchPageSize          int
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Async == nil {
		d.Async = func(f func()) { go f() }
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.SearchPageSize <= 0 {
		d.SearchPageSize = 9
	}
	return d
}

// reject records a refused workflow operation and returns err unchanged.
func reject(op workflow.Operation, err error) error {
	if err != nil {
		metrics.RecordRejection(string(op), string(models.KindOf(err)))
	}
	return err
}

// dispatch sends n and swallows any failure.
func (d Dependencies) dispatch(ctx context.Context, n notify.Notification) {
	if n.RecipientEmail == "" {
		return
	}
	n.OccurredAt = d.Now().UTC()
	if err := d.Notifier.Notify(ctx, n); err != nil {
		metrics.RecordNotification(string(n.Type), "failed")
		d.Logger.WarnContext(ctx, "notification dispatch failed",
			"type", n.Type,
			"article_id", n.ArticleID,
			"recipient_id", n.RecipientID,
			"error", err,
		)
		return
	}
	metrics.RecordNotification(string(n.Type), "sent")
}

// storeUpload checks that upload is a PDF and writes it to the blob store.
func (d Dependencies) storeUpload(ctx context.Context, upload *models.Upload) (string, error) {
	content, ok := storage.SniffPDF(upload.Content)
	if !ok {
		return "", models.NewValidationError("file", "must be a PDF document")
	}
	key, err := d.Blobs.Put(ctx, upload.Filename, content)
	if err != nil {
		return "", models.NewDependencyError("store pdf", err)
	}
	return key, nil
}

func (d Dependencies) withURL(article *models.Article) *models.Article {
	if article != nil {
		article.PDFURL = d.Blobs.URL(article.PDFPath)
	}
	return article
}

func (d Dependencies) withURLs(articles []models.Article) []models.Article {
	for i := range articles {
		d.withURL(&articles[i])
	}
	return articles
}

// logOrphanedBlob records a blob written for an update that did not commit.
func (d Dependencies) logOrphanedBlob(ctx context.Context, articleID uint, key string, err error) {
	if key == "" {
		return
	}
	d.Logger.ErrorContext(ctx, "article update failed after blob write, blob left for reconciliation",
		"article_id", articleID,
		"blob_key", key,
		"error", err,
	)
}
