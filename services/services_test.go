package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"research-review-portal/config"
	"research-review-portal/models"
	"research-review-portal/notify"
	"research-review-portal/repositories"
	"research-review-portal/storage"
)

var (
	author   = models.Actor{ID: "author-1", Email: "author@uni.edu", EmailVerified: true, Role: models.RoleAuthor}
	other    = models.Actor{ID: "author-2", Email: "other@uni.edu", EmailVerified: true, Role: models.RoleAuthor}
	editor   = models.Actor{ID: "editor-1", Email: "editor@uni.edu", EmailVerified: true, Role: models.RoleEditor}
	reviewer = models.Actor{ID: "reviewer-1", Email: "reviewer@uni.edu", EmailVerified: true, Role: models.RoleReviewer}
	admin    = models.Actor{ID: "admin-1", Email: "admin@uni.edu", EmailVerified: true, Role: models.RoleAdmin}
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	deps     Dependencies
	articles ArticleService
	reviews  ReviewService
	users    UserService
	search   SearchService
	admin    AdminService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newFixture wires every service against an in-memory database. A nil
// notifier or blob store is replaced by a working one.
func newFixture(t *testing.T, notifier notify.Notifier, blobs storage.BlobStore) *fixture {
	t.Helper()
	db, err := config.OpenDB(config.DriverSQLite, ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDB(db) })

	if notifier == nil {
		notifier = notify.NewLogNotifier(discardLogger())
	}
	if blobs == nil {
		blobs, err = storage.NewFileSystem(t.TempDir(), "/api/v1/files")
		require.NoError(t, err)
	}

	deps := Dependencies{
		Tx:                      repositories.NewTransactor(db),
		Users:                   repositories.NewUserRepository(db),
		Articles:                repositories.NewArticleRepository(db),
		Reviews:                 repositories.NewReviewRepository(db),
		Blobs:                   blobs,
		Notifier:                notifier,
		Logger:                  discardLogger(),
		Now:                     func() time.Time { return testNow },
		Async:                   func(f func()) { f() },
		AllowPlaceholderAuthors: true,
		SearchPageSize:          9,
	}
	f := &fixture{
		db:       db,
		deps:     deps,
		articles: NewArticleService(deps),
		reviews:  NewReviewService(deps),
		users:    NewUserService(deps),
		search:   NewSearchService(deps),
		admin:    NewAdminService(deps),
	}
	for _, actor := range []models.Actor{author, other, editor, reviewer, admin} {
		f.register(t, actor)
	}
	return f
}

func (f *fixture) register(t *testing.T, actor models.Actor) {
	t.Helper()
	ctx := context.Background()
	user := &models.User{ID: actor.ID, FirstName: "First", LastName: actor.ID, Email: actor.Email, Role: actor.Role}
	require.NoError(t, f.deps.Users.Upsert(ctx, user))
	require.NoError(t, f.deps.Users.UpdateRole(ctx, actor.ID, actor.Role))
}

func pdf(body string) *models.Upload {
	content := "%PDF-1.7\n" + body
	return &models.Upload{Filename: "paper.pdf", Size: int64(len(content)), Content: bytes.NewBufferString(content)}
}

func (f *fixture) create(t *testing.T, actor models.Actor, title string, keywords ...string) *models.Article {
	t.Helper()
	article, err := f.articles.CreateArticle(context.Background(), actor, models.CreateArticleRequest{
		Title:    title,
		Type:     models.TypeArticle,
		Keywords: keywords,
	}, pdf(title))
	require.NoError(t, err)
	return article
}

// approved creates an article and walks it through review to Approved.
func (f *fixture) approved(t *testing.T, title string) *models.Article {
	t.Helper()
	ctx := context.Background()
	article := f.create(t, author, title)
	_, err := f.reviews.AssignReviewer(ctx, editor, article.ID, reviewer.ID)
	require.NoError(t, err)
	submission, err := f.reviews.SubmitReview(ctx, reviewer, article.ID, models.SubmitReviewRequest{
		ReviewerID: reviewer.ID,
		Status:     models.StatusApproved,
	}, nil)
	require.NoError(t, err)
	return submission.Article
}
