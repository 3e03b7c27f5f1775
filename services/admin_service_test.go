package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-review-portal/models"
)

func TestDeleteArticlesCascade(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	article := f.create(t, author, "To remove", "obsolete")
	_, err := f.reviews.AssignReviewer(ctx, editor, article.ID, reviewer.ID)
	require.NoError(t, err)
	kept := f.create(t, author, "To keep")

	report, err := f.admin.Delete(ctx, admin, models.DeleteRequest{ArticleIDs: []uint{article.ID, article.ID}})
	require.NoError(t, err)
	assert.Equal(t, []uint{article.ID}, report.DeletedArticleIDs)
	assert.Empty(t, report.Failures)

	for _, model := range []any{&models.Review{}, &models.Keyword{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Where("article_id = ?", article.ID).Count(&count).Error)
		assert.Zero(t, count)
	}
	_, err = f.articles.GetArticle(ctx, admin, article.ID)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
	_, err = f.articles.GetArticle(ctx, admin, kept.ID)
	assert.NoError(t, err)
}

func TestDeletePartialFailure(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	article := f.create(t, author, "Present")

	report, err := f.admin.Delete(ctx, admin, models.DeleteRequest{ArticleIDs: []uint{9999, article.ID}})
	require.Error(t, err)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
	assert.Contains(t, err.Error(), "article 9999")
	require.NotNil(t, report)
	assert.Equal(t, []uint{article.ID}, report.DeletedArticleIDs)
	require.Len(t, report.Failures, 1)
	assert.EqualValues(t, 9999, report.Failures[0].ArticleID)
	assert.Equal(t, models.KindNotFound, report.Failures[0].Kind)
}

func TestDeleteUsers(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	owned := f.create(t, author, "Owned")
	f.create(t, reviewer, "Reviewer's own paper")
	_, err := f.reviews.AssignReviewer(ctx, editor, owned.ID, reviewer.ID)
	require.NoError(t, err)

	// Owners of articles are only removed when the cascade is requested.
	report, err := f.admin.Delete(ctx, admin, models.DeleteRequest{Emails: []string{author.Email, "ghost@uni.edu"}})
	require.Error(t, err)
	assert.Equal(t, models.KindConflict, models.KindOf(err))
	assert.Equal(t, []string{"ghost@uni.edu"}, report.UnknownEmails)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, author.ID, report.Failures[0].UserID)
	assert.Equal(t, models.KindConflict, report.Failures[0].Kind)

	report, err = f.admin.Delete(ctx, admin, models.DeleteRequest{
		Emails:             []string{reviewer.Email},
		DeleteUserArticles: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{reviewer.ID}, report.DeletedUserIDs)
	assert.Len(t, report.DeletedArticleIDs, 1)

	// The reviewer's assignment on someone else's article went with them.
	detail, err := f.articles.GetArticle(ctx, editor, owned.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Reviews)
	_, err = f.users.GetProfile(ctx, reviewer)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
}

func TestDeleteRejections(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	article := f.create(t, author, "Guarded")

	_, err := f.admin.Delete(ctx, editor, models.DeleteRequest{ArticleIDs: []uint{article.ID}})
	assert.Equal(t, models.KindForbidden, models.KindOf(err))

	_, err = f.admin.Delete(ctx, admin, models.DeleteRequest{})
	assert.Equal(t, models.KindValidation, models.KindOf(err))

	_, err = f.articles.GetArticle(ctx, editor, article.ID)
	assert.NoError(t, err)
}

func TestDeleteMixedFailuresReportDependency(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	f.create(t, author, "Still owned")

	report, err := f.admin.Delete(ctx, admin, models.DeleteRequest{
		ArticleIDs: []uint{9999},
		Emails:     []string{author.Email},
	})
	require.Error(t, err)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, models.KindDependency, models.KindOf(err))
}
