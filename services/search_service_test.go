package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-review-portal/models"
)

func TestSearchPublishedCatalogue(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	f.approved(t, "Deep Learning for Proteins")
	f.approved(t, "Protein Folding Survey")
	f.create(t, author, "Protein Draft")

	result, err := f.search.Search(ctx, models.Actor{}, models.SearchParams{Search: "protein", Page: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Total)
	assert.Equal(t, 9, result.PageSize)
	for _, a := range result.Articles {
		assert.Equal(t, models.StatusApproved, a.Status)
		assert.NotEmpty(t, a.PDFURL)
	}

	result, err = f.search.Search(ctx, models.Actor{}, models.SearchParams{Search: "deep AND proteins", Syntax: "boolean"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Total)

	_, err = f.search.Search(ctx, models.Actor{}, models.SearchParams{Search: "(deep", Syntax: "boolean"})
	assert.Equal(t, models.KindValidation, models.KindOf(err))
}

func TestSearchFoldsNonASCIICase(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	f.approved(t, "Étude Urbaine")
	f.create(t, author, "Market notes", "Économie")

	for _, term := range []string{"étude", "ÉTUDE", "Étude", "urbaine"} {
		result, err := f.search.Search(ctx, models.Actor{}, models.SearchParams{Search: term})
		require.NoError(t, err)
		assert.EqualValues(t, 1, result.Total, term)
	}

	result, err := f.search.Search(ctx, editor, models.SearchParams{Search: "économie", Status: string(models.StatusSent)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Total)
}

func TestSearchOtherStatusesRequireStaff(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	f.create(t, author, "Pending work")

	_, err := f.search.Search(ctx, models.Actor{}, models.SearchParams{Status: string(models.StatusSent)})
	assert.Equal(t, models.KindForbidden, models.KindOf(err))
	_, err = f.search.Search(ctx, author, models.SearchParams{Status: string(models.StatusSent)})
	assert.Equal(t, models.KindForbidden, models.KindOf(err))

	result, err := f.search.Search(ctx, editor, models.SearchParams{Status: string(models.StatusSent)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Total)
}

func TestSearchPagination(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	for i := 0; i < 11; i++ {
		f.approved(t, fmt.Sprintf("Catalogue entry %d", i))
	}

	first, err := f.search.Search(ctx, models.Actor{}, models.SearchParams{Page: 1})
	require.NoError(t, err)
	second, err := f.search.Search(ctx, models.Actor{}, models.SearchParams{Page: 2})
	require.NoError(t, err)

	assert.EqualValues(t, 11, first.Total)
	assert.Len(t, first.Articles, 9)
	assert.Len(t, second.Articles, 2)
	assert.Equal(t, 2, second.Page)

	seen := map[uint]bool{}
	for _, a := range append(first.Articles, second.Articles...) {
		assert.False(t, seen[a.ID])
		seen[a.ID] = true
	}
}
