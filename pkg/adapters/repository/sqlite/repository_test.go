package sqlite

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/studio-cms/pkg/apperr"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	repo, err := NewSQLiteRepository(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func createItems(t *testing.T, repo *SQLiteRepository, collection string, titles ...string) []string {
	t.Helper()
	ids := make([]string, len(titles))
	for i, title := range titles {
		id, err := repo.CreateItem(context.Background(), collection, i, domain.Payload{Title: title})
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}

func titles(items []domain.OrderedItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Payload.Title
	}
	return out
}

func TestCreateAndFetch(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	createItems(t, repo, "stills", "one", "two", "three")
	createItems(t, repo, "motions", "reel")

	items, err := repo.FetchCollection(ctx, "stills")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, titles(items))
	assert.Equal(t, 2, items[2].Sequence)

	empty, err := repo.FetchCollection(ctx, "clients")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPayloadRoundTripKeepsCreditsOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	payload := domain.Payload{
		Title:    "Campaign",
		ImageURL: "http://localhost/media/a.jpg",
		Credits: domain.Annotations{
			{Key: "Director", Value: "Jane", Visible: true},
			{Key: "Agency", Value: "Acme", Visible: false},
		},
	}
	_, err := repo.CreateItem(ctx, "stills", 0, payload)
	require.NoError(t, err)

	items, err := repo.FetchCollection(ctx, "stills")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, payload, items[0].Payload)
}

func TestBatchUpdateSequences(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	ids := createItems(t, repo, "hero_banners", "h1", "h2", "h3", "h4")

	err := repo.BatchUpdateSequences(ctx, "hero_banners", []domain.SequenceUpdate{
		{ID: ids[3], Sequence: 0},
		{ID: ids[0], Sequence: 1},
		{ID: ids[1], Sequence: 2},
		{ID: ids[2], Sequence: 3},
	})
	require.NoError(t, err)

	items, err := repo.FetchCollection(ctx, "hero_banners")
	require.NoError(t, err)
	assert.Equal(t, []string{"h4", "h1", "h2", "h3"}, titles(items))
}

func TestBatchUpdateSequencesIsAtomic(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	ids := createItems(t, repo, "stills", "a", "b")

	err := repo.BatchUpdateSequences(ctx, "stills", []domain.SequenceUpdate{
		{ID: ids[1], Sequence: 0},
		{ID: "deleted-elsewhere", Sequence: 1},
		{ID: ids[0], Sequence: 2},
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	items, err := repo.FetchCollection(ctx, "stills")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(items))
	assert.Equal(t, 0, items[0].Sequence)
	assert.Equal(t, 1, items[1].Sequence)
}

func TestBatchUpdateIgnoresOtherCollections(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	stillIDs := createItems(t, repo, "stills", "a")

	err := repo.BatchUpdateSequences(ctx, "motions", []domain.SequenceUpdate{{ID: stillIDs[0], Sequence: 5}})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestDeleteItemIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	ids := createItems(t, repo, "clients", "x", "y")

	require.NoError(t, repo.DeleteItem(ctx, "clients", ids[0]))
	require.NoError(t, repo.DeleteItem(ctx, "clients", ids[0]))

	items, err := repo.FetchCollection(ctx, "clients")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, titles(items))
}

func TestUpdatePayload(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	ids := createItems(t, repo, "locations", "studio")

	require.NoError(t, repo.UpdatePayload(ctx, "locations", ids[0], domain.Payload{Title: "warehouse"}))
	items, err := repo.FetchCollection(ctx, "locations")
	require.NoError(t, err)
	assert.Equal(t, "warehouse", items[0].Payload.Title)

	err = repo.UpdatePayload(ctx, "locations", "missing", domain.Payload{})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestDumpAndRestore(t *testing.T) {
	source := newTestRepository(t)
	ctx := context.Background()
	createItems(t, source, "stills", "a", "b")
	createItems(t, source, "motions", "m")

	docs, err := source.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "motions", docs[0].Collection)

	target, err := NewSQLiteRepository("file:TestDumpAndRestore_target?mode=memory&cache=shared")
	require.NoError(t, err)
	defer target.Close()

	n, err := target.Restore(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// restoring twice updates in place
	n, err = target.Restore(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	restored, err := target.Dump(ctx)
	require.NoError(t, err)
	assert.Equal(t, docs, restored)

	_, err = target.Restore(ctx, []domain.Document{{Collection: "stills"}})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}
