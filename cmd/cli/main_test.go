package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/studio-cms/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
)

func newRepo(t *testing.T, name string) *sqlite.SQLiteRepository {
	t.Helper()
	repo, err := sqlite.NewSQLiteRepository(fmt.Sprintf("file:cli_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestCheckAndRenumber(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, "renumber")

	for _, seq := range []int{0, 5, 9} {
		_, err := repo.CreateItem(ctx, "stills", seq, domain.Payload{Title: fmt.Sprintf("still %d", seq)})
		require.NoError(t, err)
	}
	_, err := repo.CreateItem(ctx, "clients", 0, domain.Payload{Title: "Acme"})
	require.NoError(t, err)

	names := []string{"stills", "clients"}
	var out bytes.Buffer
	err = runCheck(ctx, repo, names, &out)
	assert.ErrorIs(t, err, errSparse)
	assert.Contains(t, out.String(), "sparse")

	fixed, err := runRenumber(ctx, repo, names, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"stills"}, fixed)
	assert.ErrorIs(t, runCheck(ctx, repo, names, &bytes.Buffer{}), errSparse)

	fixed, err = runRenumber(ctx, repo, names, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"stills"}, fixed)

	out.Reset()
	require.NoError(t, runCheck(ctx, repo, names, &out))
	assert.NotContains(t, out.String(), "sparse")

	items, err := repo.FetchCollection(ctx, "stills")
	require.NoError(t, err)
	for i, item := range items {
		assert.Equal(t, i, item.Sequence)
	}
	assert.Equal(t, "still 9", items[2].Payload.Title)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newRepo(t, "export_src")
	dst := newRepo(t, "export_dst")

	_, err := src.CreateItem(ctx, "motions", 0, domain.Payload{
		Title:   "Reel",
		Credits: domain.Annotations{{Key: "Director", Value: "Jane", Visible: true}},
	})
	require.NoError(t, err)
	_, err = src.CreateItem(ctx, "motions", 1, domain.Payload{Title: "Teaser"})
	require.NoError(t, err)

	var dump bytes.Buffer
	require.NoError(t, runExport(ctx, src, &dump))

	n, err := runImport(ctx, dst, bytes.NewReader(dump.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want, err := src.FetchCollection(ctx, "motions")
	require.NoError(t, err)
	got, err := dst.FetchCollection(ctx, "motions")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// importing twice upserts instead of duplicating
	_, err = runImport(ctx, dst, bytes.NewReader(dump.Bytes()))
	require.NoError(t, err)
	got, err = dst.FetchCollection(ctx, "motions")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestImportRejectsGarbage(t *testing.T) {
	repo := newRepo(t, "garbage")
	_, err := runImport(context.Background(), repo, bytes.NewReader([]byte("not json")))
	assert.Error(t, err)
}
