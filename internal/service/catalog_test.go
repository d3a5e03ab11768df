package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
)

type fakeSearcher struct {
	indexed map[uuid.UUID]models.Product
	deleted []uuid.UUID
	hits    []uuid.UUID
	err     error
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{indexed: make(map[uuid.UUID]models.Product)}
}

func (f *fakeSearcher) IndexProduct(_ context.Context, p models.Product) error {
	f.indexed[p.ID] = p
	return nil
}

func (f *fakeSearcher) DeleteProduct(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSearcher) Search(context.Context, string, int, int) (int64, []uuid.UUID, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return int64(len(f.hits)), f.hits, nil
}

func TestCatalog_CreatePatchDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	search := newFakeSearcher()
	events := &recordingPublisher{}
	svc := NewCatalogService(newRepo(t), search, events, nil)

	p, err := svc.CreateProduct(ctx, ProductInput{Name: " Lamp ", Price: dec("19.999"), Category: "home", Featured: true})
	require.NoError(t, err)
	assert.Equal(t, "Lamp", p.Name)
	assert.Equal(t, "20.00", p.Price.StringFixed(2))
	assert.Contains(t, search.indexed, p.ID)

	name := "Desk Lamp"
	patched, err := svc.PatchProduct(ctx, p.ID, repo.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", patched.Name)
	assert.Equal(t, "Desk Lamp", search.indexed[p.ID].Name)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	assert.Equal(t, []uuid.UUID{p.ID}, search.deleted)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, p.ID), ErrNotFound)

	_, err = svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"product_created", "product_updated", "product_deleted"}, events.types())
	for _, e := range events.events {
		assert.Equal(t, mykafka.TopicProductEvents, e.Topic)
	}
}

func TestCatalog_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewCatalogService(newRepo(t), nil, nil, nil)

	_, err := svc.CreateProduct(ctx, ProductInput{Name: "  ", Price: dec("1")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateProduct(ctx, ProductInput{Name: "x", Price: dec("-1")})
	assert.ErrorIs(t, err, ErrValidation)

	neg := dec("-2")
	_, err = svc.PatchProduct(ctx, uuid.New(), repo.ProductPatch{Price: &neg})
	assert.ErrorIs(t, err, ErrValidation)

	name := "ok"
	_, err = svc.PatchProduct(ctx, uuid.New(), repo.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = svc.SearchProducts(ctx, " ", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalog_SearchUsesIndexOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	a := seedProduct(t, r, "Alpha", "1.00")
	b := seedProduct(t, r, "Beta", "2.00")

	search := newFakeSearcher()
	search.hits = []uuid.UUID{b.ID, uuid.New(), a.ID}
	svc := NewCatalogService(r, search, nil, nil)

	total, found, err := svc.SearchProducts(ctx, "whatever", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, found, 2)
	assert.Equal(t, b.ID, found[0].ID)
	assert.Equal(t, a.ID, found[1].ID)
}

func TestCatalog_SearchFallsBackToDatabase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	seedProduct(t, r, "Blue Mug", "1.00")
	seedProduct(t, r, "Lamp", "2.00")

	for name, search := range map[string]Searcher{
		"no index":     nil,
		"index failed": &fakeSearcher{err: errors.New("es down")},
	} {
		total, found, err := NewCatalogService(r, search, nil, nil).SearchProducts(ctx, "mug", 0, 10)
		require.NoError(t, err, name)
		assert.EqualValues(t, 1, total, name)
		require.Len(t, found, 1, name)
		assert.Equal(t, "Blue Mug", found[0].Name)
	}
}
