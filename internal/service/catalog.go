package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
)

// Searcher is a full-text product index. *search.Client satisfies it.
type Searcher interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q string, offset, limit int) (int64, []uuid.UUID, error)
}

type CatalogService struct {
	Store  Store
	Search Searcher
	Events EventPublisher
	Log    *slog.Logger
}

func NewCatalogService(store Store, search Searcher, events EventPublisher, log *slog.Logger) *CatalogService {
	return &CatalogService{Store: store, Search: search, Events: events, Log: logger(log)}
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Category    string
	Featured    bool
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Store.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return p, err
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	return s.Store.ListProducts(ctx, f, offset, limit)
}

// SearchProducts asks the index when there is one and falls back to a
// substring match in the database when there is not or it fails.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	if s.Search == nil {
		return s.Store.SearchProducts(ctx, q, offset, limit)
	}

	total, ids, err := s.Search.Search(ctx, q, offset, limit)
	if err != nil {
		s.Log.Warn("search_index_error", "query", q, "error", err.Error())
		return s.Store.SearchProducts(ctx, q, offset, limit)
	}
	found, err := s.Store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return 0, nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	// keep relevance order; ids deleted since indexing are skipped
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return total, out, nil
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Image:       in.Image,
		Category:    strings.TrimSpace(in.Category),
		Featured:    in.Featured,
	}
	if err := s.Store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.indexed(ctx, "product_created", *p)
	return p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uuid.UUID, patch repo.ProductPatch) (*models.Product, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	p, err := s.Store.PatchProduct(ctx, id, patch)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	s.indexed(ctx, "product_updated", *p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.Store.DeleteProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	if s.Search != nil {
		if err := s.Search.DeleteProduct(ctx, id); err != nil {
			s.Log.Warn("search_unindex_error", "product_id", id.String(), "error", err.Error())
		}
	}
	publish(ctx, s.Events, s.Log, mykafka.TopicProductEvents, id.String(), map[string]any{
		"type":       "product_deleted",
		"product_id": id.String(),
	})
	return nil
}

func (s *CatalogService) indexed(ctx context.Context, event string, p models.Product) {
	if s.Search != nil {
		if err := s.Search.IndexProduct(ctx, p); err != nil {
			s.Log.Warn("search_index_error", "product_id", p.ID.String(), "error", err.Error())
		}
	}
	publish(ctx, s.Events, s.Log, mykafka.TopicProductEvents, p.ID.String(), map[string]any{
		"type":       event,
		"product_id": p.ID.String(),
		"name":       p.Name,
		"price":      p.Price.StringFixed(2),
		"category":   p.Category,
	})
}
