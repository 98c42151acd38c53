package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/forgeformula/storefront-backend/internal/repo"
	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/enums"
	pkgerrors "github.com/forgeformula/storefront-backend/pkg/errors"
	"github.com/forgeformula/storefront-backend/pkg/visibility"
)

type catalogRepository interface {
	ListCategories(ctx context.Context, brand *enums.Brand) ([]models.Category, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	FindActiveBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	ListReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
	CreateReview(ctx context.Context, review *models.Review) error
	HasPurchased(ctx context.Context, userID string, productID uuid.UUID) (bool, error)
}

// Service exposes catalog reads and product reviews.
type Service interface {
	ListCategories(ctx context.Context, brand string) ([]CategoryDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) ([]ProductDTO, error)
	ListFeatured(ctx context.Context, brand string) ([]ProductDTO, error)
	GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	ListReviews(ctx context.Context, slug string) (*ReviewList, error)
	CreateReview(ctx context.Context, userID, slug string, input ReviewInput) (*ReviewDTO, error)
}

// ListProductsInput holds raw query filters.
type ListProductsInput struct {
	Brand    string
	Category string
}

// ReviewInput is a validated review submission.
type ReviewInput struct {
	Rating  int
	Title   string
	Content string
}

type service struct {
	repo catalogRepository
}

func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListCategories(ctx context.Context, brand string) ([]CategoryDTO, error) {
	b, err := parseBrandFilter(brand)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.ListCategories(ctx, b)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, NewCategoryDTO(c))
	}
	return out, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) ([]ProductDTO, error) {
	b, err := parseBrandFilter(input.Brand)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx, ProductFilter{
		Brand:        b,
		CategorySlug: strings.TrimSpace(input.Category),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return NewProductDTOs(products), nil
}

func (s *service) ListFeatured(ctx context.Context, brand string) ([]ProductDTO, error) {
	b, err := parseBrandFilter(brand)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx, ProductFilter{Brand: b, FeaturedOnly: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list featured products")
	}
	return NewProductDTOs(products), nil
}

func (s *service) GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(*product)
	return &dto, nil
}

// GetProductsByIDs returns whatever rows exist, keyed by id. Missing ids are
// simply absent from the map.
func (s *service) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	products, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	out := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (s *service) ListReviews(ctx context.Context, slug string) (*ReviewList, error) {
	product, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListReviews(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	list := newReviewList(reviews)
	return &list, nil
}

func (s *service) CreateReview(ctx context.Context, userID, slug string, input ReviewInput) (*ReviewDTO, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid review").
			WithDetails(map[string]any{"rating": "must be between 1 and 5"})
	}
	product, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	verified, err := s.repo.HasPurchased(ctx, userID, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check purchase history")
	}

	review := &models.Review{
		ProductID: product.ID,
		UserID:    userID,
		Rating:    input.Rating,
		Title:     strings.TrimSpace(input.Title),
		Content:   strings.TrimSpace(input.Content),
		Verified:  verified,
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	dto := NewReviewDTO(*review)
	return &dto, nil
}

func (s *service) findBySlug(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug required")
	}
	product, err := s.repo.FindActiveBySlug(ctx, slug)
	if err != nil {
		if mapped := repo.NotFound(err, "product not found"); mapped != err {
			return nil, mapped
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if err := visibility.EnsureListed(product, nil); err != nil {
		return nil, err
	}
	return product, nil
}

func parseBrandFilter(raw string) (*enums.Brand, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	brand, err := enums.ParseBrand(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid brand").
			WithDetails(map[string]any{"brand": "must be one of forge, formula"})
	}
	return &brand, nil
}
