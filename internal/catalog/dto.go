package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forgeformula/storefront-backend/pkg/db/models"
	"github.com/forgeformula/storefront-backend/pkg/money"
)

// CategoryDTO is the public category payload.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Brand       string    `json:"brand"`
}

// ProductDTO is the public product payload. Price is nil for inquire-only
// products.
type ProductDTO struct {
	ID               uuid.UUID    `json:"id"`
	Name             string       `json:"name"`
	Slug             string       `json:"slug"`
	Description      string       `json:"description,omitempty"`
	ShortDescription string       `json:"shortDescription,omitempty"`
	Price            *string      `json:"price"`
	CompareAtPrice   *string      `json:"compareAtPrice,omitempty"`
	InquireOnly      bool         `json:"inquireOnly"`
	Brand            string       `json:"brand"`
	CategoryID       *uuid.UUID   `json:"categoryId,omitempty"`
	Category         *CategoryDTO `json:"category,omitempty"`
	ImageURL         string       `json:"imageUrl,omitempty"`
	Images           []string     `json:"images"`
	Stock            int          `json:"stock"`
	InStock          bool         `json:"inStock"`
	SKU              string       `json:"sku,omitempty"`
	Featured         bool         `json:"featured"`
	Active           bool         `json:"active"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// ReviewDTO omits the reviewer id.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content,omitempty"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewList carries reviews plus their aggregate rating.
type ReviewList struct {
	Items         []ReviewDTO `json:"items"`
	Count         int         `json:"count"`
	AverageRating string      `json:"averageRating"`
}

func NewCategoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Icon:        c.Icon,
		ImageURL:    c.ImageURL,
		Brand:       c.Brand.String(),
	}
}

func NewProductDTO(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Price:            nullMoney(p.Price),
		CompareAtPrice:   nullMoney(p.CompareAtPrice),
		InquireOnly:      !p.Price.Valid,
		Brand:            p.Brand.String(),
		CategoryID:       p.CategoryID,
		ImageURL:         p.ImageURL,
		Images:           []string(p.Images),
		Stock:            p.Stock,
		InStock:          p.Stock > 0,
		SKU:              p.SKU,
		Featured:         p.Featured,
		Active:           p.Active,
		CreatedAt:        p.CreatedAt,
	}
	if dto.Images == nil {
		dto.Images = []string{}
	}
	if p.Category != nil {
		category := NewCategoryDTO(*p.Category)
		dto.Category = &category
	}
	return dto
}

func NewProductDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductDTO(p))
	}
	return out
}

func NewReviewDTO(r models.Review) ReviewDTO {
	return ReviewDTO{
		ID:        r.ID,
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Title:     r.Title,
		Content:   r.Content,
		Verified:  r.Verified,
		CreatedAt: r.CreatedAt,
	}
}

func newReviewList(reviews []models.Review) ReviewList {
	list := ReviewList{Items: make([]ReviewDTO, 0, len(reviews)), Count: len(reviews), AverageRating: "0.0"}
	if len(reviews) == 0 {
		return list
	}
	sum := 0
	for _, r := range reviews {
		list.Items = append(list.Items, NewReviewDTO(r))
		sum += r.Rating
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(reviews))))
	list.AverageRating = avg.StringFixed(1)
	return list
}

func nullMoney(v decimal.NullDecimal) *string {
	if !v.Valid {
		return nil
	}
	s := money.String(v.Decimal)
	return &s
}
