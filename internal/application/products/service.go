package products

import (
	"context"
	"time"

	"hub-backend/internal/domain"
	"hub-backend/internal/pkg/apperr"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("products")

const defaultProductKey = "default"

// Service serves the read-only product catalogue.
type Service struct {
	DB    *gorm.DB
	cache *cache.Cache
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db, cache: cache.New(5*time.Minute, 10*time.Minute)}
}

// List returns products ordered by member limit (unbounded last) then name.
// A non-empty handle narrows the result to that product.
func (s *Service) List(ctx context.Context, handle string) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Products.Service.List")
	defer span.End()

	q := s.DB.WithContext(ctx).Model(&domain.Product{})
	if handle != "" {
		q = q.Where("handle = ?", handle)
	}
	var out []domain.Product
	err := q.Order("CASE WHEN max_member_count < 0 THEN 1 ELSE 0 END").
		Order("max_member_count ASC").
		Order("name ASC").
		Find(&out).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "list products")
	}
	return out, nil
}

// FindByHandle returns NotFound for an unknown handle.
func (s *Service) FindByHandle(ctx context.Context, tx *gorm.DB, handle string) (*domain.Product, error) {
	var p domain.Product
	err := tx.WithContext(ctx).Where("handle = ?", handle).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("Product not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find product")
	}
	return &p, nil
}

// FindByID returns NotFound for an unknown id.
func (s *Service) FindByID(ctx context.Context, tx *gorm.DB, id any) (*domain.Product, error) {
	var p domain.Product
	err := tx.WithContext(ctx).Where("product_id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("Product not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find product")
	}
	return &p, nil
}

// Default returns the product flagged default. Cached in process.
func (s *Service) Default(ctx context.Context) (*domain.Product, error) {
	if v, ok := s.cache.Get(defaultProductKey); ok {
		p := v.(domain.Product)
		return &p, nil
	}
	ctx, span := tracer.Start(ctx, "Products.Service.Default")
	defer span.End()

	var p domain.Product
	err := s.DB.WithContext(ctx).Where("is_default = ?", true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.Internal, "No default product configured")
	}
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "default product")
	}
	s.cache.Set(defaultProductKey, p, cache.DefaultExpiration)
	return &p, nil
}

// Seed inserts the given products when the catalogue is empty.
func (s *Service) Seed(ctx context.Context, seed []domain.Product) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.Product{}).Count(&count).Error; err != nil {
		return errors.Wrap(err, "count products")
	}
	if count > 0 {
		return nil
	}
	defaults := 0
	for _, p := range seed {
		if p.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		return errors.Errorf("product seed must have exactly one default, got %d", defaults)
	}
	if err := s.DB.WithContext(ctx).Create(&seed).Error; err != nil {
		return errors.Wrap(err, "seed products")
	}
	s.cache.Delete(defaultProductKey)
	return nil
}

// DefaultCatalogue is the catalogue installed on an empty database.
func DefaultCatalogue() []domain.Product {
	return []domain.Product{
		{Handle: "free", Name: "Free", MaxMemberCount: 1, IsDefault: true},
		{Handle: "small", Name: "Small", MaxMemberCount: domain.UnboundedMembers, ExternalPlanID: "price_small"},
	}
}
