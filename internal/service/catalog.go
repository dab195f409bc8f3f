package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kevinwiwaha/larabench/internal/models"
	"github.com/kevinwiwaha/larabench/internal/util"
)

var ErrNotFound = errors.New("not found")

// ListParams mirror the catalog query string: free-text name filter, price
// range, sort and pagination.
type ListParams struct {
	Query    string
	MinPrice *float64
	MaxPrice *float64
	Sort     string // latest | price_asc | price_desc
	Page     int
	Size     int
}

type CatalogService struct {
	DB *gorm.DB
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, p ListParams) (int64, []models.Product, error) {
	offset, limit := util.Calculate(p.Page, p.Size)

	q := s.DB.WithContext(ctx).Model(&models.Product{})
	if p.Query != "" {
		q = q.Where("name LIKE ?", "%"+p.Query+"%")
	}
	if p.MinPrice != nil {
		q = q.Where("price >= ?", *p.MinPrice)
	}
	if p.MaxPrice != nil {
		q = q.Where("price <= ?", *p.MaxPrice)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	switch p.Sort {
	case "price_asc":
		q = q.Order("price ASC")
	case "price_desc":
		q = q.Order("price DESC")
	default:
		q = q.Order("created_at DESC, id DESC")
	}

	var items []models.Product
	if err := q.Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return total, items, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if product.Stock < 0 {
		return fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	if product.SKU == "" || product.Name == "" {
		return fmt.Errorf("%w: sku and name are required", ErrValidation)
	}
	if err := s.DB.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

type PatchProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
}

// PatchProduct is an operator action; it may set stock to an absolute value
// and is not part of the order placement path.
func (s *CatalogService) PatchProduct(ctx context.Context, id uint, req PatchProductRequest) (*models.Product, error) {
	if req.Price != nil && *req.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}

	var product models.Product
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", ErrNotFound, id)
			}
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
		if req.Name != nil {
			product.Name = *req.Name
		}
		if req.Description != nil {
			product.Description = *req.Description
		}
		if req.Price != nil {
			product.Price = *req.Price
		}
		if req.Stock != nil {
			product.Stock = *req.Stock
		}
		if err := tx.Save(&product).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStore, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return nil
}
