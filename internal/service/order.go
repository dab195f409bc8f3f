package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/kevinwiwaha/larabench/internal/models"
)

var (
	// ErrValidation is returned for malformed input before any store write. 400
	ErrValidation = errors.New("validation")
	// ErrInsufficientStock is returned when the conditional decrement matched no
	// row: the product is missing or its stock is below the requested quantity.
	// The two causes are indistinguishable at this layer. 404/409
	ErrInsufficientStock = errors.New("insufficient stock or product not found")
	// ErrStore wraps store failures. The transaction is all-or-nothing, so the
	// caller may retry the identical request. 502
	ErrStore = errors.New("store failure")
)

const (
	MinOrderQuantity = 1
	MaxOrderQuantity = 100
)

// OrderService places orders against the relational store. It is stateless;
// one transaction per PlaceOrder call is the only coordination used.
type OrderService struct {
	DB *gorm.DB
}

// PlaceOrder reserves stock and records a paid order as one atomic operation.
//
// The stock check and decrement are a single conditional UPDATE guarded by
// `stock >= quantity`, so concurrent placements for the same product serialize
// on the row lock inside the store and the stock column can never go negative.
// Zero rows affected is the sole authority for "missing product or not enough
// stock"; no pre-read is trusted for correctness.
func (s *OrderService) PlaceOrder(ctx context.Context, userID, productID uint, quantity int) (*models.Order, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if productID == 0 {
		return nil, fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	if quantity < MinOrderQuantity || quantity > MaxOrderQuantity {
		return nil, fmt.Errorf("%w: quantity must be between %d and %d", ErrValidation, MinOrderQuantity, MaxOrderQuantity)
	}

	// Fast-fail existence check, outside the transaction. Purely for UX: the
	// conditional update below re-validates the product atomically.
	var userCount int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&userCount).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if userCount == 0 {
		return nil, fmt.Errorf("%w: user %d does not exist", ErrValidation, userID)
	}

	var order models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", productID, quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
		if res.Error != nil {
			return fmt.Errorf("%w: %v", ErrStore, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientStock
		}

		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}

		order = models.Order{
			UserID:     userID,
			ProductID:  productID,
			Quantity:   quantity,
			UnitPrice:  product.Price,
			TotalPrice: roundToCent(product.Price * float64(quantity)),
			Status:     models.OrderStatusPaid,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrStore) {
			return nil, err
		}
		// Commit/begin failures surface here without our wrapping.
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	return &order, nil
}

// GetProduct is a non-authoritative read used for diagnostics after a failed
// placement; its result may be stale by the time the caller sees it.
func (s *OrderService) GetProduct(ctx context.Context, productID uint) (*models.Product, error) {
	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func roundToCent(v float64) float64 {
	return math.Round(v*100) / 100
}
