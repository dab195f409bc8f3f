package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kevinwiwaha/larabench/internal/logging"
	"github.com/kevinwiwaha/larabench/internal/mykafka"
	"github.com/kevinwiwaha/larabench/internal/service"
)

// IdempotencyGuard suppresses duplicate submissions keyed by the
// Idempotency-Key header. Keys are recorded only for committed placements so
// that failed requests stay retryable verbatim.
type IdempotencyGuard interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

type OrderHandler struct {
	Svc      *service.OrderService
	Producer *mykafka.Producer
	Guard    IdempotencyGuard
}

type placeOrderRequest struct {
	UserID    uint `json:"user_id"`
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.place")

	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("place_order_error", "status", 400, "reason", "invalid body", "error", err)
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}

	// Optional duplicate suppression; a guard outage must never block orders.
	key := c.Request().Header.Get("Idempotency-Key")
	if key != "" && h.Guard != nil {
		seen, err := h.Guard.Seen(ctx, key)
		if err != nil {
			l.Warn("idempotency_check_failed", "error", err)
		} else if seen {
			l.Warn("place_order_error", "status", 409, "reason", "duplicate request")
			return errorResponse(c, http.StatusConflict, "duplicate request")
		}
	}

	order, err := h.Svc.PlaceOrder(ctx, req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("place_order_error", "status", 400, "error", err)
			return errorResponse(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInsufficientStock):
			// Non-authoritative follow-up read, only to pick the response
			// message. The conditional update already decided the outcome.
			if _, rerr := h.Svc.GetProduct(ctx, req.ProductID); errors.Is(rerr, gorm.ErrRecordNotFound) {
				l.Warn("place_order_error", "status", 404, "product_id", req.ProductID)
				return errorResponse(c, http.StatusNotFound, "product not found")
			}
			l.Warn("place_order_error", "status", 409, "product_id", req.ProductID, "quantity", req.Quantity)
			return errorResponse(c, http.StatusConflict, "insufficient stock")
		default:
			l.Error("place_order_error", "status", 502, "error", err)
			return errorResponse(c, http.StatusBadGateway, "store unavailable, safe to retry")
		}
	}

	// The key is burned only by a committed placement; anything earlier must
	// leave the verbatim retry open.
	if key != "" && h.Guard != nil {
		if err := h.Guard.Mark(ctx, key); err != nil {
			l.Warn("idempotency_mark_failed", "error", err)
		}
	}

	h.publish(c, map[string]any{
		"type":        "order_placed",
		"orderID":     order.ID,
		"userID":      order.UserID,
		"productID":   order.ProductID,
		"quantity":    order.Quantity,
		"total_price": order.TotalPrice,
	})

	l.Info("place_order_success", "order_id", order.ID, "product_id", order.ProductID, "quantity", order.Quantity)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicOrderEvents, fmt.Sprint(event["orderID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
