package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/kevinwiwaha/larabench/internal/es"
	"github.com/kevinwiwaha/larabench/internal/logging"
	"github.com/kevinwiwaha/larabench/internal/models"
	"github.com/kevinwiwaha/larabench/internal/mykafka"
	"github.com/kevinwiwaha/larabench/internal/service"
	"github.com/kevinwiwaha/larabench/internal/service/search"
	"github.com/kevinwiwaha/larabench/internal/util"
)

type ProductHandler struct {
	Svc      *service.CatalogService
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return &v
	}
	return nil
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid product id")
	}

	product, err := h.Svc.GetProduct(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return errorResponse(c, http.StatusNotFound, "product not found")
		}
		return errorResponse(c, http.StatusBadGateway, "store unavailable")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	params := service.ListParams{
		Query:    c.QueryParam("q"),
		MinPrice: parseFloatPtr(c.QueryParam("min_price")),
		MaxPrice: parseFloatPtr(c.QueryParam("max_price")),
		Sort:     c.QueryParam("sort"),
		Page:     page,
		Size:     size,
	}

	total, items, err := h.Svc.ListProducts(c.Request().Context(), params)
	if err != nil {
		return errorResponse(c, http.StatusBadGateway, "store unavailable")
	}

	offset, limit := util.Calculate(page, size)
	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

type productRequest struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}

	product := models.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := h.Svc.CreateProduct(c.Request().Context(), &product); err != nil {
		if errors.Is(err, service.ErrValidation) {
			return errorResponse(c, http.StatusBadRequest, err.Error())
		}
		return errorResponse(c, http.StatusBadGateway, "store unavailable")
	}

	h.index(c, &product)
	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": product.ID,
		"name":      product.Name,
	})

	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid product id")
	}

	var req service.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}

	product, err := h.Svc.PatchProduct(c.Request().Context(), uint(id), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return errorResponse(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			return errorResponse(c, http.StatusNotFound, "product not found")
		default:
			return errorResponse(c, http.StatusBadGateway, "store unavailable")
		}
	}

	h.index(c, product)
	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": product.ID,
		"name":      product.Name,
	})

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid product id")
	}

	if err := h.Svc.DeleteProduct(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return errorResponse(c, http.StatusNotFound, "product not found")
		}
		return errorResponse(c, http.StatusBadGateway, "store unavailable")
	}

	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteProduct(ctx, h.ES, es.ProductIndex, uint(id)); err != nil {
			logging.FromContext(c.Request().Context()).Error("es delete error", "error", err)
		}
	}
	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicProductEvents, fmt.Sprint(event["productID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *ProductHandler) index(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexProduct(ctx, h.ES, es.ProductIndex, p); err != nil {
		logging.FromContext(c.Request().Context()).Error("es index error", "error", err)
	}
}
