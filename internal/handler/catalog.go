package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desert-paths/internal/logger"
	"github.com/iliyamo/desert-paths/internal/service"
)

// CatalogHandler serves the public, unauthenticated catalog.
type CatalogHandler struct {
	Catalog *service.CatalogService
	Reviews *service.ReviewService
	Log     *logger.Logger
}

func NewCatalogHandler(cat *service.CatalogService, rev *service.ReviewService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{Catalog: cat, Reviews: rev, Log: log}
}

// ListLands handles GET /v1/lands.
func (h *CatalogHandler) ListLands(c echo.Context) error {
	lands, err := h.Catalog.ListLands(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, lands)
}

// GetLand handles GET /v1/lands/:slug.
func (h *CatalogHandler) GetLand(c echo.Context) error {
	land, err := h.Catalog.GetLand(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, land)
}

// ListJourneys handles GET /v1/journeys?land_id=&featured=true.
func (h *CatalogHandler) ListJourneys(c echo.Context) error {
	var landID uint64
	if raw := c.QueryParam("land_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return badRequest(c, "invalid land_id")
		}
		landID = id
	}
	featured, _ := strconv.ParseBool(c.QueryParam("featured"))
	js, err := h.Catalog.ListJourneys(c.Request().Context(), landID, featured)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, js)
}

// GetJourney handles GET /v1/journeys/:slug.
func (h *CatalogHandler) GetJourney(c echo.Context) error {
	d, err := h.Catalog.GetJourney(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, d)
}

// ListStyles handles GET /v1/styles.
func (h *CatalogHandler) ListStyles(c echo.Context) error {
	styles, err := h.Catalog.ListStyles(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, styles)
}

// ListReviews handles GET /v1/journeys/:id/reviews.
func (h *CatalogHandler) ListReviews(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid journey id")
	}
	rs, err := h.Reviews.ListApproved(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rs)
}
