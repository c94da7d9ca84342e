package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dedekind-labs/sua-api/internal/models"
	"github.com/dedekind-labs/sua-api/internal/service"
	appErrors "github.com/dedekind-labs/sua-api/pkg/errors"
	"github.com/dedekind-labs/sua-api/pkg/response"
)

// PublicityHandler exposes roster posting windows and the derived roster.
type PublicityHandler struct {
	service *service.PublicityService
}

// NewPublicityHandler creates a new handler.
func NewPublicityHandler(svc *service.PublicityService) *PublicityHandler {
	return &PublicityHandler{service: svc}
}

// Create godoc
// @Summary Open a publicity window
// @Tags Publicities
// @Accept json
// @Produce json
// @Param payload body models.CreatePublicityRequest true "Publicity payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /publicities [post]
func (h *PublicityHandler) Create(c *gin.Context) {
	var req models.CreatePublicityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid publicity payload"))
		return
	}

	detail, err := h.service.Open(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Edit a publicity window
// @Tags Publicities
// @Accept json
// @Produce json
// @Param id path string true "Publicity ID"
// @Param payload body models.CreatePublicityRequest true "Publicity payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /publicities/{id} [put]
func (h *PublicityHandler) Update(c *gin.Context) {
	var req models.CreatePublicityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid publicity payload"))
		return
	}

	detail, err := h.service.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// List godoc
// @Summary List publicities
// @Tags Publicities
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /publicities [get]
func (h *PublicityHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	details, total, err := h.service.List(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, &models.Pagination{
		Page:       page,
		PageSize:   size,
		TotalCount: total,
	})
}

// Active godoc
// @Summary List active publicities
// @Description Publicities whose window contains the current instant
// @Tags Publicities
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /publicities/active [get]
func (h *PublicityHandler) Active(c *gin.Context) {
	details, err := h.service.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// Get godoc
// @Summary Get a publicity
// @Tags Publicities
// @Produce json
// @Param id path string true "Publicity ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /publicities/{id} [get]
func (h *PublicityHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Roster godoc
// @Summary Get a publicity's roster
// @Description Grouped by team, then hours, names ascending
// @Tags Publicities
// @Produce json
// @Param id path string true "Publicity ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /publicities/{id}/roster [get]
func (h *PublicityHandler) Roster(c *gin.Context) {
	roster, err := h.service.Roster(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}
