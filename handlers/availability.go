package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"tutorly/database/repository"
	"tutorly/middleware"
	"tutorly/models"
	"tutorly/services/availability"
	"tutorly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AvailabilityHandler struct {
	Service availability.AvailabilityService
}

func NewAvailabilityHandler(svc availability.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Service: svc}
}

// GetAvailabilityHandler returns a provider's raw weekly availability.
func (h *AvailabilityHandler) GetAvailabilityHandler(c *gin.Context) {
	providerID := c.Param("id")
	avail, err := h.Service.GetAvailability(c.Request.Context(), providerID)
	if err != nil {
		h.fail(c, "Failed to fetch availability", err)
		return
	}
	c.JSON(http.StatusOK, models.AvailabilityResponse{Availability: avail})
}

// GetBookableDatesHandler lists the next dates a session of ?duration fits.
func (h *AvailabilityHandler) GetBookableDatesHandler(c *gin.Context) {
	horizon, err := optionalInt(c, "horizon")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid horizon", err.Error())
		return
	}
	maxResults, err := optionalInt(c, "max")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid max", err.Error())
		return
	}

	resp, err := h.Service.BookableDates(c.Request.Context(), c.Param("id"), c.Query("duration"), horizon, maxResults)
	if err != nil {
		h.fail(c, "Failed to resolve bookable dates", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetBookableTimesHandler lists start times on ?date for ?duration.
func (h *AvailabilityHandler) GetBookableTimesHandler(c *gin.Context) {
	resp, err := h.Service.BookableTimes(c.Request.Context(), c.Param("id"), c.Query("date"), c.Query("duration"))
	if err != nil {
		h.fail(c, "Failed to resolve bookable times", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateMyAvailabilityHandler replaces the authenticated provider's availability.
func (h *AvailabilityHandler) UpdateMyAvailabilityHandler(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if actor.Role != utils.RoleProvider || actor.ID == "" {
		utils.JSONError(c, http.StatusForbidden, "Only providers can set availability", "")
		return
	}

	var avail models.ProviderAvailability
	if err := c.ShouldBindJSON(&avail); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if err := h.Service.UpdateAvailability(c.Request.Context(), actor.ID, avail); err != nil {
		h.fail(c, "Failed to update availability", err)
		return
	}
	c.JSON(http.StatusOK, models.AvailabilityResponse{Availability: avail})
}

func (h *AvailabilityHandler) fail(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, repository.ErrProviderNotFound):
		utils.JSONError(c, http.StatusNotFound, "Provider not found", "")
	case errors.Is(err, availability.ErrMissingDuration),
		errors.Is(err, availability.ErrInvalidDate),
		errors.Is(err, availability.ErrInvalidWindow):
		utils.JSONError(c, http.StatusBadRequest, message, err.Error())
	default:
		getLogger(c).Error(message, zap.String("providerID", c.Param("id")), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, message, "")
	}
}

func optionalInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
