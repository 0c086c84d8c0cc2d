package handlers

import (
	"errors"
	"net/http"

	"tutorly/middleware"
	"tutorly/services/booking"
	"tutorly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ApprovalHandler struct {
	Service booking.BookingService
}

func NewApprovalHandler(svc booking.BookingService) *ApprovalHandler {
	return &ApprovalHandler{Service: svc}
}

func (h *ApprovalHandler) ListPendingHandler(c *gin.Context) {
	bookings, err := h.Service.ListPendingApprovals(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		h.fail(c, "Failed to list pending approvals", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *ApprovalHandler) ApproveHandler(c *gin.Context) {
	b, err := h.Service.Approve(c.Request.Context(), c.Param("bookingId"), middleware.ActorFromContext(c))
	if err != nil {
		h.fail(c, "Failed to approve booking", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking confirmed", "booking": b})
}

func (h *ApprovalHandler) RejectHandler(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	// The reason is optional; an empty body is fine.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
			return
		}
	}

	b, err := h.Service.Reject(c.Request.Context(), c.Param("bookingId"), middleware.ActorFromContext(c), body.Reason)
	if err != nil {
		h.fail(c, "Failed to reject booking", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking rejected", "booking": b})
}

func (h *ApprovalHandler) fail(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		utils.JSONError(c, http.StatusNotFound, "Booking not found", "")
	case errors.Is(err, booking.ErrForbidden):
		utils.JSONError(c, http.StatusForbidden, message, err.Error())
	case errors.Is(err, booking.ErrPaymentNotCaptured):
		utils.JSONErrorCode(c, http.StatusConflict, "payment_not_captured", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		utils.JSONErrorCode(c, http.StatusConflict, "invalid_transition", err.Error())
	default:
		getLogger(c).Error(message, zap.String("bookingID", c.Param("bookingId")), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, message, "")
	}
}
