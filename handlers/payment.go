package handlers

import (
	"errors"
	"net/http"

	"tutorly/middleware"
	"tutorly/models"
	"tutorly/services/payment"
	"tutorly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	Sessions payment.SessionService
	Intents  payment.IntentCreator
}

func NewPaymentHandler(sessions payment.SessionService, intents payment.IntentCreator) *PaymentHandler {
	return &PaymentHandler{Sessions: sessions, Intents: intents}
}

// CreateIntentHandler is the raw intent-creation contract: major-unit amount in,
// {"data": {"clientSecret": ...}} out.
func (h *PaymentHandler) CreateIntentHandler(c *gin.Context) {
	var req payment.IntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	res, err := h.Intents.CreateIntent(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidRequest) {
			utils.JSONError(c, http.StatusBadRequest, "Invalid payment request", err.Error())
			return
		}
		pe := payment.Classify(err)
		getLogger(c).Warn("payment intent creation failed",
			zap.String("bookingID", req.BookingID),
			zap.String("kind", string(pe.Kind)),
			zap.Error(err))
		utils.JSONErrorCode(c, http.StatusBadGateway, string(pe.Kind), pe.Message)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *PaymentHandler) OpenSessionHandler(c *gin.Context) {
	var req models.OpenPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	req.OwnerID = middleware.ActorFromContext(c).ID
	st, err := h.Sessions.Open(c.Request.Context(), req)
	if err != nil {
		h.fail(c, st, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": st})
}

func (h *PaymentHandler) GetSessionHandler(c *gin.Context) {
	st, ok := h.ownedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": st})
}

// ownedSession loads the session in the path and hides it from anyone but its owner or an admin.
func (h *PaymentHandler) ownedSession(c *gin.Context) (payment.State, bool) {
	st, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, st, err)
		return st, false
	}
	actor := middleware.ActorFromContext(c)
	if actor.Role != utils.RoleAdmin && st.OwnerID != actor.ID {
		getLogger(c).Warn("payment session accessed by non-owner",
			zap.String("sessionID", st.SessionID),
			zap.String("actorID", actor.ID))
		h.fail(c, payment.State{}, payment.ErrSessionNotFound)
		return payment.State{}, false
	}
	return st, true
}

func (h *PaymentHandler) ConfirmSessionHandler(c *gin.Context) {
	var req models.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if _, ok := h.ownedSession(c); !ok {
		return
	}
	st, err := h.Sessions.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, st, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": st})
}

func (h *PaymentHandler) CancelSessionHandler(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}
	st, err := h.Sessions.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, st, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": st})
}

func (h *PaymentHandler) RetrySessionHandler(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}
	st, err := h.Sessions.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, st, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": st})
}

// fail maps session errors. A refused transition still returns the current session.
func (h *PaymentHandler) fail(c *gin.Context, st payment.State, err error) {
	switch {
	case errors.Is(err, payment.ErrSessionNotFound):
		utils.JSONError(c, http.StatusNotFound, "Payment session not found", "")
	case errors.Is(err, payment.ErrInvalidRequest):
		utils.JSONError(c, http.StatusBadRequest, "Invalid payment request", err.Error())
	case errors.Is(err, payment.ErrNotSessionOwner):
		utils.JSONError(c, http.StatusForbidden, "Booking is being paid by another user", "")
	case errors.Is(err, payment.ErrTransitionRefused):
		getLogger(c).Info("payment transition refused", zap.String("sessionID", st.SessionID), zap.String("status", st.Status.String()))
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error(), "session": st})
	default:
		getLogger(c).Error("payment session error", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Payment session error", "")
	}
}
