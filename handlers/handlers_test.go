package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tutorly/database/repository"
	"tutorly/middleware"
	"tutorly/models"
	"tutorly/services/availability"
	"tutorly/services/booking"
	"tutorly/services/payment"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAvailability struct {
	avail models.ProviderAvailability
	err   error
}

func (s *stubAvailability) GetAvailability(ctx context.Context, providerID string) (models.ProviderAvailability, error) {
	return s.avail, s.err
}

func (s *stubAvailability) BookableDates(ctx context.Context, providerID, duration string, horizonDays, maxResults int) (*models.BookableDatesResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	if duration == "" {
		return nil, availability.ErrMissingDuration
	}
	return &models.BookableDatesResponse{ProviderID: providerID, Duration: duration, Dates: []string{"2025-01-08"}}, nil
}

func (s *stubAvailability) BookableTimes(ctx context.Context, providerID, date, duration string) (*models.BookableTimesResponse, error) {
	return &models.BookableTimesResponse{ProviderID: providerID, Date: date, Duration: duration, Times: []models.TimeSlot{}}, s.err
}

func (s *stubAvailability) UpdateAvailability(ctx context.Context, providerID string, avail models.ProviderAvailability) error {
	return s.err
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func availabilityRouter(svc availability.AvailabilityService) *gin.Engine {
	h := NewAvailabilityHandler(svc)
	r := gin.New()
	r.GET("/providers/:id/availability", h.GetAvailabilityHandler)
	r.GET("/providers/:id/bookable-dates", h.GetBookableDatesHandler)
	r.GET("/providers/:id/bookable-times", h.GetBookableTimesHandler)
	return r
}

func TestAvailabilityEnvelope(t *testing.T) {
	svc := &stubAvailability{avail: models.ProviderAvailability{
		"3": {{DayOfWeek: 3, StartTime: "14:00", EndTime: "16:00"}},
	}}
	w := serve(availabilityRouter(svc), http.MethodGet, "/providers/p1/availability", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Availability map[string][]map[string]any `json:"availability"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	win := body.Availability["3"][0]
	if win["dayOfWeek"] != float64(3) || win["startTime"] != "14:00" {
		t.Fatalf("window = %v", win)
	}
	if _, present := win["sessionTypes"]; present {
		t.Fatalf("absent sessionTypes serialized: %v", win)
	}
}

func TestAvailabilityErrors(t *testing.T) {
	cases := []struct {
		name string
		svc  *stubAvailability
		path string
		want int
	}{
		{"unknown provider", &stubAvailability{err: repository.ErrProviderNotFound}, "/providers/p9/availability", http.StatusNotFound},
		{"missing duration", &stubAvailability{}, "/providers/p1/bookable-dates", http.StatusBadRequest},
		{"bad horizon", &stubAvailability{}, "/providers/p1/bookable-dates?duration=60min&horizon=soon", http.StatusBadRequest},
		{"backend failure", &stubAvailability{err: errors.New("mongo down")}, "/providers/p1/bookable-times?date=2025-01-08&duration=60min", http.StatusInternalServerError},
		{"ok", &stubAvailability{}, "/providers/p1/bookable-dates?duration=60min&max=3", http.StatusOK},
	}
	for _, tc := range cases {
		w := serve(availabilityRouter(tc.svc), http.MethodGet, tc.path, "")
		if w.Code != tc.want {
			t.Errorf("%s: status = %d, want %d (%s)", tc.name, w.Code, tc.want, w.Body.String())
		}
	}
}

type stubSessions struct {
	state   payment.State
	err     error
	opened  []models.OpenPaymentRequest
	cancels int
}

func (s *stubSessions) Open(ctx context.Context, req models.OpenPaymentRequest) (payment.State, error) {
	s.opened = append(s.opened, req)
	return s.state, s.err
}
func (s *stubSessions) Get(id string) (payment.State, error) {
	if errors.Is(s.err, payment.ErrSessionNotFound) {
		return payment.State{}, s.err
	}
	return s.state, nil
}
func (s *stubSessions) Submit(ctx context.Context, id string, req models.ConfirmPaymentRequest) (payment.State, error) {
	return s.state, s.err
}
func (s *stubSessions) Cancel(ctx context.Context, id string) (payment.State, error) {
	s.cancels++
	return s.state, s.err
}
func (s *stubSessions) Retry(ctx context.Context, id string) (payment.State, error) {
	return s.state, s.err
}

type stubIntents struct {
	res *payment.IntentResult
	err error
}

func (s *stubIntents) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.IntentResult, error) {
	return s.res, s.err
}

func paymentRouter(sessions payment.SessionService, intents payment.IntentCreator) *gin.Engine {
	return paymentRouterAs(models.Actor{}, sessions, intents)
}

func paymentRouterAs(actor models.Actor, sessions payment.SessionService, intents payment.IntentCreator) *gin.Engine {
	h := NewPaymentHandler(sessions, intents)
	r := gin.New()
	r.Use(func(c *gin.Context) { middleware.SetActor(c, actor) })
	r.POST("/create-intent", h.CreateIntentHandler)
	r.POST("/sessions", h.OpenSessionHandler)
	r.GET("/sessions/:id", h.GetSessionHandler)
	r.POST("/sessions/:id/confirm", h.ConfirmSessionHandler)
	r.POST("/sessions/:id/cancel", h.CancelSessionHandler)
	r.POST("/sessions/:id/retry", h.RetrySessionHandler)
	return r
}

func TestCreateIntentEnvelope(t *testing.T) {
	r := paymentRouter(&stubSessions{}, &stubIntents{res: &payment.IntentResult{ClientSecret: "pi_1_secret_x", IntentID: "pi_1"}})
	w := serve(r, http.MethodPost, "/create-intent", `{"bookingId":"b1","amount":45.5,"currency":"USD"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Data struct {
			ClientSecret string `json:"clientSecret"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Data.ClientSecret != "pi_1_secret_x" {
		t.Fatalf("body = %s (%v)", w.Body.String(), err)
	}
}

func TestCreateIntentOnboardingMessage(t *testing.T) {
	r := paymentRouter(&stubSessions{}, &stubIntents{err: errors.New("provider p1 has not completed Stripe onboarding")})
	w := serve(r, http.MethodPost, "/create-intent", `{"bookingId":"b1","amount":10,"currency":"USD"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), payment.ProviderNotReadyMessage) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestSessionErrors(t *testing.T) {
	refused := &stubSessions{
		state: payment.State{SessionID: "s1", Status: payment.StatusCreatingIntent},
		err:   payment.ErrTransitionRefused,
	}
	w := serve(paymentRouter(refused, &stubIntents{}), http.MethodPost, "/sessions/s1/confirm", `{"paymentMethodId":"pm_1"}`)
	if w.Code != http.StatusConflict || !strings.Contains(w.Body.String(), `"creating_intent"`) {
		t.Fatalf("refused: %d %s", w.Code, w.Body.String())
	}

	missing := &stubSessions{err: payment.ErrSessionNotFound}
	if w := serve(paymentRouter(missing, &stubIntents{}), http.MethodGet, "/sessions/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing: %d", w.Code)
	}

	if w := serve(paymentRouter(&stubSessions{}, &stubIntents{}), http.MethodPost, "/sessions/s1/confirm", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("no payment method: %d", w.Code)
	}
}

func TestOpenSession(t *testing.T) {
	ok := &stubSessions{state: payment.State{SessionID: "s1", Status: payment.StatusAwaitingConfirmation, ClientSecret: "pi_1_secret_x"}}
	w := serve(paymentRouter(ok, &stubIntents{}), http.MethodPost, "/sessions", `{"bookingId":"b1","amountCents":4500,"currency":"USD"}`)
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"awaiting_confirmation"`) {
		t.Fatalf("open: %d %s", w.Code, w.Body.String())
	}
}

func TestCreateIntentRefusedForUnpayableBooking(t *testing.T) {
	refused := &stubIntents{err: fmt.Errorf("%w: booking b1 payment is captured", payment.ErrInvalidRequest)}
	w := serve(paymentRouter(&stubSessions{}, refused), http.MethodPost, "/create-intent", `{"bookingId":"b1","amount":0.01,"currency":"USD"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionsAreVisibleOnlyToOwner(t *testing.T) {
	owned := payment.State{SessionID: "s1", Status: payment.StatusAwaitingConfirmation, ClientSecret: "pi_1_secret_x", OwnerID: "stu1"}
	cases := []struct {
		name  string
		actor models.Actor
		want  int
	}{
		{"owner", models.Actor{ID: "stu1", Role: "student"}, http.StatusOK},
		{"admin", models.Actor{ID: "admin", Role: "admin"}, http.StatusOK},
		{"other student", models.Actor{ID: "stu2", Role: "student"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		sessions := &stubSessions{state: owned}
		r := paymentRouterAs(tc.actor, sessions, &stubIntents{})

		w := serve(r, http.MethodGet, "/sessions/s1", "")
		if w.Code != tc.want {
			t.Errorf("%s: get = %d, want %d", tc.name, w.Code, tc.want)
		}
		if tc.want == http.StatusNotFound && strings.Contains(w.Body.String(), "pi_1_secret_x") {
			t.Errorf("%s: client secret leaked", tc.name)
		}
		if w := serve(r, http.MethodPost, "/sessions/s1/cancel", ""); w.Code != tc.want {
			t.Errorf("%s: cancel = %d, want %d", tc.name, w.Code, tc.want)
		}
		if tc.want == http.StatusNotFound && sessions.cancels != 0 {
			t.Errorf("%s: session cancelled by non-owner", tc.name)
		}
	}
}

func TestOpenSessionRecordsOwner(t *testing.T) {
	sessions := &stubSessions{state: payment.State{SessionID: "s1", Status: payment.StatusAwaitingConfirmation}}
	r := paymentRouterAs(models.Actor{ID: "stu1", Role: "student"}, sessions, &stubIntents{})
	w := serve(r, http.MethodPost, "/sessions", `{"bookingId":"b1","amountCents":4500,"currency":"USD","OwnerID":"stu9"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("open: %d %s", w.Code, w.Body.String())
	}
	if len(sessions.opened) != 1 || sessions.opened[0].OwnerID != "stu1" {
		t.Fatalf("opened = %+v", sessions.opened)
	}

	taken := &stubSessions{err: payment.ErrNotSessionOwner}
	r = paymentRouterAs(models.Actor{ID: "stu2", Role: "student"}, taken, &stubIntents{})
	if w := serve(r, http.MethodPost, "/sessions", `{"bookingId":"b1","amountCents":4500,"currency":"USD"}`); w.Code != http.StatusForbidden {
		t.Fatalf("open by another student: %d", w.Code)
	}
}

type stubBookings struct {
	err error
}

func (s *stubBookings) MarkPaymentCaptured(ctx context.Context, p models.PaymentCapturedPayload) (*models.Booking, error) {
	return nil, s.err
}
func (s *stubBookings) RequestCancel(ctx context.Context, p models.CancelBookingPayload) (*models.Booking, error) {
	return nil, s.err
}
func (s *stubBookings) Approve(ctx context.Context, id string, a models.Actor) (*models.Booking, error) {
	return &models.Booking{ID: id, Status: models.BookingStatusConfirmed}, s.err
}
func (s *stubBookings) Reject(ctx context.Context, id string, a models.Actor, reason string) (*models.Booking, error) {
	return &models.Booking{ID: id, Status: models.BookingStatusRejected}, s.err
}
func (s *stubBookings) ListPendingApprovals(ctx context.Context, a models.Actor) ([]models.Booking, error) {
	return []models.Booking{}, s.err
}

func TestApprovalStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{booking.ErrForbidden, http.StatusForbidden},
		{booking.ErrPaymentNotCaptured, http.StatusConflict},
		{booking.ErrInvalidTransition, http.StatusConflict},
		{booking.ErrBookingNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		h := NewApprovalHandler(&stubBookings{err: tc.err})
		r := gin.New()
		r.POST("/approvals/:bookingId/approve", h.ApproveHandler)
		r.POST("/approvals/:bookingId/reject", h.RejectHandler)

		if w := serve(r, http.MethodPost, "/approvals/b1/approve", ""); w.Code != tc.want {
			t.Errorf("approve with %v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
		if w := serve(r, http.MethodPost, "/approvals/b1/reject", `{"reason":"busy"}`); w.Code != tc.want {
			t.Errorf("reject with %v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}
