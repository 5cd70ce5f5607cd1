// AngelaMos | 2026
// handler.go

package subscription

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wattgrid/marketplace-api/internal/core"
	"github.com/wattgrid/marketplace-api/internal/middleware"
	"github.com/wattgrid/marketplace-api/internal/payment"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/subscriptions", func(r chi.Router) {
		r.Get("/plans", h.ListPlans)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(middleware.RequireSeller)

			r.Post("/create-order", h.CreateOrder)
			r.Post("/verify", h.Verify)
			r.Get("/current", h.Current)
		})
	})
}

// RegisterAdminRoutes expects r to already require the admin role.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/subscriptions", h.AdminList)
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	core.OK(w, PlansResponse{Plans: h.service.Plans()})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateOrderRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), userID, req.PlanType)
	if err != nil {
		writeSubscriptionError(w, r, err)
		return
	}

	core.Created(w, order)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req VerifyRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	sub, err := h.service.Verify(r.Context(), userID, req)
	if err != nil {
		writeSubscriptionError(w, r, err)
		return
	}

	core.Created(w, map[string]any{
		"message":      "Subscription activated",
		"subscription": ToSubscriptionResponse(sub),
	})
}

func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	resp, err := h.service.Current(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Status:   q.Get("status"),
		PlanType: q.Get("plan_type"),
	}
	page := core.PageFromRequest(r)

	subs, total, err := h.service.List(r.Context(), params, page)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToAdminSubscriptionList(subs), page, total)
}

func writeSubscriptionError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *payment.APIError

	switch {
	case errors.Is(err, ErrUnknownPlan):
		core.BadRequest(w, "Invalid plan type")
	case errors.Is(err, ErrInvalidSignature):
		core.BadRequest(w, "Invalid payment signature")
	case errors.Is(err, ErrOrderMismatch):
		core.BadRequest(w, "Order does not belong to this account")
	case errors.Is(err, ErrAmountMismatch):
		core.BadRequest(w, "Payment amount does not match plan price")
	case errors.Is(err, ErrPaymentIncomplete):
		core.BadRequest(w, "Payment has not been completed")
	case errors.Is(err, ErrOrderAlreadyUsed):
		core.BadRequest(w, "This payment has already been used to activate a subscription")
	case errors.Is(err, payment.ErrOrderNotFound):
		core.BadRequest(w, "Invalid order")
	case errors.Is(err, payment.ErrNotConfigured):
		core.JSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "Payments are temporarily unavailable",
		})
	case errors.As(err, &apiErr):
		slog.ErrorContext(r.Context(), "payment gateway error",
			"status", apiErr.StatusCode,
			"code", apiErr.Code,
			"error", apiErr.Description,
		)
		core.JSON(w, http.StatusBadGateway, map[string]string{
			"error": "Payment gateway error",
		})
	default:
		core.InternalServerError(w, err)
	}
}
