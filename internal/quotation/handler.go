// AngelaMos | 2026
// handler.go

package quotation

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wattgrid/marketplace-api/internal/core"
	"github.com/wattgrid/marketplace-api/internal/middleware"
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

// RegisterRoutes mounts /my-quotations on an authenticated router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireSeller).Get("/my-quotations", h.ListMine)
}

// RegisterEnquiryRoutes mounts the submission endpoint relative to
// /enquiries.
func (h *Handler) RegisterEnquiryRoutes(r chi.Router) {
	r.With(middleware.RequireSeller).Post("/{enquiryID}/quote", h.Create)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sellerID := middleware.GetUserID(r.Context())
	enquiryID := chi.URLParam(r, "enquiryID")

	var req CreateQuotationRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	q, err := h.service.Create(r.Context(), sellerID, enquiryID, req)
	if err != nil {
		writeQuotationError(w, err)
		return
	}

	core.Created(w, CreateResponse{
		Message:   "Quotation submitted successfully",
		Quotation: ToQuotationResponse(q),
	})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	sellerID := middleware.GetUserID(r.Context())
	page := core.PageFromRequest(r)

	quotes, total, err := h.service.ListBySeller(r.Context(), sellerID, page)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToSellerQuotationList(quotes), page, total)
}

func writeQuotationError(w http.ResponseWriter, err error) {
	var quota *QuotaExceededError

	switch {
	case errors.Is(err, ErrEnquiryNotFound):
		core.NotFound(w, "Enquiry")
	case errors.Is(err, ErrEnquiryClosed):
		core.BadRequest(w, "Enquiry is no longer accepting quotations")
	case errors.Is(err, ErrAlreadyQuoted):
		core.BadRequest(w, "You have already submitted a quotation for this enquiry")
	case errors.As(err, &quota):
		core.JSONError(w, core.ForbiddenError(
			"Monthly quotation limit reached. Subscribe to a plan for unlimited quotations",
		).With("limit", quota.Limit).With("used", quota.Used))
	default:
		core.InternalServerError(w, err)
	}
}
