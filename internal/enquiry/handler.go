// AngelaMos | 2026
// handler.go

package enquiry

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wattgrid/marketplace-api/internal/core"
	"github.com/wattgrid/marketplace-api/internal/middleware"
	"github.com/wattgrid/marketplace-api/internal/quotation"
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

// RegisterRoutes mounts the enquiry endpoints relative to /enquiries on an
// authenticated router. The collection GET is the seller listing; the rest
// belong to buyers.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireSeller).Get("/", h.ListForSeller)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireBuyer)

		r.Post("/", h.Create)
		r.Get("/my-enquiries", h.ListMine)
		r.Get("/{enquiryID}", h.Get)
		r.Patch("/{enquiryID}/status", h.UpdateStatus)
		r.Delete("/{enquiryID}", h.Delete)
		r.Get("/{enquiryID}/quotations", h.Quotations)
	})
}

// RegisterAdminRoutes expects r to already require the admin role.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/enquiries", h.AdminList)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.GetUserID(r.Context())

	var req CreateEnquiryRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	e, err := h.service.Create(r.Context(), buyerID, req)
	if err != nil {
		writeEnquiryError(w, err)
		return
	}

	core.Created(w, CreateResponse{
		Message: "Enquiry created successfully",
		Enquiry: ToEnquiryResponse(e),
	})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.GetUserID(r.Context())
	page := core.PageFromRequest(r)

	rows, total, err := h.service.ListByBuyer(r.Context(), buyerID, page)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToBuyerEnquiryList(rows), page, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.GetUserID(r.Context())

	e, err := h.service.GetOwned(r.Context(), buyerID, chi.URLParam(r, "enquiryID"))
	if err != nil {
		writeEnquiryError(w, err)
		return
	}

	core.OK(w, SingleResponse{Enquiry: ToEnquiryResponse(e)})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.GetUserID(r.Context())

	var req UpdateStatusRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	e, err := h.service.UpdateStatus(
		r.Context(),
		buyerID,
		chi.URLParam(r, "enquiryID"),
		req.Status,
	)
	if err != nil {
		writeEnquiryError(w, err)
		return
	}

	core.OK(w, SingleResponse{Enquiry: ToEnquiryResponse(e)})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.GetUserID(r.Context())

	if err := h.service.Delete(r.Context(), buyerID, chi.URLParam(r, "enquiryID")); err != nil {
		writeEnquiryError(w, err)
		return
	}

	core.OK(w, map[string]string{"message": "Enquiry deleted successfully"})
}

func (h *Handler) Quotations(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.GetUserID(r.Context())

	e, quotes, err := h.service.Quotations(r.Context(), buyerID, chi.URLParam(r, "enquiryID"))
	if err != nil {
		writeEnquiryError(w, err)
		return
	}

	core.OK(w, QuotationsResponse{
		Enquiry:    ToEnquiryResponse(e),
		Quotations: quotation.ToEnquiryQuotationList(quotes),
	})
}

func (h *Handler) ListForSeller(w http.ResponseWriter, r *http.Request) {
	sellerID := middleware.GetUserID(r.Context())
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	page := core.PageFromRequest(r)

	resp, err := h.service.ListForSeller(r.Context(), sellerID, city, page)
	if err != nil {
		writeEnquiryError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Status: q.Get("status"),
		City:   strings.TrimSpace(q.Get("city")),
	}
	page := core.PageFromRequest(r)

	rows, total, err := h.service.List(r.Context(), params, page)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToAdminEnquiryList(rows), page, total)
}

func writeEnquiryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "Enquiry")
	case errors.Is(err, ErrNotOwner):
		core.Forbidden(w, "Access denied")
	case errors.Is(err, ErrInvalidTransition):
		core.BadRequest(w, "Invalid status transition")
	case errors.Is(err, ErrCityRequired):
		core.BadRequest(w, "City parameter is required")
	case errors.Is(err, ErrStateNotSet):
		core.BadRequest(w, "State not set in profile")
	case core.IsAppError(err):
		core.JSONError(w, err)
	default:
		core.InternalServerError(w, err)
	}
}
