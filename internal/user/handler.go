// AngelaMos | 2026
// handler.go

package user

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wattgrid/marketplace-api/internal/core"
	"github.com/wattgrid/marketplace-api/internal/middleware"
)

const multipartOverhead = 512 << 10

var documentTypes = map[string]struct{}{
	DocGSTCertificate: {},
	DocPANCard:        {},
	DocTradeLicense:   {},
	DocOther:          {},
}

type Handler struct {
	service        *Service
	validator      *validator.Validate
	maxUploadBytes int64
}

func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		validator:      core.NewValidator(),
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes mounts the self-scoped profile endpoints. Every role may
// use them; the caller's id always comes from the token.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/profile", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.GetProfile)
		r.Put("/", h.UpdateProfile)
		r.Post("/upload-kyc", h.UploadKYC)
		r.Get("/documents", h.ListDocuments)
	})
}

// RegisterAdminRoutes expects r to already require the admin role.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Get("/{userID}/documents", h.GetUserDocuments)
		r.Post("/{userID}/approve-kyc", h.ApproveKYC)
		r.Post("/{userID}/reject-kyc", h.RejectKYC)
		r.Post("/{userID}/suspend", h.SuspendUser)
		r.Post("/{userID}/activate", h.ActivateUser)
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, ProfileResponse{User: ToUserResponse(user)})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req UpdateProfileRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, ProfileResponse{User: ToUserResponse(user)})
}

func (h *Handler) UploadKYC(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit := h.maxUploadBytes + multipartOverhead

	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.BadRequest(w, h.tooLargeMessage())
			return
		}
		core.BadRequest(w, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // in-memory parts only

	docType := strings.TrimSpace(r.FormValue("document_type"))
	if _, ok := documentTypes[docType]; !ok {
		core.JSONError(w, core.ValidationError([]core.FieldError{{
			Field:   "document_type",
			Message: "must be one of: gst_certificate pan_card trade_license other",
		}}))
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		core.BadRequest(w, "No file uploaded")
		return
	}
	defer file.Close() //nolint:errcheck // read-only multipart part

	if header.Size > h.maxUploadBytes {
		core.BadRequest(w, h.tooLargeMessage())
		return
	}

	doc, err := h.service.UploadKYC(r.Context(), userID, docType, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedFileType):
			core.BadRequest(w, "Only PDF, JPG and PNG files are allowed")
		case errors.Is(err, ErrUploadsDisabled):
			core.JSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "Document uploads are temporarily unavailable",
			})
		default:
			writeUserError(w, err)
		}
		return
	}

	core.Created(w, UploadResponse{
		Message:  "Document uploaded successfully",
		Document: ToDocumentResponse(doc),
	})
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("File too large, maximum size is %d MB", h.maxUploadBytes>>20)
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	docs, err := h.service.ListDocuments(r.Context(), userID)
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, DocumentsResponse{Documents: ToDocumentResponseList(docs)})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListUsersParams{
		Role:      q.Get("role"),
		KYCStatus: q.Get("kyc_status"),
		Search:    strings.TrimSpace(q.Get("search")),
	}
	page := core.PageFromRequest(r)

	users, total, err := h.service.ListUsers(r.Context(), params, page)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToUserResponseList(users), page, total)
}

func (h *Handler) GetUserDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.UserDocuments(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, DocumentsResponse{Documents: ToDocumentResponseList(docs)})
}

func (h *Handler) ApproveKYC(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())

	user, err := h.service.ApproveKYC(r.Context(), adminID, chi.URLParam(r, "userID"))
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, adminActionResponse("KYC approved", user))
}

func (h *Handler) RejectKYC(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())

	var req RejectKYCRequest
	if r.ContentLength != 0 {
		if !core.DecodeAndValidate(w, r, h.validator, &req) {
			return
		}
	}

	user, err := h.service.RejectKYC(
		r.Context(),
		adminID,
		chi.URLParam(r, "userID"),
		strings.TrimSpace(req.Reason),
	)
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, adminActionResponse("KYC rejected", user))
}

func (h *Handler) SuspendUser(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())

	user, err := h.service.Suspend(r.Context(), adminID, chi.URLParam(r, "userID"))
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, adminActionResponse("User suspended", user))
}

func (h *Handler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())

	user, err := h.service.Activate(r.Context(), adminID, chi.URLParam(r, "userID"))
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, adminActionResponse("User activated", user))
}

func adminActionResponse(message string, u *User) map[string]any {
	return map[string]any{
		"message": message,
		"user":    ToUserResponse(u),
	}
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "User")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	case errors.Is(err, ErrCannotSuspendAdmin):
		core.Forbidden(w, "Admin accounts cannot be suspended")
	default:
		core.InternalServerError(w, err)
	}
}
