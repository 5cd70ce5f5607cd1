// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync/atomic"
)

var exposeErrors atomic.Bool

// SetExposeErrors toggles raw error text and stack traces on 500 bodies.
// Only development builds turn this on.
func SetExposeErrors(expose bool) {
	exposeErrors.Store(expose)
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

func JSONError(w http.ResponseWriter, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		switch {
		case errors.Is(err, ErrNotFound):
			appErr = NotFoundError("Resource")
		case errors.Is(err, ErrForbidden):
			appErr = ForbiddenError("")
		case errors.Is(err, ErrUnauthorized):
			appErr = UnauthorizedError("")
		default:
			InternalServerError(w, err)
			return
		}
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		InternalServerError(w, appErr)
		return
	}

	body := map[string]any{"error": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	for k, v := range appErr.Extra {
		if k == "error" || k == "errors" {
			continue
		}
		body[k] = v
	}

	JSON(w, appErr.StatusCode, body)
}

func BadRequest(w http.ResponseWriter, message string) {
	JSONError(w, BadRequestError(message))
}

func Unauthorized(w http.ResponseWriter, message string) {
	JSONError(w, UnauthorizedError(message))
}

func Forbidden(w http.ResponseWriter, message string) {
	JSONError(w, ForbiddenError(message))
}

func NotFound(w http.ResponseWriter, resource string) {
	JSONError(w, NotFoundError(resource))
}

func InternalServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)

	body := map[string]any{"error": "Internal server error"}
	if exposeErrors.Load() && err != nil {
		body["details"] = err.Error()
		body["stack"] = string(debug.Stack())
	}

	JSON(w, http.StatusInternalServerError, body)
}

type PaginationMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func NewPaginationMeta(page, limit, total int) PaginationMeta {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return PaginationMeta{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}
}

type PaginatedResponse struct {
	Data       any            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

func Paginated(w http.ResponseWriter, data any, page Page, total int) {
	OK(w, PaginatedResponse{
		Data:       data,
		Pagination: NewPaginationMeta(page.Page, page.Limit, total),
	})
}
