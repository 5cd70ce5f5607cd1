// AngelaMos | 2026
// handler.go

package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wattgrid/marketplace-api/internal/core"
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

// RegisterRoutes mounts the public account endpoints. Login has its own
// limiter; every endpoint that issues or checks a code shares the OTP one.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	loginLimiter, otpLimiter func(http.Handler) http.Handler,
) {
	r.With(loginLimiter).Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(otpLimiter)
		r.Post("/register", h.Register)
		r.Post("/verify-otp", h.VerifyOTP)
		r.Post("/resend-otp", h.ResendOTP)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			core.JSONError(w, core.DuplicateError("Email already registered"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, RegisterResponse{
		Message: "Registration successful. Check your email for the verification code.",
		User:    toUserResponse(user),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			core.Unauthorized(w, "Invalid email or password")
		case errors.Is(err, ErrEmailNotVerified):
			core.Forbidden(w, "Please verify your email before logging in")
		case errors.Is(err, ErrAccountInactive):
			core.JSONError(w, core.AccountSuspendedError())
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, resp)
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		writeOTPError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "Email verified successfully"})
}

func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.service.ResendOTP(r.Context(), req.Email); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, MessageResponse{
		Message: "If the account exists and is unverified, a new code has been sent",
	})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, MessageResponse{
		Message: "If the account exists, a password reset code has been sent",
	})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		writeOTPError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "Password reset successfully"})
}

func writeOTPError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOTPNotFound):
		core.BadRequest(w, "No OTP found")
	case errors.Is(err, ErrOTPExpired):
		core.BadRequest(w, "OTP expired")
	case errors.Is(err, ErrOTPAttemptsExceeded):
		core.BadRequest(w, "Maximum OTP attempts exceeded")
	case errors.Is(err, ErrOTPInvalid):
		core.BadRequest(w, "Invalid OTP")
	default:
		core.InternalServerError(w, err)
	}
}
