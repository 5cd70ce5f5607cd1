// AngelaMos | 2026
// audit.go

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/wattgrid/marketplace-api/internal/core"
	"github.com/wattgrid/marketplace-api/internal/middleware"
)

const (
	ActionUserRegister         = "user.register"
	ActionUserLogin            = "user.login"
	ActionUserVerifyEmail      = "user.verify_email"
	ActionUserPasswordReset    = "user.password_reset"
	ActionProfileUpdate        = "user.profile_update"
	ActionEnquiryCreate        = "enquiry.create"
	ActionEnquiryStatus        = "enquiry.status_change"
	ActionEnquiryDelete        = "enquiry.delete"
	ActionQuotationCreate      = "quotation.create"
	ActionSubscriptionActivate = "subscription.activate"
	ActionKYCUpload            = "kyc.upload"
	ActionAdminKYCApprove      = "admin.kyc_approve"
	ActionAdminKYCReject       = "admin.kyc_reject"
	ActionAdminUserSuspend     = "admin.user_suspend"
	ActionAdminUserActivate    = "admin.user_activate"
)

type Entry struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
}

// Logger appends to audit_logs. Writes are best-effort: a failure is logged
// and never reaches the caller.
type Logger struct {
	db     core.DBTX
	logger *slog.Logger
}

func NewLogger(db core.DBTX, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{db: db, logger: logger}
}

func (l *Logger) Record(ctx context.Context, e Entry) {
	if err := l.insert(ctx, e); err != nil {
		core.SetSpanError(ctx, err)
		l.logger.WarnContext(ctx, "audit write failed",
			"action", e.Action,
			"resource_id", e.ResourceID,
			"error", err,
		)
	}
}

func (l *Logger) insert(ctx context.Context, e Entry) error {
	meta := middleware.GetClientMeta(ctx)

	var details any
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
		details = string(raw)
	}

	query := `
		INSERT INTO audit_logs
			(user_id, action, resource_type, resource_id, details, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := l.db.ExecContext(ctx, query,
		nullable(e.UserID),
		e.Action,
		nullable(e.ResourceType),
		nullable(e.ResourceID),
		details,
		nullable(meta.IPAddress),
		nullable(meta.UserAgent),
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
