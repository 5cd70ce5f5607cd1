// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wattgrid/marketplace-api/internal/audit"
	"github.com/wattgrid/marketplace-api/internal/auth"
	"github.com/wattgrid/marketplace-api/internal/core"
	"github.com/wattgrid/marketplace-api/internal/notify"
	"github.com/wattgrid/marketplace-api/internal/storage"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrUploadsDisabled     = errors.New("document uploads are not configured")
	ErrCannotSuspendAdmin  = errors.New("admins cannot be suspended")
)

const statusCacheTTL = 60 * time.Second

var allowedDocumentMIME = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
}

type DocumentStore interface {
	Upload(ctx context.Context, r io.Reader, subfolder string) (*storage.Object, error)
	Delete(ctx context.Context, publicID string) error
}

type KYCNotifier interface {
	KYCStatusChanged(ev notify.KYCStatusChanged)
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

type Service struct {
	repo     Repository
	redis    *redis.Client
	store    DocumentStore
	notifier KYCNotifier
	auditor  Auditor
}

func NewService(
	repo Repository,
	redisClient *redis.Client,
	store DocumentStore,
	notifier KYCNotifier,
	auditor Auditor,
) *Service {
	return &Service{
		repo:     repo,
		redis:    redisClient,
		store:    store,
		notifier: notifier,
		auditor:  auditor,
	}
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) EmailExists(
	ctx context.Context,
	email string,
) (bool, error) {
	return s.repo.ExistsByEmail(ctx, strings.ToLower(email))
}

func (s *Service) Create(
	ctx context.Context,
	nu auth.NewUser,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(nu.Email),
		PasswordHash: nu.PasswordHash,
		Name:         nu.Name,
		Role:         nu.Role,
		City:         optional(nu.City),
		State:        optional(nu.State),
		CompanyName:  optional(nu.CompanyName),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// IsActive answers the per-request suspension check. Results are cached in
// Redis for a minute; suspend and activate drop the cached entry. A Redis
// failure falls through to the database.
func (s *Service) IsActive(ctx context.Context, userID string) (bool, error) {
	key := statusKey(userID)

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, key).Result()
		switch {
		case err == nil:
			return cached == "1", nil
		case !errors.Is(err, redis.Nil):
			slog.WarnContext(ctx, "account status cache read failed", "error", err)
		}
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}

	if s.redis != nil {
		val := "0"
		if user.IsActive {
			val = "1"
		}
		if err := s.redis.Set(ctx, key, val, statusCacheTTL).Err(); err != nil {
			slog.WarnContext(ctx, "account status cache write failed", "error", err)
		}
	}

	return user.IsActive, nil
}

func (s *Service) invalidateStatus(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, statusKey(userID)).Err(); err != nil {
		slog.WarnContext(ctx, "account status cache invalidation failed",
			"user_id", userID,
			"error", err,
		)
	}
}

func statusKey(userID string) string {
	return "user:active:" + userID
}

// ContactBook resolves user ids into mail recipients. It only needs the
// repository, so the notifier can be built before the Service.
type ContactBook struct {
	repo Repository
}

func NewContactBook(repo Repository) *ContactBook {
	return &ContactBook{repo: repo}
}

func (c *ContactBook) Contact(
	ctx context.Context,
	userID string,
) (notify.Recipient, error) {
	user, err := c.repo.GetByID(ctx, userID)
	if err != nil {
		return notify.Recipient{}, err
	}
	return notify.Recipient{UserID: user.ID, Email: user.Email, Name: user.Name}, nil
}

// ProfileState returns the state on a user's profile, nil when unset.
func (s *Service) ProfileState(ctx context.Context, userID string) (*string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.State == nil || strings.TrimSpace(*user.State) == "" {
		return nil, nil
	}
	return user.State, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get profile: %w", core.ErrUnauthorized)
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.City != nil {
		user.City = optional(*req.City)
	}
	if req.State != nil {
		user.State = optional(*req.State)
	}
	if req.CompanyName != nil {
		user.CompanyName = optional(*req.CompanyName)
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionProfileUpdate,
		ResourceType: "user",
		ResourceID:   userID,
	})

	return user, nil
}

// UploadKYC sniffs the file content, streams it to object storage and
// records the document. The user's KYC status goes back to pending.
func (s *Service) UploadKYC(
	ctx context.Context,
	userID, documentType string,
	file io.ReadSeeker,
) (*Document, error) {
	if s.store == nil {
		return nil, ErrUploadsDisabled
	}

	mtype, err := mimetype.DetectReader(io.LimitReader(file, 3072))
	if err != nil {
		return nil, fmt.Errorf("detect file type: %w", err)
	}
	if !isAllowedDocument(mtype) {
		return nil, ErrUnsupportedFileType
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	obj, err := s.store.Upload(ctx, file, userID)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		ID:                 uuid.New().String(),
		UserID:             userID,
		DocumentType:       documentType,
		FileURL:            obj.URL,
		CloudinaryPublicID: obj.PublicID,
	}

	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		if delErr := s.store.Delete(ctx, obj.PublicID); delErr != nil {
			slog.WarnContext(ctx, "orphaned kyc upload",
				"public_id", obj.PublicID,
				"error", delErr,
			)
		}
		return nil, err
	}

	if err := s.repo.SetKYCStatus(ctx, userID, KYCPending); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionKYCUpload,
		ResourceType: "user_document",
		ResourceID:   doc.ID,
		Details: map[string]any{
			"document_type": documentType,
			"mime":          mtype.String(),
		},
	})

	return doc, nil
}

func isAllowedDocument(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if _, ok := allowedDocumentMIME[m.String()]; ok {
			return true
		}
	}
	return false
}

func (s *Service) ListDocuments(
	ctx context.Context,
	userID string,
) ([]Document, error) {
	return s.repo.ListDocuments(ctx, userID)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
	page core.Page,
) ([]User, int, error) {
	return s.repo.List(ctx, params, page)
}

// UserDocuments lists a user's documents for review, 404 when the user
// does not exist.
func (s *Service) UserDocuments(
	ctx context.Context,
	userID string,
) ([]Document, error) {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, userID)
}

func (s *Service) ApproveKYC(ctx context.Context, adminID, userID string) (*User, error) {
	return s.setKYC(ctx, adminID, userID, KYCApproved, "")
}

func (s *Service) RejectKYC(
	ctx context.Context,
	adminID, userID, reason string,
) (*User, error) {
	return s.setKYC(ctx, adminID, userID, KYCRejected, reason)
}

func (s *Service) setKYC(
	ctx context.Context,
	adminID, userID, status, reason string,
) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetKYCStatus(ctx, userID, status); err != nil {
		return nil, err
	}
	user.KYCStatus = status

	action := audit.ActionAdminKYCApprove
	if status == KYCRejected {
		action = audit.ActionAdminKYCReject
	}
	details := map[string]any{"kyc_status": status}
	if reason != "" {
		details["reason"] = reason
	}
	s.auditor.Record(ctx, audit.Entry{
		UserID:       adminID,
		Action:       action,
		ResourceType: "user",
		ResourceID:   userID,
		Details:      details,
	})

	s.notifier.KYCStatusChanged(notify.KYCStatusChanged{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Status: status,
		Reason: reason,
	})

	return user, nil
}

func (s *Service) Suspend(ctx context.Context, adminID, userID string) (*User, error) {
	return s.setActive(ctx, adminID, userID, false)
}

func (s *Service) Activate(ctx context.Context, adminID, userID string) (*User, error) {
	return s.setActive(ctx, adminID, userID, true)
}

func (s *Service) setActive(
	ctx context.Context,
	adminID, userID string,
	active bool,
) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !active && user.IsAdmin() {
		return nil, ErrCannotSuspendAdmin
	}

	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return nil, err
	}
	user.IsActive = active

	s.invalidateStatus(ctx, userID)

	action := audit.ActionAdminUserSuspend
	if active {
		action = audit.ActionAdminUserActivate
	}
	s.auditor.Record(ctx, audit.Entry{
		UserID:       adminID,
		Action:       action,
		ResourceType: "user",
		ResourceID:   userID,
	})

	return user, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		PasswordHash:  u.PasswordHash,
		Role:          u.Role,
		City:          u.City,
		State:         u.State,
		CompanyName:   u.CompanyName,
		KYCStatus:     u.KYCStatus,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

var (
	_ auth.UserProvider  = (*Service)(nil)
	_ notify.ContactBook = (*ContactBook)(nil)
)
