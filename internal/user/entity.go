// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID            string    `db:"id"`
	Email         string    `db:"email"`
	PasswordHash  string    `db:"password_hash"`
	Name          string    `db:"name"`
	Role          string    `db:"role"`
	City          *string   `db:"city"`
	State         *string   `db:"state"`
	CompanyName   *string   `db:"company_name"`
	KYCStatus     string    `db:"kyc_status"`
	IsActive      bool      `db:"is_active"`
	EmailVerified bool      `db:"email_verified"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Document struct {
	ID                 string    `db:"id"`
	UserID             string    `db:"user_id"`
	DocumentType       string    `db:"document_type"`
	FileURL            string    `db:"file_url"`
	CloudinaryPublicID string    `db:"cloudinary_public_id"`
	UploadedAt         time.Time `db:"uploaded_at"`
}

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

const (
	KYCPending  = "pending"
	KYCApproved = "approved"
	KYCRejected = "rejected"
)

const (
	DocGSTCertificate = "gst_certificate"
	DocPANCard        = "pan_card"
	DocTradeLicense   = "trade_license"
	DocOther          = "other"
)
