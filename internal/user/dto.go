// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UpdateProfileRequest struct {
	Name        *string `json:"name,omitempty"         validate:"omitempty,min=1,max=100"`
	City        *string `json:"city,omitempty"         validate:"omitempty,min=1,max=100"`
	State       *string `json:"state,omitempty"        validate:"omitempty,min=1,max=100"`
	CompanyName *string `json:"company_name,omitempty" validate:"omitempty,max=200"`
}

type RejectKYCRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type UserResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	City          *string   `json:"city"`
	State         *string   `json:"state"`
	CompanyName   *string   `json:"company_name"`
	KYCStatus     string    `json:"kyc_status"`
	IsActive      bool      `json:"is_active"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type DocumentResponse struct {
	ID           string    `json:"id"`
	DocumentType string    `json:"document_type"`
	FileURL      string    `json:"file_url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type ProfileResponse struct {
	User UserResponse `json:"user"`
}

type DocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

type UploadResponse struct {
	Message  string           `json:"message"`
	Document DocumentResponse `json:"document"`
}

type ListUsersParams struct {
	Role      string
	KYCStatus string
	Search    string
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		City:          u.City,
		State:         u.State,
		CompanyName:   u.CompanyName,
		KYCStatus:     u.KYCStatus,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}

func ToDocumentResponse(d *Document) DocumentResponse {
	return DocumentResponse{
		ID:           d.ID,
		DocumentType: d.DocumentType,
		FileURL:      d.FileURL,
		UploadedAt:   d.UploadedAt,
	}
}

func ToDocumentResponseList(docs []Document) []DocumentResponse {
	responses := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		responses = append(responses, ToDocumentResponse(&docs[i]))
	}
	return responses
}
