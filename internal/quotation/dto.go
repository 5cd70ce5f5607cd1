// AngelaMos | 2026
// dto.go

package quotation

import (
	"time"
)

// CreateQuotationRequest has no seller field; the seller is always the
// authenticated caller.
type CreateQuotationRequest struct {
	TotalPrice     float64 `json:"total_price"     validate:"required,gt=0"`
	DeliveryDays   int     `json:"delivery_days"   validate:"required,gte=1,lte=3650"`
	WarrantyPeriod string  `json:"warranty_period" validate:"omitempty,max=100"`
	PaymentTerms   string  `json:"payment_terms"   validate:"omitempty,max=255"`
	Notes          string  `json:"notes"           validate:"omitempty,max=2000"`
}

type QuotationResponse struct {
	ID             string    `json:"id"`
	EnquiryID      string    `json:"enquiry_id"`
	SellerID       string    `json:"seller_id"`
	TotalPrice     float64   `json:"total_price"`
	DeliveryDays   int       `json:"delivery_days"`
	WarrantyPeriod *string   `json:"warranty_period"`
	PaymentTerms   *string   `json:"payment_terms"`
	Notes          *string   `json:"notes"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type SellerQuotationResponse struct {
	QuotationResponse
	EnquiryTitle  string `json:"enquiry_title"`
	EnquiryCity   string `json:"enquiry_city"`
	EnquiryState  string `json:"enquiry_state"`
	EnquiryStatus string `json:"enquiry_status"`
}

type EnquiryQuotationResponse struct {
	QuotationResponse
	SellerName    string  `json:"seller_name"`
	SellerCompany *string `json:"seller_company"`
	SellerCity    *string `json:"seller_city"`
	SellerKYC     string  `json:"seller_kyc_status"`
}

type CreateResponse struct {
	Message   string            `json:"message"`
	Quotation QuotationResponse `json:"quotation"`
}

func ToQuotationResponse(q *Quotation) QuotationResponse {
	return QuotationResponse{
		ID:             q.ID,
		EnquiryID:      q.EnquiryID,
		SellerID:       q.SellerID,
		TotalPrice:     q.TotalPrice,
		DeliveryDays:   q.DeliveryDays,
		WarrantyPeriod: q.WarrantyPeriod,
		PaymentTerms:   q.PaymentTerms,
		Notes:          q.Notes,
		Status:         q.Status,
		CreatedAt:      q.CreatedAt,
	}
}

func ToSellerQuotationList(quotes []SellerQuotation) []SellerQuotationResponse {
	out := make([]SellerQuotationResponse, len(quotes))
	for i := range quotes {
		out[i] = SellerQuotationResponse{
			QuotationResponse: ToQuotationResponse(&quotes[i].Quotation),
			EnquiryTitle:      quotes[i].EnquiryTitle,
			EnquiryCity:       quotes[i].EnquiryCity,
			EnquiryState:      quotes[i].EnquiryState,
			EnquiryStatus:     quotes[i].EnquiryStatus,
		}
	}
	return out
}

func ToEnquiryQuotationList(quotes []EnquiryQuotation) []EnquiryQuotationResponse {
	out := make([]EnquiryQuotationResponse, len(quotes))
	for i := range quotes {
		out[i] = EnquiryQuotationResponse{
			QuotationResponse: ToQuotationResponse(&quotes[i].Quotation),
			SellerName:        quotes[i].SellerName,
			SellerCompany:     quotes[i].SellerCompany,
			SellerCity:        quotes[i].SellerCity,
			SellerKYC:         quotes[i].SellerKYC,
		}
	}
	return out
}
