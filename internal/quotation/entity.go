// AngelaMos | 2026
// entity.go

package quotation

import (
	"fmt"
	"time"
)

const (
	StatusSubmitted = "submitted"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
)

const (
	TierFree       = "free"
	TierSubscribed = "subscribed"
)

type Quotation struct {
	ID             string    `db:"id"`
	EnquiryID      string    `db:"enquiry_id"`
	SellerID       string    `db:"seller_id"`
	TotalPrice     float64   `db:"total_price"`
	DeliveryDays   int       `db:"delivery_days"`
	WarrantyPeriod *string   `db:"warranty_period"`
	PaymentTerms   *string   `db:"payment_terms"`
	Notes          *string   `db:"notes"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
}

// SellerQuotation is a seller's own quotation with the enquiry it answers.
type SellerQuotation struct {
	Quotation
	EnquiryTitle  string `db:"enquiry_title"`
	EnquiryCity   string `db:"enquiry_city"`
	EnquiryState  string `db:"enquiry_state"`
	EnquiryStatus string `db:"enquiry_status"`
}

// EnquiryQuotation is a quotation as the enquiry's buyer sees it.
type EnquiryQuotation struct {
	Quotation
	SellerName    string  `db:"seller_name"`
	SellerCompany *string `db:"seller_company"`
	SellerCity    *string `db:"seller_city"`
	SellerKYC     string  `db:"seller_kyc_status"`
}

// EnquiryInfo is the slice of an enquiry the gate needs.
type EnquiryInfo struct {
	ID      string
	BuyerID string
	Title   string
	Status  string
}

// QuotaExceededError carries the numbers returned with a free-tier 403.
type QuotaExceededError struct {
	Limit int
	Used  int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly quotation limit reached: %d of %d", e.Used, e.Limit)
}
