// AngelaMos | 2026
// dto.go

package enquiry

import (
	"time"

	"github.com/wattgrid/marketplace-api/internal/core"
	"github.com/wattgrid/marketplace-api/internal/quotation"
	"github.com/wattgrid/marketplace-api/internal/subscription"
)

const dateLayout = "2006-01-02"

type CreateEnquiryRequest struct {
	Title            string  `json:"title"              validate:"required,min=3,max=200"`
	Description      string  `json:"description"        validate:"required,max=5000"`
	City             string  `json:"city"               validate:"required,max=100"`
	State            string  `json:"state"              validate:"required,max=100"`
	BudgetMin        float64 `json:"budget_min"         validate:"gte=0"`
	BudgetMax        float64 `json:"budget_max"         validate:"required,gtefield=BudgetMin"`
	QuoteDeadline    string  `json:"quote_deadline"     validate:"omitempty,datetime=2006-01-02"`
	ProjectStartDate string  `json:"project_start_date" validate:"omitempty,datetime=2006-01-02"`
	DeliveryDate     string  `json:"delivery_date"      validate:"omitempty,datetime=2006-01-02"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open closed awarded"`
}

type ListParams struct {
	Status string
	City   string
}

type EnquiryResponse struct {
	ID               string    `json:"id"`
	BuyerID          string    `json:"buyer_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	City             string    `json:"city"`
	State            string    `json:"state"`
	BudgetMin        float64   `json:"budget_min"`
	BudgetMax        float64   `json:"budget_max"`
	Status           string    `json:"status"`
	QuoteDeadline    *string   `json:"quote_deadline"`
	ProjectStartDate *string   `json:"project_start_date"`
	DeliveryDate     *string   `json:"delivery_date"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type BuyerEnquiryResponse struct {
	EnquiryResponse
	QuoteCount int `json:"quote_count"`
}

type SellerEnquiryResponse struct {
	EnquiryResponse
	QuoteCount   int `json:"quote_count"`
	MyQuoteCount int `json:"my_quote_count"`
}

type AdminEnquiryResponse struct {
	EnquiryResponse
	BuyerName  string `json:"buyer_name"`
	BuyerEmail string `json:"buyer_email"`
	QuoteCount int    `json:"quote_count"`
}

type SingleResponse struct {
	Enquiry EnquiryResponse `json:"enquiry"`
}

type CreateResponse struct {
	Message string          `json:"message"`
	Enquiry EnquiryResponse `json:"enquiry"`
}

// SellerListingResponse keeps the rows under "enquiries" rather than the
// usual "data" key.
type SellerListingResponse struct {
	Enquiries    []SellerEnquiryResponse            `json:"enquiries"`
	Pagination   core.PaginationMeta                `json:"pagination"`
	Subscription *subscription.SubscriptionResponse `json:"subscription"`
	FreeTier     *subscription.FreeTier             `json:"free_tier"`
}

type QuotationsResponse struct {
	Enquiry    EnquiryResponse                      `json:"enquiry"`
	Quotations []quotation.EnquiryQuotationResponse `json:"quotations"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func ToEnquiryResponse(e *Enquiry) EnquiryResponse {
	return EnquiryResponse{
		ID:               e.ID,
		BuyerID:          e.BuyerID,
		Title:            e.Title,
		Description:      e.Description,
		City:             e.City,
		State:            e.State,
		BudgetMin:        e.BudgetMin,
		BudgetMax:        e.BudgetMax,
		Status:           e.Status,
		QuoteDeadline:    formatDate(e.QuoteDeadline),
		ProjectStartDate: formatDate(e.ProjectStartDate),
		DeliveryDate:     formatDate(e.DeliveryDate),
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func ToBuyerEnquiryList(rows []BuyerEnquiry) []BuyerEnquiryResponse {
	out := make([]BuyerEnquiryResponse, len(rows))
	for i := range rows {
		out[i] = BuyerEnquiryResponse{
			EnquiryResponse: ToEnquiryResponse(&rows[i].Enquiry),
			QuoteCount:      rows[i].QuoteCount,
		}
	}
	return out
}

func ToSellerEnquiryList(rows []SellerEnquiry) []SellerEnquiryResponse {
	out := make([]SellerEnquiryResponse, len(rows))
	for i := range rows {
		out[i] = SellerEnquiryResponse{
			EnquiryResponse: ToEnquiryResponse(&rows[i].Enquiry),
			QuoteCount:      rows[i].QuoteCount,
			MyQuoteCount:    rows[i].MyQuoteCount,
		}
	}
	return out
}

func ToAdminEnquiryList(rows []AdminEnquiry) []AdminEnquiryResponse {
	out := make([]AdminEnquiryResponse, len(rows))
	for i := range rows {
		out[i] = AdminEnquiryResponse{
			EnquiryResponse: ToEnquiryResponse(&rows[i].Enquiry),
			BuyerName:       rows[i].BuyerName,
			BuyerEmail:      rows[i].BuyerEmail,
			QuoteCount:      rows[i].QuoteCount,
		}
	}
	return out
}
