// AngelaMos | 2026
// dto.go

package subscription

import (
	"time"
)

const dateLayout = "2006-01-02"

type CreateOrderRequest struct {
	PlanType string `json:"plan_type" validate:"required,oneof=local state national"`
}

type VerifyRequest struct {
	OrderID   string `json:"razorpay_order_id"   validate:"required,max=100"`
	PaymentID string `json:"razorpay_payment_id" validate:"required,max=100"`
	Signature string `json:"razorpay_signature"  validate:"required,hexadecimal"`
}

type OrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
	PlanType string `json:"plan_type"`
}

type ListParams struct {
	Status   string
	PlanType string
}

type AdminSubscription struct {
	Subscription
	UserEmail   string  `db:"user_email"`
	UserName    string  `db:"user_name"`
	CompanyName *string `db:"company_name"`
}

type SubscriptionResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	PlanType   string    `json:"plan_type"`
	AmountPaid float64   `json:"amount_paid"`
	Status     string    `json:"status"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	OrderID    string    `json:"payment_gateway_order_id"`
	PaymentID  *string   `json:"payment_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type AdminSubscriptionResponse struct {
	SubscriptionResponse
	UserEmail   string  `json:"user_email"`
	UserName    string  `json:"user_name"`
	CompanyName *string `json:"company_name"`
}

type CurrentResponse struct {
	Subscription *SubscriptionResponse `json:"subscription"`
	FreeTier     *FreeTier             `json:"free_tier"`
}

type PlansResponse struct {
	Plans []Plan `json:"plans"`
}

func ToSubscriptionResponse(s *Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:         s.ID,
		UserID:     s.UserID,
		PlanType:   s.PlanType,
		AmountPaid: s.AmountPaid,
		Status:     s.Status,
		StartDate:  s.StartDate.Format(dateLayout),
		EndDate:    s.EndDate.Format(dateLayout),
		OrderID:    s.PaymentGatewayOrderID,
		PaymentID:  s.PaymentID,
		CreatedAt:  s.CreatedAt,
	}
}

func ToAdminSubscriptionList(subs []AdminSubscription) []AdminSubscriptionResponse {
	out := make([]AdminSubscriptionResponse, len(subs))
	for i := range subs {
		out[i] = AdminSubscriptionResponse{
			SubscriptionResponse: ToSubscriptionResponse(&subs[i].Subscription),
			UserEmail:            subs[i].UserEmail,
			UserName:             subs[i].UserName,
			CompanyName:          subs[i].CompanyName,
		}
	}
	return out
}
