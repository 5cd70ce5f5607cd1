// AngelaMos | 2026
// entity.go

package subscription

import (
	"time"
)

const (
	PlanLocal    = "local"
	PlanState    = "state"
	PlanNational = "national"
)

const (
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

type Subscription struct {
	ID                    string    `db:"id"`
	UserID                string    `db:"user_id"`
	PlanType              string    `db:"plan_type"`
	AmountPaid            float64   `db:"amount_paid"`
	Status                string    `db:"status"`
	StartDate             time.Time `db:"start_date"`
	EndDate               time.Time `db:"end_date"`
	PaymentGatewayOrderID string    `db:"payment_gateway_order_id"`
	PaymentID             *string   `db:"payment_id"`
	CreatedAt             time.Time `db:"created_at"`
}

// ActiveOn reports status active with an end date on or after today,
// compared as calendar dates. It is the Go form of the
// `status = 'active' AND end_date >= $today` filter in the repository;
// nothing ever flips a row to expired.
func (s *Subscription) ActiveOn(today time.Time) bool {
	if s.Status != StatusActive {
		return false
	}
	y1, m1, d1 := s.EndDate.Date()
	y2, m2, d2 := today.Date()
	end := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	now := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return !end.Before(now)
}

// FreeTier is the quota block shown to sellers without a subscription.
type FreeTier struct {
	MonthlyQuotationLimit int `json:"monthly_quotation_limit"`
	MonthlyQuotationsUsed int `json:"monthly_quotations_used"`
	Remaining             int `json:"remaining"`
}

func NewFreeTier(limit, used int) FreeTier {
	return FreeTier{
		MonthlyQuotationLimit: limit,
		MonthlyQuotationsUsed: used,
		Remaining:             max(0, limit-used),
	}
}

func (f FreeTier) Exhausted() bool {
	return f.MonthlyQuotationsUsed >= f.MonthlyQuotationLimit
}

type Plan struct {
	PlanType string `json:"plan_type"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
	TermDays int    `json:"term_days"`
	Scope    string `json:"scope"`
}

var planScopes = map[string]struct{ name, scope string }{
	PlanLocal:    {"Local", "Enquiries in your city"},
	PlanState:    {"State", "Enquiries across your state"},
	PlanNational: {"National", "Enquiries from every city"},
}

var PlanTypes = []string{PlanLocal, PlanState, PlanNational}
