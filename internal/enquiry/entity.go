// AngelaMos | 2026
// entity.go

package enquiry

import (
	"time"
)

const (
	StatusOpen    = "open"
	StatusClosed  = "closed"
	StatusAwarded = "awarded"
	StatusDraft   = "draft"
)

// transitions lists the statuses a buyer may move an enquiry to.
var transitions = map[string][]string{
	StatusDraft: {StatusOpen, StatusClosed},
	StatusOpen:  {StatusClosed, StatusAwarded},
}

func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Enquiry struct {
	ID               string     `db:"id"`
	BuyerID          string     `db:"buyer_id"`
	Title            string     `db:"title"`
	Description      string     `db:"description"`
	City             string     `db:"city"`
	State            string     `db:"state"`
	BudgetMin        float64    `db:"budget_min"`
	BudgetMax        float64    `db:"budget_max"`
	Status           string     `db:"status"`
	QuoteDeadline    *time.Time `db:"quote_deadline"`
	ProjectStartDate *time.Time `db:"project_start_date"`
	DeliveryDate     *time.Time `db:"delivery_date"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (e *Enquiry) OwnedBy(buyerID string) bool {
	return e.BuyerID == buyerID
}

// BuyerEnquiry is an enquiry in its owner's listing.
type BuyerEnquiry struct {
	Enquiry
	QuoteCount int `db:"quote_count"`
}

// SellerEnquiry is an enquiry in the scoped seller listing.
type SellerEnquiry struct {
	Enquiry
	QuoteCount   int `db:"quote_count"`
	MyQuoteCount int `db:"my_quote_count"`
}

type AdminEnquiry struct {
	Enquiry
	BuyerName  string `db:"buyer_name"`
	BuyerEmail string `db:"buyer_email"`
	QuoteCount int    `db:"quote_count"`
}
