// AngelaMos | 2026
// notifier.go

package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindOTP              = "otp"
	KindEnquiryCreated   = "enquiry_created"
	KindQuotationCreated = "quotation_created"
	KindKYCStatus        = "kyc_status"
)

const (
	PurposeRegistration  = "registration"
	PurposePasswordReset = "password_reset"
)

type Recipient struct {
	UserID string
	Email  string
	Name   string
}

// ContactBook resolves users into mail recipients inside the detached task,
// so the lookup never adds latency to the request.
type ContactBook interface {
	Contact(ctx context.Context, userID string) (Recipient, error)
}

// SellerDirectory lists sellers whose active subscription scope covers a
// location: local by city, state by state, national everywhere.
type SellerDirectory interface {
	SellersCovering(ctx context.Context, city, state string) ([]Recipient, error)
}

type OTPIssued struct {
	Email   string
	Name    string
	Code    string
	Purpose string
	TTL     time.Duration
}

type EnquiryCreated struct {
	EnquiryID string
	BuyerID   string
	Title     string
	City      string
	State     string
	BudgetMin float64
	BudgetMax float64
}

type QuotationCreated struct {
	QuotationID  string
	EnquiryID    string
	EnquiryTitle string
	BuyerID      string
	SellerID     string
	TotalPrice   float64
	DeliveryDays int
}

type KYCStatusChanged struct {
	UserID string
	Email  string
	Name   string
	Status string
	Reason string
}

type Notifier struct {
	dispatcher  *Dispatcher
	transport   Transport
	contacts    ContactBook
	sellers     SellerDirectory
	renderer    *renderer
	frontendURL string
}

func NewNotifier(
	dispatcher *Dispatcher,
	transport Transport,
	contacts ContactBook,
	sellers SellerDirectory,
	frontendURL string,
) *Notifier {
	return &Notifier{
		dispatcher:  dispatcher,
		transport:   transport,
		contacts:    contacts,
		sellers:     sellers,
		renderer:    newRenderer(),
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

func (n *Notifier) OTPIssued(ev OTPIssued) {
	n.dispatcher.Go(KindOTP, func(ctx context.Context) error {
		subject := "Verify your email"
		if ev.Purpose == PurposePasswordReset {
			subject = "Reset your password"
		}

		html, err := n.renderer.render(KindOTP, subject, map[string]any{
			"Name":             ev.Name,
			"Code":             ev.Code,
			"Purpose":          ev.Purpose,
			"ExpiresInMinutes": int(ev.TTL.Minutes()),
		})
		if err != nil {
			return err
		}

		return n.transport.Send(ctx, Message{
			To:      ev.Email,
			ToName:  ev.Name,
			Subject: subject,
			HTML:    html,
		})
	})
}

func (n *Notifier) EnquiryCreated(ev EnquiryCreated) {
	n.dispatcher.Go(KindEnquiryCreated, func(ctx context.Context) error {
		sellers, err := n.sellers.SellersCovering(ctx, ev.City, ev.State)
		if err != nil {
			return fmt.Errorf("resolve sellers: %w", err)
		}

		subject := "New enquiry: " + ev.Title
		var errs []error
		for _, seller := range sellers {
			html, err := n.renderer.render(KindEnquiryCreated, subject, map[string]any{
				"SellerName": seller.Name,
				"Title":      ev.Title,
				"City":       ev.City,
				"State":      ev.State,
				"Budget":     formatBudget(ev.BudgetMin, ev.BudgetMax),
				"Link":       n.frontendURL + "/seller/enquiries",
			})
			if err != nil {
				return err
			}

			if err := n.transport.Send(ctx, Message{
				To:      seller.Email,
				ToName:  seller.Name,
				Subject: subject,
				HTML:    html,
			}); err != nil {
				errs = append(errs, fmt.Errorf("seller %s: %w", seller.UserID, err))
			}
		}

		return errors.Join(errs...)
	})
}

func (n *Notifier) QuotationCreated(ev QuotationCreated) {
	n.dispatcher.Go(KindQuotationCreated, func(ctx context.Context) error {
		buyer, err := n.contacts.Contact(ctx, ev.BuyerID)
		if err != nil {
			return fmt.Errorf("resolve buyer: %w", err)
		}

		sellerName := "A seller"
		if seller, err := n.contacts.Contact(ctx, ev.SellerID); err == nil {
			sellerName = seller.Name
		}

		subject := "New quotation for " + ev.EnquiryTitle
		html, err := n.renderer.render(KindQuotationCreated, subject, map[string]any{
			"BuyerName":    buyer.Name,
			"SellerName":   sellerName,
			"EnquiryTitle": ev.EnquiryTitle,
			"TotalPrice":   formatAmount(ev.TotalPrice),
			"DeliveryDays": ev.DeliveryDays,
			"Link":         n.frontendURL + "/buyer/enquiries/" + ev.EnquiryID,
		})
		if err != nil {
			return err
		}

		return n.transport.Send(ctx, Message{
			To:      buyer.Email,
			ToName:  buyer.Name,
			Subject: subject,
			HTML:    html,
		})
	})
}

func (n *Notifier) KYCStatusChanged(ev KYCStatusChanged) {
	n.dispatcher.Go(KindKYCStatus, func(ctx context.Context) error {
		subject := "KYC verification " + ev.Status
		html, err := n.renderer.render(KindKYCStatus, subject, map[string]any{
			"Name":   ev.Name,
			"Status": ev.Status,
			"Reason": ev.Reason,
		})
		if err != nil {
			return err
		}

		return n.transport.Send(ctx, Message{
			To:      ev.Email,
			ToName:  ev.Name,
			Subject: subject,
			HTML:    html,
		})
	})
}

func formatAmount(v float64) string {
	return fmt.Sprintf("INR %.2f", v)
}

func formatBudget(lo, hi float64) string {
	return formatAmount(lo) + " - " + formatAmount(hi)
}
