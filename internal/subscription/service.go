// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wattgrid/marketplace-api/internal/audit"
	"github.com/wattgrid/marketplace-api/internal/config"
	"github.com/wattgrid/marketplace-api/internal/core"
	"github.com/wattgrid/marketplace-api/internal/notify"
	"github.com/wattgrid/marketplace-api/internal/payment"
)

var (
	ErrUnknownPlan       = errors.New("unknown plan")
	ErrInvalidSignature  = errors.New("invalid payment signature")
	ErrOrderMismatch     = errors.New("order does not belong to caller")
	ErrAmountMismatch    = errors.New("order amount does not match plan price")
	ErrPaymentIncomplete = errors.New("payment not completed")
)

type Gateway interface {
	CreateOrder(ctx context.Context, req payment.CreateOrderRequest) (*payment.Order, error)
	FetchOrder(ctx context.Context, orderID string) (*payment.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// QuotaCounter counts a seller's quotations created at or after since.
type QuotaCounter interface {
	CountSince(ctx context.Context, sellerID string, since time.Time) (int, error)
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

type Service struct {
	repo    Repository
	gateway Gateway
	quota   QuotaCounter
	auditor Auditor
	cfg     config.MarketplaceConfig
	now     func() time.Time
}

func NewService(
	repo Repository,
	gateway Gateway,
	quota QuotaCounter,
	auditor Auditor,
	cfg config.MarketplaceConfig,
) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		quota:   quota,
		auditor: auditor,
		cfg:     cfg,
		now:     time.Now,
	}
}

func (s *Service) Plans() []Plan {
	plans := make([]Plan, 0, len(PlanTypes))
	for _, pt := range PlanTypes {
		price, _ := s.cfg.PlanPrice(pt)
		meta := planScopes[pt]
		plans = append(plans, Plan{
			PlanType: pt,
			Name:     meta.name,
			Price:    price,
			Currency: s.cfg.Currency,
			TermDays: s.cfg.SubscriptionTermDays,
			Scope:    meta.scope,
		})
	}
	return plans
}

// Active returns the seller's most recent active subscription, or nil when
// the seller is on the free tier.
func (s *Service) Active(ctx context.Context, userID string) (*Subscription, error) {
	today := core.Today(s.now())

	sub, err := s.repo.Active(ctx, userID, today)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil //nolint:nilnil // absence means free tier
	}
	if err != nil {
		return nil, err
	}
	if !sub.ActiveOn(today) {
		return nil, nil //nolint:nilnil // lapsed rows count as free tier
	}
	return sub, nil
}

// FreeTier reports quota usage for the current calendar month.
func (s *Service) FreeTier(ctx context.Context, sellerID string) (FreeTier, error) {
	used, err := s.quota.CountSince(ctx, sellerID, core.MonthStart(s.now()))
	if err != nil {
		return FreeTier{}, fmt.Errorf("count monthly quotations: %w", err)
	}
	return NewFreeTier(s.cfg.FreeMonthlyQuotations, used), nil
}

func (s *Service) Current(ctx context.Context, userID string) (*CurrentResponse, error) {
	sub, err := s.Active(ctx, userID)
	if err != nil {
		return nil, err
	}

	if sub != nil {
		resp := ToSubscriptionResponse(sub)
		return &CurrentResponse{Subscription: &resp}, nil
	}

	tier, err := s.FreeTier(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CurrentResponse{FreeTier: &tier}, nil
}

// CreateOrder opens a gateway order for a plan. No subscription row exists
// until the payment is verified.
func (s *Service) CreateOrder(
	ctx context.Context,
	userID, planType string,
) (*OrderResponse, error) {
	price, ok := s.cfg.PlanPrice(planType)
	if !ok {
		return nil, ErrUnknownPlan
	}

	order, err := s.gateway.CreateOrder(ctx, payment.CreateOrderRequest{
		Amount:   price,
		Currency: s.cfg.Currency,
		Receipt:  newReceipt(),
		Notes: map[string]string{
			"user_id":   userID,
			"plan_type": planType,
		},
	})
	if err != nil {
		return nil, err
	}

	return &OrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    s.gateway.KeyID(),
		PlanType: planType,
	}, nil
}

// Verify confirms a checkout callback and activates the plan recorded on the
// order. The signature, the order owner and the amount are all checked
// before anything is written.
func (s *Service) Verify(
	ctx context.Context,
	userID string,
	req VerifyRequest,
) (*Subscription, error) {
	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		return nil, ErrInvalidSignature
	}

	order, err := s.gateway.FetchOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if order.Notes["user_id"] != userID {
		return nil, ErrOrderMismatch
	}

	planType := order.Notes["plan_type"]
	price, ok := s.cfg.PlanPrice(planType)
	if !ok {
		return nil, ErrUnknownPlan
	}
	if order.Amount != price {
		return nil, ErrAmountMismatch
	}
	if order.Status != payment.OrderStatusPaid && order.Status != payment.OrderStatusAttempted {
		return nil, ErrPaymentIncomplete
	}

	start := core.Today(s.now())
	paymentID := req.PaymentID
	sub := &Subscription{
		ID:                    uuid.New().String(),
		UserID:                userID,
		PlanType:              planType,
		AmountPaid:            float64(price) / 100,
		Status:                StatusActive,
		StartDate:             start,
		EndDate:               start.AddDate(0, 0, s.cfg.SubscriptionTermDays),
		PaymentGatewayOrderID: order.ID,
		PaymentID:             &paymentID,
	}

	if err := s.repo.ReplaceActive(ctx, sub); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionSubscriptionActivate,
		ResourceType: "subscription",
		ResourceID:   sub.ID,
		Details: map[string]any{
			"plan_type":  planType,
			"order_id":   order.ID,
			"payment_id": paymentID,
			"end_date":   sub.EndDate.Format(dateLayout),
		},
	})

	return sub, nil
}

// SellersCovering lists recipients for a new enquiry notification.
func (s *Service) SellersCovering(
	ctx context.Context,
	city, state string,
) ([]notify.Recipient, error) {
	sellers, err := s.repo.SellersCovering(ctx, city, state, core.Today(s.now()))
	if err != nil {
		return nil, err
	}

	out := make([]notify.Recipient, len(sellers))
	for i, seller := range sellers {
		out[i] = notify.Recipient{UserID: seller.ID, Email: seller.Email, Name: seller.Name}
	}
	return out, nil
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
	page core.Page,
) ([]AdminSubscription, int, error) {
	return s.repo.List(ctx, params, page)
}

func newReceipt() string {
	return "sub_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:24]
}

var _ notify.SellerDirectory = (*Service)(nil)
