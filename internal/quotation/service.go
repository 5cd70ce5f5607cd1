// AngelaMos | 2026
// service.go

package quotation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wattgrid/marketplace-api/internal/audit"
	"github.com/wattgrid/marketplace-api/internal/core"
	"github.com/wattgrid/marketplace-api/internal/notify"
	"github.com/wattgrid/marketplace-api/internal/subscription"
)

var (
	ErrEnquiryNotFound = errors.New("enquiry not found")
	ErrEnquiryClosed   = errors.New("enquiry is not open")
	ErrAlreadyQuoted   = errors.New("quotation already submitted")
)

const enquiryStatusOpen = "open"

type EnquiryProvider interface {
	EnquiryForQuote(ctx context.Context, enquiryID string) (*EnquiryInfo, error)
}

type SubscriptionResolver interface {
	Active(ctx context.Context, userID string) (*subscription.Subscription, error)
}

type QuotationNotifier interface {
	QuotationCreated(ev notify.QuotationCreated)
}

type Recorder interface {
	QuotaRejected()
	QuotationCreated(tier string)
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

type Service struct {
	repo          Repository
	enquiries     EnquiryProvider
	subscriptions SubscriptionResolver
	notifier      QuotationNotifier
	recorder      Recorder
	auditor       Auditor
	freeLimit     int
	now           func() time.Time
}

func NewService(
	repo Repository,
	enquiries EnquiryProvider,
	subscriptions SubscriptionResolver,
	notifier QuotationNotifier,
	recorder Recorder,
	auditor Auditor,
	freeLimit int,
) *Service {
	return &Service{
		repo:          repo,
		enquiries:     enquiries,
		subscriptions: subscriptions,
		notifier:      notifier,
		recorder:      recorder,
		auditor:       auditor,
		freeLimit:     freeLimit,
		now:           time.Now,
	}
}

// Create runs the submission gate. Checks short-circuit in order: the
// enquiry exists, it is open, the seller has not quoted on it, and a seller
// without an active subscription is under the monthly quota. The existence
// pre-check is racy; the unique constraint on (enquiry_id, seller_id) is
// what guarantees one quotation per seller.
func (s *Service) Create(
	ctx context.Context,
	sellerID, enquiryID string,
	req CreateQuotationRequest,
) (*Quotation, error) {
	enquiry, err := s.enquiries.EnquiryForQuote(ctx, enquiryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrEnquiryNotFound
		}
		return nil, fmt.Errorf("get enquiry: %w", err)
	}

	if enquiry.Status != enquiryStatusOpen {
		return nil, ErrEnquiryClosed
	}

	exists, err := s.repo.Exists(ctx, enquiryID, sellerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyQuoted
	}

	tier, err := s.checkQuota(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	q := &Quotation{
		ID:             uuid.New().String(),
		EnquiryID:      enquiry.ID,
		SellerID:       sellerID,
		TotalPrice:     req.TotalPrice,
		DeliveryDays:   req.DeliveryDays,
		WarrantyPeriod: optional(req.WarrantyPeriod),
		PaymentTerms:   optional(req.PaymentTerms),
		Notes:          optional(req.Notes),
	}

	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}

	s.recorder.QuotationCreated(tier)

	s.auditor.Record(ctx, audit.Entry{
		UserID:       sellerID,
		Action:       audit.ActionQuotationCreate,
		ResourceType: "quotation",
		ResourceID:   q.ID,
		Details: map[string]any{
			"enquiry_id":  enquiry.ID,
			"total_price": q.TotalPrice,
			"tier":        tier,
		},
	})

	s.notifier.QuotationCreated(notify.QuotationCreated{
		QuotationID:  q.ID,
		EnquiryID:    enquiry.ID,
		EnquiryTitle: enquiry.Title,
		BuyerID:      enquiry.BuyerID,
		SellerID:     sellerID,
		TotalPrice:   q.TotalPrice,
		DeliveryDays: q.DeliveryDays,
	})

	return q, nil
}

// checkQuota returns the tier the quotation is charged to. Subscribed
// sellers are unlimited; everyone else gets freeLimit per calendar month.
func (s *Service) checkQuota(ctx context.Context, sellerID string) (string, error) {
	ctx, span := core.StartSpan(ctx, "quotation.check_quota")
	defer span.End()

	sub, err := s.subscriptions.Active(ctx, sellerID)
	if err != nil {
		return "", fmt.Errorf("resolve subscription: %w", err)
	}
	if sub != nil {
		return TierSubscribed, nil
	}

	used, err := s.repo.CountSince(ctx, sellerID, core.MonthStart(s.now()))
	if err != nil {
		return "", err
	}

	if subscription.NewFreeTier(s.freeLimit, used).Exhausted() {
		s.recorder.QuotaRejected()
		core.AddSpanEvent(ctx, "quotation.quota_rejected",
			attribute.Int("quota.limit", s.freeLimit),
			attribute.Int("quota.used", used),
		)
		return "", &QuotaExceededError{Limit: s.freeLimit, Used: used}
	}

	return TierFree, nil
}

func (s *Service) ListBySeller(
	ctx context.Context,
	sellerID string,
	page core.Page,
) ([]SellerQuotation, int, error) {
	return s.repo.ListBySeller(ctx, sellerID, page)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
