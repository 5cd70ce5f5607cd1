// AngelaMos | 2026
// service.go

package enquiry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wattgrid/marketplace-api/internal/audit"
	"github.com/wattgrid/marketplace-api/internal/core"
	"github.com/wattgrid/marketplace-api/internal/notify"
	"github.com/wattgrid/marketplace-api/internal/quotation"
	"github.com/wattgrid/marketplace-api/internal/subscription"
)

var (
	ErrNotOwner          = errors.New("enquiry belongs to another buyer")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type SubscriptionResolver interface {
	Active(ctx context.Context, userID string) (*subscription.Subscription, error)
	FreeTier(ctx context.Context, sellerID string) (subscription.FreeTier, error)
}

type ProfileReader interface {
	ProfileState(ctx context.Context, userID string) (*string, error)
}

type QuotationLister interface {
	ListByEnquiry(ctx context.Context, enquiryID string) ([]quotation.EnquiryQuotation, error)
}

type EnquiryNotifier interface {
	EnquiryCreated(ev notify.EnquiryCreated)
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

type Service struct {
	repo          Repository
	subscriptions SubscriptionResolver
	profiles      ProfileReader
	quotations    QuotationLister
	notifier      EnquiryNotifier
	auditor       Auditor
}

func NewService(
	repo Repository,
	subscriptions SubscriptionResolver,
	profiles ProfileReader,
	quotations QuotationLister,
	notifier EnquiryNotifier,
	auditor Auditor,
) *Service {
	return &Service{
		repo:          repo,
		subscriptions: subscriptions,
		profiles:      profiles,
		quotations:    quotations,
		notifier:      notifier,
		auditor:       auditor,
	}
}

func (s *Service) Create(
	ctx context.Context,
	buyerID string,
	req CreateEnquiryRequest,
) (*Enquiry, error) {
	e := &Enquiry{
		ID:          uuid.New().String(),
		BuyerID:     buyerID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		City:        strings.TrimSpace(req.City),
		State:       strings.TrimSpace(req.State),
		BudgetMin:   req.BudgetMin,
		BudgetMax:   req.BudgetMax,
		Status:      StatusOpen,
	}

	var err error
	if e.QuoteDeadline, err = parseDate(req.QuoteDeadline); err != nil {
		return nil, err
	}
	if e.ProjectStartDate, err = parseDate(req.ProjectStartDate); err != nil {
		return nil, err
	}
	if e.DeliveryDate, err = parseDate(req.DeliveryDate); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:       buyerID,
		Action:       audit.ActionEnquiryCreate,
		ResourceType: "enquiry",
		ResourceID:   e.ID,
		Details: map[string]any{
			"city":  e.City,
			"state": e.State,
		},
	})

	s.notifier.EnquiryCreated(notify.EnquiryCreated{
		EnquiryID: e.ID,
		BuyerID:   buyerID,
		Title:     e.Title,
		City:      e.City,
		State:     e.State,
		BudgetMin: e.BudgetMin,
		BudgetMax: e.BudgetMax,
	})

	return e, nil
}

func (s *Service) ListByBuyer(
	ctx context.Context,
	buyerID string,
	page core.Page,
) ([]BuyerEnquiry, int, error) {
	return s.repo.ListByBuyer(ctx, buyerID, page)
}

// GetOwned loads an enquiry for its buyer. Existence is checked before
// ownership: unknown ids are ErrNotFound, foreign ones ErrNotOwner.
func (s *Service) GetOwned(ctx context.Context, buyerID, id string) (*Enquiry, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.OwnedBy(buyerID) {
		return nil, ErrNotOwner
	}
	return e, nil
}

func (s *Service) UpdateStatus(
	ctx context.Context,
	buyerID, id, status string,
) (*Enquiry, error) {
	e, err := s.GetOwned(ctx, buyerID, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(e.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, e.Status, status)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:       buyerID,
		Action:       audit.ActionEnquiryStatus,
		ResourceType: "enquiry",
		ResourceID:   id,
		Details:      map[string]any{"from": e.Status, "to": status},
	})

	e.Status = status
	return e, nil
}

func (s *Service) Delete(ctx context.Context, buyerID, id string) error {
	e, err := s.GetOwned(ctx, buyerID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, e.ID); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:       buyerID,
		Action:       audit.ActionEnquiryDelete,
		ResourceType: "enquiry",
		ResourceID:   e.ID,
		Details:      map[string]any{"title": e.Title},
	})

	return nil
}

func (s *Service) Quotations(
	ctx context.Context,
	buyerID, id string,
) (*Enquiry, []quotation.EnquiryQuotation, error) {
	e, err := s.GetOwned(ctx, buyerID, id)
	if err != nil {
		return nil, nil, err
	}

	quotes, err := s.quotations.ListByEnquiry(ctx, e.ID)
	if err != nil {
		return nil, nil, err
	}

	return e, quotes, nil
}

// ListForSeller is the scoped seller listing. Sellers without an active
// subscription see their supplied city and get the free-tier quota block;
// subscribers see the scope of their plan.
func (s *Service) ListForSeller(
	ctx context.Context,
	sellerID, city string,
	page core.Page,
) (*SellerListingResponse, error) {
	if strings.TrimSpace(city) == "" {
		return nil, ErrCityRequired
	}

	sub, err := s.subscriptions.Active(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("resolve subscription: %w", err)
	}

	var planType string
	var profileState *string
	if sub != nil {
		planType = sub.PlanType
		if planType == subscription.PlanState {
			profileState, err = s.profiles.ProfileState(ctx, sellerID)
			if err != nil {
				return nil, fmt.Errorf("load profile state: %w", err)
			}
		}
	}

	scope, err := ResolveScope(planType, city, profileState)
	if err != nil {
		return nil, err
	}

	rows, total, err := s.repo.ListOpen(ctx, scope, sellerID, page)
	if err != nil {
		return nil, err
	}

	resp := &SellerListingResponse{
		Enquiries:  ToSellerEnquiryList(rows),
		Pagination: core.NewPaginationMeta(page.Page, page.Limit, total),
	}

	if sub != nil {
		subResp := subscription.ToSubscriptionResponse(sub)
		resp.Subscription = &subResp
		return resp, nil
	}

	tier, err := s.subscriptions.FreeTier(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	resp.FreeTier = &tier

	return resp, nil
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
	page core.Page,
) ([]AdminEnquiry, int, error) {
	return s.repo.List(ctx, params, page)
}

// EnquiryForQuote exposes the fields the quotation gate checks.
func (s *Service) EnquiryForQuote(
	ctx context.Context,
	id string,
) (*quotation.EnquiryInfo, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &quotation.EnquiryInfo{
		ID:      e.ID,
		BuyerID: e.BuyerID,
		Title:   e.Title,
		Status:  e.Status,
	}, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, core.BadRequestError("Dates must use YYYY-MM-DD")
	}
	return &t, nil
}

var _ quotation.EnquiryProvider = (*Service)(nil)
