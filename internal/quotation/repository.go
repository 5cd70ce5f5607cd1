// AngelaMos | 2026
// repository.go

package quotation

import (
	"context"
	"fmt"
	"time"

	"github.com/wattgrid/marketplace-api/internal/core"
)

const uniquePerSellerConstraint = "quotations_enquiry_seller_unique"

type Repository interface {
	Create(ctx context.Context, q *Quotation) error
	Exists(ctx context.Context, enquiryID, sellerID string) (bool, error)
	CountSince(ctx context.Context, sellerID string, since time.Time) (int, error)
	ListBySeller(
		ctx context.Context,
		sellerID string,
		page core.Page,
	) ([]SellerQuotation, int, error)
	ListByEnquiry(ctx context.Context, enquiryID string) ([]EnquiryQuotation, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, q *Quotation) error {
	query := `
		INSERT INTO quotations (
			id, enquiry_id, seller_id, total_price, delivery_days,
			warranty_period, payment_terms, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING status, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		q.ID,
		q.EnquiryID,
		q.SellerID,
		q.TotalPrice,
		q.DeliveryDays,
		q.WarrantyPeriod,
		q.PaymentTerms,
		q.Notes,
	).Scan(&q.Status, &q.CreatedAt)
	if err != nil {
		if core.IsUniqueViolation(err, uniquePerSellerConstraint) {
			return fmt.Errorf("create quotation: %w", ErrAlreadyQuoted)
		}
		return fmt.Errorf("create quotation: %w", err)
	}

	return nil
}

func (r *repository) Exists(
	ctx context.Context,
	enquiryID, sellerID string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM quotations WHERE enquiry_id = $1 AND seller_id = $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, enquiryID, sellerID); err != nil {
		return false, fmt.Errorf("check quotation exists: %w", err)
	}

	return exists, nil
}

func (r *repository) CountSince(
	ctx context.Context,
	sellerID string,
	since time.Time,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM quotations
		WHERE seller_id = $1 AND created_at >= $2`

	var count int
	if err := r.db.GetContext(ctx, &count, query, sellerID, since); err != nil {
		return 0, fmt.Errorf("count quotations: %w", err)
	}

	return count, nil
}

func (r *repository) ListBySeller(
	ctx context.Context,
	sellerID string,
	page core.Page,
) ([]SellerQuotation, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM quotations WHERE seller_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, sellerID); err != nil {
		return nil, 0, fmt.Errorf("count seller quotations: %w", err)
	}

	query := `
		SELECT q.id, q.enquiry_id, q.seller_id, q.total_price, q.delivery_days,
		       q.warranty_period, q.payment_terms, q.notes, q.status, q.created_at,
		       e.title AS enquiry_title, e.city AS enquiry_city,
		       e.state AS enquiry_state, e.status AS enquiry_status
		FROM quotations q
		JOIN enquiries e ON e.id = q.enquiry_id
		WHERE q.seller_id = $1
		ORDER BY q.created_at DESC
		LIMIT $2 OFFSET $3`

	quotes := []SellerQuotation{}
	if err := r.db.SelectContext(ctx, &quotes, query, sellerID, page.Limit, page.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list seller quotations: %w", err)
	}

	return quotes, total, nil
}

func (r *repository) ListByEnquiry(
	ctx context.Context,
	enquiryID string,
) ([]EnquiryQuotation, error) {
	query := `
		SELECT q.id, q.enquiry_id, q.seller_id, q.total_price, q.delivery_days,
		       q.warranty_period, q.payment_terms, q.notes, q.status, q.created_at,
		       u.name AS seller_name, u.company_name AS seller_company,
		       u.city AS seller_city, u.kyc_status AS seller_kyc_status
		FROM quotations q
		JOIN users u ON u.id = q.seller_id
		WHERE q.enquiry_id = $1
		ORDER BY q.total_price ASC, q.created_at ASC`

	quotes := []EnquiryQuotation{}
	if err := r.db.SelectContext(ctx, &quotes, query, enquiryID); err != nil {
		return nil, fmt.Errorf("list enquiry quotations: %w", err)
	}

	return quotes, nil
}
