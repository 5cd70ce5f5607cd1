// AngelaMos | 2026
// repository.go

package enquiry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wattgrid/marketplace-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, e *Enquiry) error
	GetByID(ctx context.Context, id string) (*Enquiry, error)
	ListByBuyer(
		ctx context.Context,
		buyerID string,
		page core.Page,
	) ([]BuyerEnquiry, int, error)
	ListOpen(
		ctx context.Context,
		scope Scope,
		sellerID string,
		page core.Page,
	) ([]SellerEnquiry, int, error)
	List(
		ctx context.Context,
		params ListParams,
		page core.Page,
	) ([]AdminEnquiry, int, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const enquiryColumns = `e.id, e.buyer_id, e.title, e.description, e.city, e.state,
	       e.budget_min, e.budget_max, e.status, e.quote_deadline,
	       e.project_start_date, e.delivery_date, e.created_at, e.updated_at`

const quoteCountColumn = `(SELECT COUNT(*) FROM quotations q WHERE q.enquiry_id = e.id) AS quote_count`

func (r *repository) Create(ctx context.Context, e *Enquiry) error {
	query := `
		INSERT INTO enquiries (
			id, buyer_id, title, description, city, state, budget_min, budget_max,
			status, quote_deadline, project_start_date, delivery_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		e.ID,
		e.BuyerID,
		e.Title,
		e.Description,
		e.City,
		e.State,
		e.BudgetMin,
		e.BudgetMax,
		e.Status,
		e.QuoteDeadline,
		e.ProjectStartDate,
		e.DeliveryDate,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create enquiry: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Enquiry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("get enquiry: %w", core.ErrNotFound)
	}

	query := `SELECT ` + enquiryColumns + ` FROM enquiries e WHERE e.id = $1`

	var e Enquiry
	err := r.db.GetContext(ctx, &e, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get enquiry: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get enquiry: %w", err)
	}

	return &e, nil
}

func (r *repository) ListByBuyer(
	ctx context.Context,
	buyerID string,
	page core.Page,
) ([]BuyerEnquiry, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM enquiries WHERE buyer_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, buyerID); err != nil {
		return nil, 0, fmt.Errorf("count buyer enquiries: %w", err)
	}

	query := `
		SELECT ` + enquiryColumns + `, ` + quoteCountColumn + `
		FROM enquiries e
		WHERE e.buyer_id = $1
		ORDER BY e.created_at DESC
		LIMIT $2 OFFSET $3`

	enquiries := []BuyerEnquiry{}
	if err := r.db.SelectContext(ctx, &enquiries, query, buyerID, page.Limit, page.Offset()); err != nil {
		return nil, 0, fmt.Errorf("list buyer enquiries: %w", err)
	}

	return enquiries, total, nil
}

// scopeCondition renders the geographic predicate for scope, numbering its
// placeholder from argIdx.
func scopeCondition(scope Scope, argIdx int) (string, []any) {
	switch scope.Kind {
	case ScopeCity:
		return fmt.Sprintf("e.city = $%d", argIdx), []any{scope.Value}
	case ScopeState:
		return fmt.Sprintf("e.state = $%d", argIdx), []any{scope.Value}
	default:
		return "", nil
	}
}

func (r *repository) ListOpen(
	ctx context.Context,
	scope Scope,
	sellerID string,
	page core.Page,
) ([]SellerEnquiry, int, error) {
	conditions := []string{"e.status = 'open'"}

	countCond, countArgs := scopeCondition(scope, 1)
	if countCond != "" {
		conditions = append(conditions, countCond)
	}

	countQuery := "SELECT COUNT(*) FROM enquiries e WHERE " + strings.Join(conditions, " AND ")
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count open enquiries: %w", err)
	}

	conditions = conditions[:1]
	args := []any{sellerID}
	argIdx := 2

	cond, condArgs := scopeCondition(scope, argIdx)
	if cond != "" {
		conditions = append(conditions, cond)
		args = append(args, condArgs...)
		argIdx += len(condArgs)
	}

	query := fmt.Sprintf(`
		SELECT %s, %s,
		       (SELECT COUNT(*) FROM quotations q
		        WHERE q.enquiry_id = e.id AND q.seller_id = $1) AS my_quote_count
		FROM enquiries e
		WHERE %s
		ORDER BY e.created_at DESC
		LIMIT $%d OFFSET $%d`,
		enquiryColumns, quoteCountColumn, strings.Join(conditions, " AND "), argIdx, argIdx+1)

	args = append(args, page.Limit, page.Offset())

	enquiries := []SellerEnquiry{}
	if err := r.db.SelectContext(ctx, &enquiries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list open enquiries: %w", err)
	}

	return enquiries, total, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
	page core.Page,
) ([]AdminEnquiry, int, error) {
	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.City != "" {
		conditions = append(conditions, fmt.Sprintf("e.city ILIKE $%d", argIdx))
		args = append(args, "%"+core.EscapeLike(params.City)+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM enquiries e WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enquiries: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s, %s, u.name AS buyer_name, u.email AS buyer_email
		FROM enquiries e
		JOIN users u ON u.id = e.buyer_id
		WHERE %s
		ORDER BY e.created_at DESC
		LIMIT $%d OFFSET $%d`,
		enquiryColumns, quoteCountColumn, whereClause, argIdx, argIdx+1)

	args = append(args, page.Limit, page.Offset())

	enquiries := []AdminEnquiry{}
	if err := r.db.SelectContext(ctx, &enquiries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enquiries: %w", err)
	}

	return enquiries, total, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE enquiries
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	return core.ExecOne(ctx, r.db, "update enquiry status", query, id, status)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM enquiries WHERE id = $1`

	return core.ExecOne(ctx, r.db, "delete enquiry", query, id)
}
