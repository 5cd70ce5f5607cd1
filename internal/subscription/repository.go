// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wattgrid/marketplace-api/internal/core"
)

const orderUniqueConstraint = "subscriptions_payment_gateway_order_id_key"

var ErrOrderAlreadyUsed = errors.New("payment order already used")

type Repository interface {
	Active(ctx context.Context, userID string, today time.Time) (*Subscription, error)
	ReplaceActive(ctx context.Context, sub *Subscription) error
	SellersCovering(
		ctx context.Context,
		city, state string,
		today time.Time,
	) ([]SellerContact, error)
	List(
		ctx context.Context,
		params ListParams,
		page core.Page,
	) ([]AdminSubscription, int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const subscriptionColumns = `id, user_id, plan_type, amount_paid, status, start_date, end_date,
	       payment_gateway_order_id, payment_id, created_at`

func (r *repository) Active(
	ctx context.Context,
	userID string,
	today time.Time,
) (*Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active' AND end_date >= $2
		ORDER BY created_at DESC
		LIMIT 1`

	var sub Subscription
	err := r.db.GetContext(ctx, &sub, query, userID, today)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get active subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get active subscription: %w", err)
	}

	return &sub, nil
}

// ReplaceActive cancels whatever the user currently holds and inserts sub,
// in one transaction. A reused gateway order id fails on the unique
// constraint and rolls the cancellation back.
func (r *repository) ReplaceActive(ctx context.Context, sub *Subscription) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		cancel := `
			UPDATE subscriptions
			SET status = 'cancelled'
			WHERE user_id = $1 AND status = 'active'`

		if _, err := tx.ExecContext(ctx, cancel, sub.UserID); err != nil {
			return fmt.Errorf("cancel previous subscriptions: %w", err)
		}

		insert := `
			INSERT INTO subscriptions (
				id, user_id, plan_type, amount_paid, status, start_date, end_date,
				payment_gateway_order_id, payment_id
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at`

		err := tx.GetContext(ctx, &sub.CreatedAt, insert,
			sub.ID,
			sub.UserID,
			sub.PlanType,
			sub.AmountPaid,
			sub.Status,
			sub.StartDate,
			sub.EndDate,
			sub.PaymentGatewayOrderID,
			sub.PaymentID,
		)
		if err != nil {
			if core.IsUniqueViolation(err, orderUniqueConstraint) {
				return ErrOrderAlreadyUsed
			}
			return fmt.Errorf("insert subscription: %w", err)
		}

		return nil
	})
}

type SellerContact struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
}

func (r *repository) SellersCovering(
	ctx context.Context,
	city, state string,
	today time.Time,
) ([]SellerContact, error) {
	query := `
		SELECT DISTINCT u.id, u.email, u.name
		FROM users u
		JOIN subscriptions s ON s.user_id = u.id
		WHERE u.role = 'seller'
		  AND u.is_active = TRUE
		  AND s.status = 'active'
		  AND s.end_date >= $3
		  AND (
		        (s.plan_type = 'local' AND u.city = $1)
		     OR (s.plan_type = 'state' AND u.state = $2)
		     OR s.plan_type = 'national'
		  )`

	sellers := []SellerContact{}
	if err := r.db.SelectContext(ctx, &sellers, query, city, state, today); err != nil {
		return nil, fmt.Errorf("list covering sellers: %w", err)
	}

	return sellers, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
	page core.Page,
) ([]AdminSubscription, int, error) {
	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.PlanType != "" {
		conditions = append(conditions, fmt.Sprintf("s.plan_type = $%d", argIdx))
		args = append(args, params.PlanType)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM subscriptions s WHERE " + whereClause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT s.id, s.user_id, s.plan_type, s.amount_paid, s.status, s.start_date,
		       s.end_date, s.payment_gateway_order_id, s.payment_id, s.created_at,
		       u.email AS user_email, u.name AS user_name, u.company_name
		FROM subscriptions s
		JOIN users u ON u.id = s.user_id
		WHERE %s
		ORDER BY s.created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, page.Limit, page.Offset())

	subs := []AdminSubscription{}
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}

	return subs, total, nil
}
