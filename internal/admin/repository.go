// AngelaMos | 2026
// repository.go

package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/wattgrid/marketplace-api/internal/core"
)

type MarketplaceCounts struct {
	Buyers              int `db:"buyers"               json:"buyers"`
	Sellers             int `db:"sellers"              json:"sellers"`
	PendingKYC          int `db:"pending_kyc"          json:"pending_kyc"`
	SuspendedUsers      int `db:"suspended_users"      json:"suspended_users"`
	OpenEnquiries       int `db:"open_enquiries"       json:"open_enquiries"`
	TotalEnquiries      int `db:"total_enquiries"      json:"total_enquiries"`
	QuotationsThisMonth int `db:"quotations_this_month" json:"quotations_this_month"`
	ActiveSubscriptions int `db:"active_subscriptions" json:"active_subscriptions"`
}

type Repository interface {
	Counts(ctx context.Context, now time.Time) (*MarketplaceCounts, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Counts(ctx context.Context, now time.Time) (*MarketplaceCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'buyer') AS buyers,
			(SELECT COUNT(*) FROM users WHERE role = 'seller') AS sellers,
			(SELECT COUNT(*) FROM users
			 WHERE kyc_status = 'pending' AND role <> 'admin'
			   AND EXISTS (SELECT 1 FROM user_documents d WHERE d.user_id = users.id)
			) AS pending_kyc,
			(SELECT COUNT(*) FROM users WHERE is_active = FALSE) AS suspended_users,
			(SELECT COUNT(*) FROM enquiries WHERE status = 'open') AS open_enquiries,
			(SELECT COUNT(*) FROM enquiries) AS total_enquiries,
			(SELECT COUNT(*) FROM quotations WHERE created_at >= $1) AS quotations_this_month,
			(SELECT COUNT(*) FROM subscriptions
			 WHERE status = 'active' AND end_date >= $2) AS active_subscriptions`

	var counts MarketplaceCounts
	err := r.db.GetContext(ctx, &counts, query, core.MonthStart(now), core.Today(now))
	if err != nil {
		return nil, fmt.Errorf("marketplace counts: %w", err)
	}

	return &counts, nil
}
