package payments

import (
	"context"

	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/orders"
)

// resolveOrder recovers which order a gateway callback refers to. The
// callback is only guaranteed to carry the authority, so the lookup degrades:
// the explicit hint if the caller supplied one, then the newest REQUEST
// attempt in the ledger, then the newest order whose current session token
// matches.
func (s *Service) resolveOrder(ctx context.Context, authority, orderHint string) (orders.Order, bool) {
	var o orders.Order

	if orderHint != "" {
		if err := s.db.WithContext(ctx).First(&o, "id = ?", orderHint).Error; err == nil {
			return o, true
		}
	}

	if att, err := s.ledger.LatestRequestByAuthority(ctx, authority); err == nil {
		if err := s.db.WithContext(ctx).First(&o, "id = ?", att.OrderID).Error; err == nil {
			return o, true
		}
	}

	err := s.db.WithContext(ctx).
		Where("payment_session_id = ?", authority).
		Order("created_at DESC").
		First(&o).Error
	return o, err == nil
}
