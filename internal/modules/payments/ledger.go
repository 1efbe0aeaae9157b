package payments

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger appends PaymentAttempt rows. It holds its own DB handle rather than
// joining the caller's transaction: an attempt row must survive a rolled-back
// payment transaction, and a failed insert must not poison one.
type Ledger struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewLedger(db *gorm.DB, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{db: db, logger: logger}
}

// Record appends one attempt row. Best effort on purpose: audit durability
// must never decide a payment's fate, so any write failure is logged and
// swallowed.
func (l *Ledger) Record(ctx context.Context, orderID, stage string, out Outcome) {
	raw := out.Raw
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}

	att := PaymentAttempt{
		OrderID:   orderID,
		Stage:     stage,
		Code:      out.Code,
		Authority: out.Authority,
		RefID:     out.RefID,
		Raw:       datatypes.JSON(raw),
		CreatedAt: time.Now(),
	}
	if err := l.db.WithContext(ctx).Create(&att).Error; err != nil {
		l.logger.ErrorContext(ctx, "payment attempt not recorded",
			"order_id", orderID, "stage", stage, "err", err)
	}
}

// LatestRequestByAuthority finds the newest REQUEST attempt carrying the
// given authority; the callback resolver uses it to recover the order when
// the order's own session token no longer matches.
func (l *Ledger) LatestRequestByAuthority(ctx context.Context, authority string) (PaymentAttempt, error) {
	var att PaymentAttempt
	err := l.db.WithContext(ctx).
		Where("stage = ? AND authority = ?", StageRequest, authority).
		Order("id DESC").
		First(&att).Error
	return att, err
}

func (l *Ledger) ListByOrder(ctx context.Context, orderID string) ([]PaymentAttempt, error) {
	var items []PaymentAttempt
	err := l.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}
