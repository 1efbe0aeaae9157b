package payments

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aliceh1389k-lgtm/shop-mvp/internal/config"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/orders"
)

// LockSentinel is written into payment_session_id while a gateway request is
// in flight. It is never a value the gateway issues, so any concurrent
// initiate that reads it knows to back off instead of calling the gateway a
// second time. It only exists between phase 1 and phase 3 of Start.
const LockSentinel = "__LOCK__"

const ProviderName = "zarinpal"

const CallbackPath = "/payments/zarinpal/callback"

type Service struct {
	db          *gorm.DB
	gateway     Gateway
	ledger      *Ledger
	cfg         config.Zarinpal
	callbackURL string
	logger      *slog.Logger
}

func NewService(db *gorm.DB, gw Gateway, ledger *Ledger, cfg config.Zarinpal, publicBaseURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:          db,
		gateway:     gw,
		ledger:      ledger,
		cfg:         cfg,
		callbackURL: strings.TrimRight(publicBaseURL, "/") + CallbackPath,
		logger:      logger,
	}
}

type StartKind int

const (
	StartRedirectGateway StartKind = iota
	StartRedirectOrder
	StartInProgress
	StartConfigError
	StartRateLimited
	StartRejected
)

type StartResult struct {
	Kind        StartKind
	OrderID     string
	RedirectURL string
	GatewayCode *int
	GatewayMsg  string
}

// Start takes a pending order to the gateway's payment page.
//
// Three phases: (1) lock the order row, decide, and claim it with the
// sentinel; (2) call the gateway with no row lock held; (3) re-lock and
// commit the authority or clear the sentinel. Holding the lock across the
// network call would serialize unrelated requests behind a remote round
// trip, and the sentinel keeps the unlocked window safe.
func (s *Service) Start(ctx context.Context, orderID string) (StartResult, error) {
	var (
		res     StartResult
		o       orders.Order
		decided bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&o, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		// PAID and CANCELED orders both land back on the order page.
		if o.Status != orders.StatusPendingPayment {
			res = StartResult{Kind: StartRedirectOrder, OrderID: o.ID, RedirectURL: "/orders/" + o.ID}
			decided = true
			return nil
		}

		existing := strings.TrimSpace(o.PaymentSessionID)

		// A live authority already exists: reuse it, no new gateway call.
		if existing != "" && existing != LockSentinel {
			res = StartResult{Kind: StartRedirectGateway, OrderID: o.ID, RedirectURL: s.gateway.StartPayURL(existing)}
			decided = true
			return nil
		}

		// Someone else holds the sentinel: their gateway call is in flight.
		if existing == LockSentinel {
			res = StartResult{Kind: StartInProgress, OrderID: o.ID}
			decided = true
			return nil
		}

		// Missing credential is an operator problem, not a payment failure.
		// Abort before anything reaches the gateway; token stays empty.
		if s.cfg.MerchantID == "" {
			res = StartResult{Kind: StartConfigError, OrderID: o.ID}
			decided = true
			return nil
		}

		return tx.WithContext(ctx).Model(&orders.Order{}).
			Where("id = ?", o.ID).
			Updates(map[string]any{
				"payment_session_id": LockSentinel,
				"payment_provider":   ProviderName,
			}).Error
	})
	if err != nil {
		return StartResult{}, err
	}
	if decided {
		return res, nil
	}

	out := s.gateway.RequestPayment(ctx, PaymentRequest{
		Amount:      AmountForGateway(o.TotalIRR, s.cfg.Currency),
		CallbackURL: s.callbackURL,
		Description: "Order " + o.ID,
		Metadata:    map[string]string{"order_id": o.ID},
	})

	// Ledger write happens outside the row lock: it is append-only, needs no
	// serialization, and must land even if the commit below fails.
	s.ledger.Record(ctx, o.ID, StageRequest, out)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&o, "id = ?", o.ID).Error; err != nil {
			return err
		}

		if out.CodeIs(CodeOK) && out.Authority != "" {
			if err := tx.WithContext(ctx).Model(&orders.Order{}).
				Where("id = ?", o.ID).
				Updates(map[string]any{"payment_session_id": out.Authority}).Error; err != nil {
				return err
			}
			res = StartResult{Kind: StartRedirectGateway, OrderID: o.ID, RedirectURL: s.gateway.StartPayURL(out.Authority)}
			return nil
		}

		// Request failed: drop the sentinel so the user can retry.
		if err := tx.WithContext(ctx).Model(&orders.Order{}).
			Where("id = ?", o.ID).
			Updates(map[string]any{"payment_session_id": ""}).Error; err != nil {
			return err
		}

		kind := StartRejected
		if out.CodeIs(CodeRateLimited) {
			kind = StartRateLimited
		}
		res = StartResult{Kind: kind, OrderID: o.ID, GatewayCode: out.Code, GatewayMsg: out.Message}
		return nil
	})
	if err != nil {
		return StartResult{}, err
	}

	if res.Kind == StartRedirectGateway {
		s.logger.InfoContext(ctx, "payment session opened", "order_id", o.ID, "authority", out.Authority)
	} else {
		s.logger.WarnContext(ctx, "payment request rejected", "order_id", o.ID, "code", codeAttr(out.Code), "msg", out.Message)
	}
	return res, nil
}

type CallbackKind int

const (
	CallbackRedirectOrder CallbackKind = iota
	CallbackRedirectCatalog
	CallbackConfigError
)

type CallbackResult struct {
	Kind        CallbackKind
	OrderID     string
	RedirectURL string
	Paid        bool
}

// HandleCallback processes the gateway's return redirect. status is the
// provider's outcome flag ("OK" means the payer finished); anything else
// releases the payment session. On "OK" the amount is re-verified with the
// gateway before the order is marked paid.
func (s *Service) HandleCallback(ctx context.Context, authority, status, orderHint string) (CallbackResult, error) {
	o, ok := s.resolveOrder(ctx, authority, orderHint)
	if !ok {
		// Unauthenticated caller with a token we cannot match: send them
		// somewhere harmless rather than leaking state.
		return CallbackResult{Kind: CallbackRedirectCatalog, RedirectURL: "/products"}, nil
	}

	orderURL := "/orders/" + o.ID

	// Duplicate callback for a settled order: nothing to verify.
	if o.Status == orders.StatusPaid {
		return CallbackResult{Kind: CallbackRedirectOrder, OrderID: o.ID, RedirectURL: orderURL, Paid: true}, nil
	}

	if !strings.EqualFold(status, "OK") {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.WithContext(ctx).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&o, "id = ?", o.ID).Error; err != nil {
				return err
			}
			return tx.WithContext(ctx).Model(&orders.Order{}).
				Where("id = ?", o.ID).
				Updates(map[string]any{"payment_session_id": ""}).Error
		})
		if err != nil {
			return CallbackResult{}, err
		}
		raw, _ := json.Marshal(map[string]string{"Status": status, "Authority": authority})
		code := 0
		s.ledger.Record(ctx, o.ID, StageCancel, Outcome{Code: &code, Authority: authority, Raw: raw})
		s.logger.InfoContext(ctx, "payment canceled by payer", "order_id", o.ID, "status", status)
		return CallbackResult{Kind: CallbackRedirectOrder, OrderID: o.ID, RedirectURL: orderURL}, nil
	}

	if s.cfg.MerchantID == "" {
		return CallbackResult{Kind: CallbackConfigError, OrderID: o.ID}, nil
	}

	// Verify outside any row lock; commit the result under one.
	out := s.gateway.VerifyPayment(ctx, authority, AmountForGateway(o.TotalIRR, s.cfg.Currency))

	s.ledger.Record(ctx, o.ID, StageVerify, out)

	paid := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked orders.Order
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, "id = ?", o.ID).Error; err != nil {
			return err
		}

		// A concurrent verify won the race; keep its result.
		if locked.Status == orders.StatusPaid {
			paid = true
			return nil
		}

		if out.CodeIs(CodeOK) || out.CodeIs(CodeAlreadyVerified) {
			updates := map[string]any{
				"status":             orders.StatusPaid,
				"payment_session_id": authority, // kept as an audit value
				"payment_ref_id":     out.RefID,
			}
			if locked.PaidAt == nil {
				now := time.Now()
				updates["paid_at"] = &now
			}
			if err := tx.WithContext(ctx).Model(&orders.Order{}).
				Where("id = ?", locked.ID).
				Updates(updates).Error; err != nil {
				return err
			}
			paid = true
			return nil
		}

		// Verify failed: clear the session so the user can retry.
		return tx.WithContext(ctx).Model(&orders.Order{}).
			Where("id = ?", locked.ID).
			Updates(map[string]any{"payment_session_id": ""}).Error
	})
	if err != nil {
		return CallbackResult{}, err
	}

	if paid {
		s.logger.InfoContext(ctx, "payment verified", "order_id", o.ID, "code", codeAttr(out.Code))
	} else {
		s.logger.WarnContext(ctx, "payment verify failed", "order_id", o.ID, "code", codeAttr(out.Code), "msg", out.Message)
	}
	return CallbackResult{Kind: CallbackRedirectOrder, OrderID: o.ID, RedirectURL: orderURL, Paid: paid}, nil
}

func codeAttr(c *int) any {
	if c == nil {
		return nil
	}
	return *c
}
