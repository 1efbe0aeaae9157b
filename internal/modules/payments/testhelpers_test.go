package payments

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aliceh1389k-lgtm/shop-mvp/internal/config"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/orders"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	// A single connection keeps the in-memory database alive and serializes
	// transactions the way the production row lock does.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&orders.Order{}, &orders.OrderItem{}, &PaymentAttempt{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testStartPayBase = "https://gateway.test/StartPay/"

type fakeGateway struct {
	mu           sync.Mutex
	requestOut   Outcome
	verifyOut    Outcome
	requestCalls int
	verifyCalls  int
	lastRequest  PaymentRequest
	lastVerify   struct {
		Authority string
		Amount    int64
	}
}

func (f *fakeGateway) RequestPayment(_ context.Context, req PaymentRequest) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestCalls++
	f.lastRequest = req
	return f.requestOut
}

func (f *fakeGateway) VerifyPayment(_ context.Context, authority string, amount int64) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	f.lastVerify.Authority = authority
	f.lastVerify.Amount = amount
	return f.verifyOut
}

func (f *fakeGateway) StartPayURL(authority string) string {
	return testStartPayBase + authority
}

func (f *fakeGateway) calls() (requests, verifies int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requestCalls, f.verifyCalls
}

func newTestService(db *gorm.DB, gw Gateway, merchantID string) *Service {
	cfg := config.Zarinpal{
		MerchantID: merchantID,
		Currency:   CurrencyToman,
		Timeout:    5 * time.Second,
	}
	logger := testLogger()
	return NewService(db, gw, NewLedger(db, logger), cfg, "https://shop.test", logger)
}

func seedOrder(t *testing.T, db *gorm.DB, status, sessionToken string, totalIRR int64) orders.Order {
	t.Helper()

	o := orders.Order{
		ID:               uuid.NewString(),
		Status:           status,
		Currency:         "IRR",
		TotalIRR:         totalIRR,
		PaymentSessionID: sessionToken,
		CreatedAt:        time.Now(),
	}
	if sessionToken != "" {
		o.PaymentProvider = ProviderName
	}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

func reloadOrder(t *testing.T, db *gorm.DB, id string) orders.Order {
	t.Helper()

	var o orders.Order
	if err := db.First(&o, "id = ?", id).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	return o
}

func attemptsFor(t *testing.T, db *gorm.DB, orderID string) []PaymentAttempt {
	t.Helper()

	var items []PaymentAttempt
	if err := db.Order("id ASC").Find(&items, "order_id = ?", orderID).Error; err != nil {
		t.Fatalf("load attempts: %v", err)
	}
	return items
}

func intp(v int) *int { return &v }

func strp(s string) *string { return &s }
