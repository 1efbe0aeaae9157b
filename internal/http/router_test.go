package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aliceh1389k-lgtm/shop-mvp/internal/config"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/catalog"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/orders"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/payments"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
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
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&catalog.Product{}, &orders.Order{}, &orders.OrderItem{}, &payments.PaymentAttempt{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(logger, db, cfg), db
}

func baseConfig() config.Config {
	return config.Config{
		PublicBaseURL: "https://shop.test",
		AdminToken:    "secret-token",
		Zarinpal: config.Zarinpal{
			MerchantID: "merchant-1",
			Currency:   "IRT",
			Timeout:    5 * time.Second,
		},
	}
}

func do(r *gin.Engine, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRootRedirectsToProducts(t *testing.T) {
	r, _ := newTestRouter(t, baseConfig())

	w := do(r, http.MethodGet, "/", nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/products" {
		t.Fatalf("status = %d, location = %q", w.Code, w.Header().Get("Location"))
	}
}

func TestProductsEndpoints(t *testing.T) {
	r, db := newTestRouter(t, baseConfig())

	if _, err := catalog.NewRepo(db).Create(t.Context(), "Ebook", "ebook", 250000, true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := catalog.NewRepo(db).Create(t.Context(), "Hidden", "hidden", 1000, false); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := do(r, http.MethodGet, "/products", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var list struct {
		Products []map[string]any `json:"products"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Products) != 1 {
		t.Errorf("products = %d, want only the active one", len(list.Products))
	}

	if w := do(r, http.MethodGet, "/products/ebook", nil); w.Code != http.StatusOK {
		t.Errorf("detail status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/products/hidden", nil); w.Code != http.StatusNotFound {
		t.Errorf("inactive detail status = %d, want 404", w.Code)
	}
}

func TestOrderFlow(t *testing.T) {
	r, _ := newTestRouter(t, baseConfig())

	// No product with that slug yet.
	if w := do(r, http.MethodPost, "/orders/create/ebook", nil); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestOrderCreateAndDetail(t *testing.T) {
	r, db := newTestRouter(t, baseConfig())
	if _, err := catalog.NewRepo(db).Create(t.Context(), "Ebook", "ebook", 250000, true); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := do(r, http.MethodPost, "/orders/create/ebook", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body)
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, "/orders/") {
		t.Fatalf("location = %q", loc)
	}

	w = do(r, http.MethodGet, loc, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("detail status = %d", w.Code)
	}
	var detail struct {
		Status        string `json:"status"`
		TotalIRR      int64  `json:"total_irr"`
		ComputedTotal int64  `json:"computed_total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Status != orders.StatusPendingPayment {
		t.Errorf("status = %q", detail.Status)
	}
	if detail.TotalIRR != 250000 || detail.ComputedTotal != 250000 {
		t.Errorf("totals = %d / %d", detail.TotalIRR, detail.ComputedTotal)
	}
}

func TestPaymentStart_ReusesExistingSession(t *testing.T) {
	r, db := newTestRouter(t, baseConfig())

	o := orders.Order{
		ID:               uuid.NewString(),
		Status:           orders.StatusPendingPayment,
		Currency:         "IRR",
		TotalIRR:         5000,
		PaymentProvider:  payments.ProviderName,
		PaymentSessionID: "A-LIVE",
		CreatedAt:        time.Now(),
	}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	// An existing session token short-circuits to the gateway's pay page
	// without any network call.
	w := do(r, http.MethodPost, "/payments/start/"+o.ID, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if loc := w.Header().Get("Location"); !strings.HasSuffix(loc, "/pg/StartPay/A-LIVE") {
		t.Errorf("location = %q", loc)
	}
}

func TestPaymentStart_UnknownOrder(t *testing.T) {
	r, _ := newTestRouter(t, baseConfig())

	if w := do(r, http.MethodPost, "/payments/start/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCallback_MissingAuthority(t *testing.T) {
	r, _ := newTestRouter(t, baseConfig())

	w := do(r, http.MethodGet, payments.CallbackPath+"?Status=OK", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == "" || body["request_id"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestCallback_UnresolvableRedirectsToCatalog(t *testing.T) {
	r, _ := newTestRouter(t, baseConfig())

	w := do(r, http.MethodGet, payments.CallbackPath+"?Authority=A-UNKNOWN&Status=OK", nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/products" {
		t.Fatalf("status = %d, location = %q", w.Code, w.Header().Get("Location"))
	}
}

func TestAdminTokenGate(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		r, _ := newTestRouter(t, baseConfig())
		if w := do(r, http.MethodGet, "/admin/orders", nil); w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		r, _ := newTestRouter(t, baseConfig())
		w := do(r, http.MethodGet, "/admin/orders", map[string]string{"X-Admin-Token": "guess"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		r, _ := newTestRouter(t, baseConfig())
		w := do(r, http.MethodGet, "/admin/orders", map[string]string{"X-Admin-Token": "secret-token"})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body)
		}
	})

	t.Run("no token configured disables the surface", func(t *testing.T) {
		cfg := baseConfig()
		cfg.AdminToken = ""
		r, _ := newTestRouter(t, cfg)
		w := do(r, http.MethodGet, "/admin/orders", map[string]string{"X-Admin-Token": ""})
		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", w.Code)
		}
	})
}

func TestAdminMarkPaid(t *testing.T) {
	r, db := newTestRouter(t, baseConfig())

	o := orders.Order{
		ID:        uuid.NewString(),
		Status:    orders.StatusPendingPayment,
		Currency:  "IRR",
		TotalIRR:  5000,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	auth := map[string]string{"X-Admin-Token": "secret-token"}
	w := do(r, http.MethodPost, "/admin/orders/"+o.ID+"/mark-paid", auth)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}

	var got orders.Order
	if err := db.First(&got, "id = ?", o.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != orders.StatusPaid {
		t.Errorf("status = %q", got.Status)
	}

	if w := do(r, http.MethodPost, "/admin/orders/nope/mark-paid", auth); w.Code != http.StatusNotFound {
		t.Errorf("unknown order status = %d, want 404", w.Code)
	}
}
