package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/aliceh1389k-lgtm/shop-mvp/internal/config"
)

// Synthetic outcome codes for calls that never produced a gateway response
// envelope. Negative and reserved so they cannot collide with provider codes.
const (
	CodeTransportError = -998
	CodeInvalidBody    = -999
)

// Provider response codes the state machine interprets. Everything else is
// passed through untouched.
const (
	CodeOK              = 100
	CodeAlreadyVerified = 101
	CodeRateLimited     = -12
)

// Outcome is the normalized result of one gateway call. Code is nil when the
// response matched none of the known envelope shapes. Raw holds the body (or
// a synthetic envelope) verbatim for the attempt ledger.
type Outcome struct {
	Code      *int
	Message   string
	Authority string
	RefID     *string
	Raw       json.RawMessage
}

func (o Outcome) CodeIs(c int) bool { return o.Code != nil && *o.Code == c }

type PaymentRequest struct {
	Amount      int64
	CallbackURL string
	Description string
	Metadata    map[string]string
}

// Gateway is what the payment service needs from the provider. Calls never
// return an error: transport failures come back as Outcomes with a synthetic
// code so the caller treats them like any gateway-reported failure.
type Gateway interface {
	RequestPayment(ctx context.Context, req PaymentRequest) Outcome
	VerifyPayment(ctx context.Context, authority string, amount int64) Outcome
	StartPayURL(authority string) string
}

// Client talks to ZarinPal's v4 payment API.
type Client struct {
	cfg  config.Zarinpal
	http *http.Client

	// endpoint overrides for tests; empty means derive from cfg.Sandbox
	requestURL string
	verifyURL  string
	startPay   string
}

func NewClient(cfg config.Zarinpal) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}
}

func (c *Client) endpoints() (requestURL, verifyURL, startPay string) {
	if c.requestURL != "" {
		return c.requestURL, c.verifyURL, c.startPay
	}
	if c.cfg.Sandbox {
		return "https://sandbox.zarinpal.com/pg/v4/payment/request.json",
			"https://sandbox.zarinpal.com/pg/v4/payment/verify.json",
			"https://sandbox.zarinpal.com/pg/StartPay/"
	}
	return "https://payment.zarinpal.com/pg/v4/payment/request.json",
		"https://payment.zarinpal.com/pg/v4/payment/verify.json",
		"https://www.zarinpal.com/pg/StartPay/"
}

// StartPayURL is pure string composition; the redirect target for a live
// authority.
func (c *Client) StartPayURL(authority string) string {
	_, _, startPay := c.endpoints()
	return startPay + authority
}

func (c *Client) RequestPayment(ctx context.Context, in PaymentRequest) Outcome {
	requestURL, _, _ := c.endpoints()
	return c.postJSON(ctx, requestURL, map[string]any{
		"merchant_id":  c.cfg.MerchantID,
		"amount":       in.Amount,
		"currency":     c.cfg.Currency,
		"callback_url": in.CallbackURL,
		"description":  in.Description,
		"metadata":     in.Metadata,
	})
}

func (c *Client) VerifyPayment(ctx context.Context, authority string, amount int64) Outcome {
	_, verifyURL, _ := c.endpoints()
	return c.postJSON(ctx, verifyURL, map[string]any{
		"merchant_id": c.cfg.MerchantID,
		"amount":      amount,
		"authority":   authority,
	})
}

func (c *Client) postJSON(ctx context.Context, url string, payload map[string]any) Outcome {
	body, err := json.Marshal(payload)
	if err != nil {
		return syntheticOutcome(CodeTransportError, fmt.Sprintf("encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return syntheticOutcome(CodeTransportError, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return syntheticOutcome(CodeTransportError, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return syntheticOutcome(CodeTransportError, fmt.Sprintf("read response: %v", err))
	}
	if !json.Valid(raw) {
		return syntheticOutcome(CodeInvalidBody, fmt.Sprintf("non-JSON response (HTTP %d)", resp.StatusCode))
	}
	return parseEnvelope(raw)
}

// syntheticOutcome builds the same envelope shape the gateway uses for
// errors, so ledger rows for transport failures read like any other attempt.
func syntheticOutcome(code int, msg string) Outcome {
	raw, _ := json.Marshal(map[string]any{
		"data":   nil,
		"errors": map[string]any{"code": code, "message": msg},
	})
	return parseEnvelope(raw)
}

// parseEnvelope extracts code/message/authority/ref_id from the three
// envelope shapes ZarinPal is known to answer with:
//
//	{"data": {"code": 100, "message": "...", "authority": "...", "ref_id": ...}, "errors": []}
//	{"data": null, "errors": {"code": -12, "message": "..."}}
//	{"data": null, "errors": [{"code": -12, "message": "..."}]}
//
// Anything else degrades to a nil code and an empty message; it never fails.
func parseEnvelope(raw []byte) Outcome {
	out := Outcome{Raw: append(json.RawMessage(nil), raw...)}

	var env map[string]any
	if err := json.Unmarshal(raw, &env); err != nil {
		return out
	}

	if data, ok := env["data"].(map[string]any); ok {
		if code, ok := intField(data, "code"); ok {
			out.Code = &code
			out.Message, _ = data["message"].(string)
		}
		if a, ok := data["authority"].(string); ok {
			out.Authority = a
		}
		out.RefID = refIDField(data)
	}
	if out.Code != nil {
		return out
	}

	switch errs := env["errors"].(type) {
	case map[string]any:
		if code, ok := intField(errs, "code"); ok {
			out.Code = &code
		}
		out.Message, _ = errs["message"].(string)
	case []any:
		if len(errs) > 0 {
			if e0, ok := errs[0].(map[string]any); ok {
				if code, ok := intField(e0, "code"); ok {
					out.Code = &code
				}
				out.Message, _ = e0["message"].(string)
			}
		}
	}
	return out
}

func intField(m map[string]any, key string) (int, bool) {
	f, ok := m[key].(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// refIDField accepts both ref_id and refId, as number or string.
func refIDField(data map[string]any) *string {
	v, ok := data["ref_id"]
	if !ok || v == nil {
		v = data["refId"]
	}
	switch t := v.(type) {
	case string:
		return &t
	case float64:
		s := strconv.FormatInt(int64(t), 10)
		return &s
	}
	return nil
}
