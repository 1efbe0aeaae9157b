// mockgateway is a tiny stand-in for ZarinPal for local development: it
// issues authorities, renders a fake StartPay page with pay/cancel links
// pointing at the store's callback, and answers verify calls.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"sync"
)

type server struct {
	callbackURL string
	failCode    int // when non-zero, request/verify answer with this error code

	mu     sync.Mutex
	nextID int64
	known  map[string]bool
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	callback := flag.String("callback", "http://localhost:8080/payments/zarinpal/callback", "store callback URL")
	failCode := flag.Int("fail-code", 0, "answer every call with this gateway error code (e.g. -12)")
	flag.Parse()

	s := &server{
		callbackURL: *callback,
		failCode:    *failCode,
		nextID:      rand.Int63n(900000) + 100000,
		known:       map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /pg/v4/payment/request.json", s.handleRequest)
	mux.HandleFunc("POST /pg/v4/payment/verify.json", s.handleVerify)
	mux.HandleFunc("GET /pg/StartPay/", s.handleStartPay)

	log.Printf("mock gateway on %s (callback %s)", *addr, *callback)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

func (s *server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if s.failCode != 0 {
		writeJSON(w, map[string]any{
			"data":   nil,
			"errors": map[string]any{"code": s.failCode, "message": "simulated failure"},
		})
		return
	}

	s.mu.Lock()
	authority := fmt.Sprintf("A%035d", s.nextID)
	s.nextID++
	s.known[authority] = true
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"data": map[string]any{
			"code":      100,
			"message":   "Success",
			"authority": authority,
			"fee_type":  "Merchant",
			"fee":       0,
		},
		"errors": []any{},
	})
}

func (s *server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Authority string `json:"authority"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	s.mu.Lock()
	ok := s.known[payload.Authority]
	s.mu.Unlock()

	if s.failCode != 0 || !ok {
		writeJSON(w, map[string]any{
			"data":   nil,
			"errors": map[string]any{"code": -51, "message": "session not found or failed"},
		})
		return
	}

	writeJSON(w, map[string]any{
		"data": map[string]any{
			"code":      100,
			"message":   "Verified",
			"ref_id":    rand.Int63n(9000000000) + 1000000000,
			"card_pan":  "502229******1234",
			"fee_type":  "Merchant",
			"fee":       0,
		},
		"errors": []any{},
	})
}

func (s *server) handleStartPay(w http.ResponseWriter, r *http.Request) {
	authority := strings.TrimPrefix(r.URL.Path, "/pg/StartPay/")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html><body>
<h1>Mock gateway</h1>
<p>Authority: %s</p>
<p><a href="%s?Authority=%s&Status=OK">Pay</a></p>
<p><a href="%s?Authority=%s&Status=NOK">Cancel</a></p>
</body></html>`, authority, s.callbackURL, authority, s.callbackURL, authority)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
