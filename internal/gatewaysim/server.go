// Package gatewaysim is a local stand-in for the hosted payment gateway. It issues tokens, takes
// payment orders, "pays" them on the hosted page and reports the resulting transactions.
package gatewaysim

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	d "github.com/fjod/foodcart/domain"
	"github.com/fjod/foodcart/internal/gateway"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	StatusError   = "E"
	StatusPending = "A"

	firstOrderCode = 1000000000000000
)

// StatusSource decides the outcome of each simulated payment.
type StatusSource interface {
	Status() string
}

// RandomStatus finalizes 95% of payments, declines most of the rest and leaves the odd one pending.
type RandomStatus struct{}

func (RandomStatus) Status() string {
	return calcStatus(rand.IntN(101)) // 101 because IntN is exclusive of the upper bound
}

func calcStatus(n int) string {
	if n < 95 {
		return gateway.StatusFinalized
	}
	if n == 100 {
		return StatusPending
	}
	return StatusError
}

// FixedStatus gives every payment the same status.
type FixedStatus string

func (f FixedStatus) Status() string {
	return string(f)
}

type paymentOrder struct {
	code      string
	request   gateway.OrderRequest
	currency  d.Currency
	createdAt time.Time
}

type transaction struct {
	id        string
	order     *paymentOrder
	statusID  string
	createdAt time.Time
}

type Server struct {
	clientID     string
	clientSecret string
	status       StatusSource
	logger       *zap.Logger
	now          func() time.Time

	mu           sync.Mutex
	tokens       map[string]time.Time
	orders       map[string]*paymentOrder
	transactions map[string]*transaction
	nextCode     int64
}

func New(clientID, clientSecret string, status StatusSource, logger *zap.Logger) *Server {
	if status == nil {
		status = RandomStatus{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		clientID:     clientID,
		clientSecret: clientSecret,
		status:       status,
		logger:       logger,
		now:          time.Now,
		tokens:       make(map[string]time.Time),
		orders:       make(map[string]*paymentOrder),
		transactions: make(map[string]*transaction),
		nextCode:     firstOrderCode,
	}
}

// Handler serves the accounts, API and hosted checkout endpoints from one origin.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/connect/token", s.token)
	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Post("/checkout/v2/orders", s.createOrder)
		r.Get("/checkout/v2/transactions/{transaction_id}", s.getTransaction)
	})
	r.Get("/web/checkout", s.checkoutPage)
	r.Get("/web/checkout/result", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("payment processed, you can close this page"))
	})
	return r
}

const tokenTTL = time.Hour

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	id, secret, ok := r.BasicAuth()
	if !ok || id != s.clientID || secret != s.clientSecret {
		respondError(w, http.StatusUnauthorized, "invalid_client")
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		respondError(w, http.StatusBadRequest, "unsupported_grant_type")
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = s.now().Add(tokenTTL)
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"expires_in":   int(tokenTTL.Seconds()),
		"token_type":   "Bearer",
	})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		expires, known := s.tokens[token]
		s.mu.Unlock()
		if !ok || !known || s.now().After(expires) {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req gateway.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	currency, ok := d.CurrencyByNumeric(req.CurrencyCode)
	if !ok {
		respondError(w, http.StatusBadRequest, "unsupported currencyCode")
		return
	}

	s.mu.Lock()
	code := strconv.FormatInt(s.nextCode, 10)
	s.nextCode++
	s.orders[code] = &paymentOrder{code: code, request: req, currency: currency, createdAt: s.now()}
	s.mu.Unlock()

	s.logger.Info("payment order created",
		zap.String("order_code", code),
		zap.Int64("amount", req.Amount),
		zap.String("merchant_trns", req.MerchantTrns))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	// orderCode is a bare JSON number, as the real gateway sends it
	_, _ = w.Write([]byte(`{"orderCode":` + code + `}`))
}

// checkoutPage pays the order straight away and redirects to the result page.
func (s *Server) checkoutPage(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("ref")

	s.mu.Lock()
	order, ok := s.orders[code]
	var tx *transaction
	if ok {
		tx = &transaction{id: uuid.NewString(), order: order, statusID: s.status.Status(), createdAt: s.now()}
		s.transactions[tx.id] = tx
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "unknown payment order", http.StatusNotFound)
		return
	}
	s.logger.Info("payment attempted",
		zap.String("order_code", code),
		zap.String("transaction_id", tx.id),
		zap.String("status", tx.statusID))

	q := url.Values{
		"t":       {tx.id},
		"s":       {code},
		"lang":    {"en-GB"},
		"eventId": {"0"},
		"eci":     {"1"},
	}
	http.Redirect(w, r, "/web/checkout/result?"+q.Encode(), http.StatusFound)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "transaction_id")

	s.mu.Lock()
	tx, ok := s.transactions[id]
	s.mu.Unlock()
	if !ok {
		respondError(w, http.StatusNotFound, "transaction not found")
		return
	}

	o := tx.order
	respondJSON(w, http.StatusOK, map[string]any{
		"statusId":     tx.statusID,
		"amount":       decimal.New(o.request.Amount, -o.currency.Exponent),
		"orderCode":    json.Number(o.code),
		"email":        o.request.Customer.Email,
		"fullName":     o.request.Customer.FullName,
		"currencyCode": o.currency.Numeric,
		"insDate":      tx.createdAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		"merchantTrns": o.request.MerchantTrns,
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
