package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rl1809/rocket-cart/internal/adapter/notify"
	"github.com/rl1809/rocket-cart/internal/core/domain"
	"github.com/rl1809/rocket-cart/internal/core/service"
)

type CartService interface {
	Cart() domain.Cart
	AddOrIncrement(ctx context.Context, productID int64) error
	Remove(ctx context.Context, productID int64) error
	SetAmount(ctx context.Context, productID int64, amount int) error
}

// NotificationFeed exposes the most recent user-facing messages.
type NotificationFeed interface {
	Messages() []notify.Message
}

type HTTPHandler struct {
	cart    CartService
	feed    NotificationFeed
	log     logrus.FieldLogger
	timeout time.Duration
}

type SetAmountHTTPRequest struct {
	Amount *int `json:"amount"`
}

type LineView struct {
	ID       int64       `json:"id"`
	Title    string      `json:"title"`
	Price    json.Number `json:"price"`
	ImageURL string      `json:"imageUrl"`
	Amount   int         `json:"amount"`
	Subtotal json.Number `json:"subtotal"`
}

type CartView struct {
	Items     []LineView  `json:"items"`
	Total     json.Number `json:"total"`
	ItemCount int         `json:"itemCount"`
}

type CartHTTPResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Cart    *CartView `json:"cart,omitempty"`
}

type NotificationsHTTPResponse struct {
	Notifications []notify.Message `json:"notifications"`
}

// NewHTTPHandler serves the cart API. feed may be nil, in which case the
// notifications route is not mounted. A positive timeout bounds every request.
func NewHTTPHandler(cart CartService, feed NotificationFeed, log logrus.FieldLogger, timeout time.Duration) *HTTPHandler {
	return &HTTPHandler{cart: cart, feed: feed, log: log, timeout: timeout}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)
	if h.timeout > 0 {
		r.Use(h.deadline)
	}

	r.Get("/health", h.HealthCheck)
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items/{productID}", h.AddItem)
		r.Put("/items/{productID}", h.SetAmount)
		r.Delete("/items/{productID}", h.RemoveItem)
		if h.feed != nil {
			r.Get("/notifications", h.Notifications)
		}
	})

	return otelhttp.NewHandler(r, "cart-api")
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CartHTTPResponse{Success: true, Cart: newCartView(h.cart.Cart())})
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	err := h.cart.AddOrIncrement(r.Context(), productID)
	h.respond(w, err, service.MsgAdded, service.MsgAddFailed)
}

func (h *HTTPHandler) SetAmount(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	var req SetAmountHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount == nil {
		writeJSON(w, http.StatusBadRequest, CartHTTPResponse{Message: "invalid request body"})
		return
	}

	err := h.cart.SetAmount(r.Context(), productID, *req.Amount)
	h.respond(w, err, service.MsgUpdated, service.MsgUpdateFailed)
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	err := h.cart.Remove(r.Context(), productID)
	h.respond(w, err, service.MsgRemoved, service.MsgRemoveFailed)
}

func (h *HTTPHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NotificationsHTTPResponse{Notifications: h.feed.Messages()})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) respond(w http.ResponseWriter, err error, success, failure string) {
	view := newCartView(h.cart.Cart())
	if err != nil {
		writeJSON(w, statusFor(err), CartHTTPResponse{
			Success: false,
			Message: service.Message(err, failure),
			Cart:    view,
		})
		return
	}

	writeJSON(w, http.StatusOK, CartHTTPResponse{Success: true, Message: success, Cart: view})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrOutOfStock):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrProductNotInCart), errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrStockCheckFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func newCartView(c domain.Cart) *CartView {
	items := make([]LineView, 0, len(c))
	for _, p := range c {
		items = append(items, LineView{
			ID:       p.ID,
			Title:    p.Title,
			Price:    number(p.Price),
			ImageURL: p.ImageURL,
			Amount:   p.Amount,
			Subtotal: number(p.Subtotal()),
		})
	}
	return &CartView{Items: items, Total: number(c.Total()), ItemCount: c.ItemCount()}
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, CartHTTPResponse{Message: "invalid product id"})
		return 0, false
	}
	return id, true
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deadline bounds the request context. Handlers map an expired deadline to
// 504 themselves, so nothing is written here.
func (h *HTTPHandler) deadline(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *HTTPHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		h.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
		}).Info("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
