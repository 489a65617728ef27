package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/pkg/metrics"
	"storefront/pkg/order"
	"storefront/pkg/query"
	"storefront/pkg/storefront"
)

// SessionHeader names the session a request acts on.
const SessionHeader = "X-Session-ID"

const (
	requestTimeout = 5 * time.Second
	defaultTopN    = 5
)

// Server wires HTTP endpoints to the storefront command loop.
type Server struct {
	shop    *storefront.Service
	metrics *metrics.Registry
	logger  *zap.Logger
}

// New builds a Server. A nil logger discards output and a nil registry
// leaves /metrics unregistered.
func New(shop *storefront.Service, reg *metrics.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{shop: shop, metrics: reg, logger: logger.Named("http")}
}

// Handler exposes the JSON API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", s.listProducts)
	mux.HandleFunc("GET /api/products/top", s.topProducts)
	mux.HandleFunc("GET /api/products/{id}", s.getProduct)
	mux.HandleFunc("GET /api/categories", s.listCategories)

	mux.HandleFunc("GET /api/cart", s.getCart)
	mux.HandleFunc("POST /api/cart/items", s.addCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", s.removeCartItem)
	mux.HandleFunc("DELETE /api/cart", s.clearCart)

	mux.HandleFunc("POST /api/orders", s.createOrder)
	mux.HandleFunc("GET /api/orders", s.listOrders)
	mux.HandleFunc("GET /api/orders/{id}", s.getOrder)
	mux.HandleFunc("PUT /api/orders/{id}/status", s.updateOrderStatus)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

type productsResponse struct {
	Products []productView `json:"products"`
	Count    int           `json:"count"`
	Filtered bool          `json:"filtered"`
}

// listProducts runs the product view. The catalog is read-only, so this
// bypasses the command loop.
func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	c, err := productCriteria(r)
	if err != nil {
		s.logger.Info("product query rejected", zap.Error(err))
		s.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	products := query.Products(s.shop.Catalog().Products(), c)
	s.respondJSON(w, http.StatusOK, productsResponse{
		Products: productViews(products),
		Count:    len(products),
		Filtered: c.IsFiltered(),
	})
}

func productCriteria(r *http.Request) (query.ProductCriteria, error) {
	q := r.URL.Query()
	c := query.DefaultProductCriteria()
	c.Search = q.Get("search")
	if category := q.Get("category"); category != "" {
		c.Category = category
	}
	price, err := query.ParsePriceRange(q.Get("price"))
	if err != nil {
		return c, err
	}
	c.Price = price
	if raw := q.Get("bestSellers"); raw != "" {
		best, err := strconv.ParseBool(raw)
		if err != nil {
			return c, errors.New("bestSellers must be true or false")
		}
		c.BestSellersOnly = best
	}
	sortBy, err := query.ParseProductSort(q.Get("sort"))
	if err != nil {
		return c, err
	}
	c.SortBy = sortBy
	return c, nil
}

func (s *Server) topProducts(w http.ResponseWriter, r *http.Request) {
	n := defaultTopN
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.respondError(w, "n must be a non-negative integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	s.respondJSON(w, http.StatusOK, productViews(s.shop.Catalog().TopRated(n)))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.shop.Catalog().Get(r.PathValue("id"))
	if !ok {
		s.respondError(w, "product not found", http.StatusNotFound)
		return
	}
	s.respondJSON(w, http.StatusOK, newProductView(p))
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.shop.Catalog().Categories())
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := s.shop.Cart(ctx, sessionID(r))
	if err != nil {
		s.serviceError(w, "cart read failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

type cartItemPayload struct {
	ProductID string `json:"productId"`
}

type cartChangeResponse struct {
	Changed bool                `json:"changed"`
	Cart    storefront.CartView `json:"cart"`
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	var payload cartItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.logger.Info("cart add failed: unable to decode payload", zap.Error(err))
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.ProductID) == "" {
		s.respondError(w, "productId is required", http.StatusBadRequest)
		return
	}
	if _, ok := s.shop.Catalog().Get(payload.ProductID); !ok {
		s.respondError(w, "product not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	session := sessionID(r)
	added, err := s.shop.AddToCart(ctx, session, payload.ProductID)
	if err != nil {
		s.serviceError(w, "cart add failed", err)
		return
	}
	s.respondCartChange(ctx, w, session, added)
}

// removeCartItem is a no-op for products that are not in the cart.
func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	session := sessionID(r)
	removed, err := s.shop.RemoveFromCart(ctx, session, r.PathValue("id"))
	if err != nil {
		s.serviceError(w, "cart remove failed", err)
		return
	}
	s.respondCartChange(ctx, w, session, removed)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := s.shop.ClearCart(ctx, sessionID(r)); err != nil {
		s.serviceError(w, "cart clear failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondCartChange(ctx context.Context, w http.ResponseWriter, session string, changed bool) {
	view, err := s.shop.Cart(ctx, session)
	if err != nil {
		s.serviceError(w, "cart read failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, cartChangeResponse{Changed: changed, Cart: view})
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var shipping order.ShippingInfo
	if err := json.NewDecoder(r.Body).Decode(&shipping); err != nil {
		s.logger.Info("order creation failed: unable to decode payload", zap.Error(err))
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	created, err := s.shop.CreateOrder(ctx, sessionID(r), shipping)
	if err != nil {
		var invalid *order.ValidationError
		switch {
		case errors.As(err, &invalid):
			s.respondJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "invalid shipping info",
				"fields": invalid.Fields,
			})
		case errors.Is(err, order.ErrEmptyCart):
			s.respondError(w, err.Error(), http.StatusConflict)
		default:
			s.serviceError(w, "order creation failed", err)
		}
		return
	}
	s.respondJSON(w, http.StatusCreated, newOrderView(created))
}

// listOrders serves the admin view. Omitting page keeps the session's
// current page; changed filters always go back to page 1.
func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	c, page, err := orderCriteria(r)
	if err != nil {
		s.logger.Info("order query rejected", zap.Error(err))
		s.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := s.shop.BrowseOrders(ctx, sessionID(r), c, page)
	if err != nil {
		s.serviceError(w, "order listing failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, newOrderPageView(view))
}

func orderCriteria(r *http.Request) (query.OrderCriteria, int, error) {
	q := r.URL.Query()
	c := query.OrderCriteria{Search: q.Get("search")}
	if raw := q.Get("status"); raw != "" && raw != "all" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			return c, 0, err
		}
		c.Status = &status
	}
	dateRange, err := query.ParseDateRange(q.Get("range"))
	if err != nil {
		return c, 0, err
	}
	c.DateRange = dateRange
	page := 0
	if raw := q.Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return c, 0, errors.New("page must be a positive integer")
		}
	}
	return c, page, nil
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	found, ok, err := s.shop.Order(ctx, sessionID(r), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, "order lookup failed", err)
		return
	}
	if !ok {
		s.respondError(w, "order not found", http.StatusNotFound)
		return
	}
	s.respondJSON(w, http.StatusOK, newOrderView(found))
}

type statusPayload struct {
	Status *order.Status `json:"status"`
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var payload statusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.logger.Info("status update failed: unable to decode payload", zap.Error(err))
		s.respondError(w, "status must be incomplete or completed", http.StatusBadRequest)
		return
	}
	if payload.Status == nil {
		s.respondError(w, "status is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	session := sessionID(r)
	id := r.PathValue("id")
	updated, err := s.shop.UpdateOrderStatus(ctx, session, id, *payload.Status)
	if err != nil {
		s.serviceError(w, "status update failed", err)
		return
	}
	if !updated {
		s.respondError(w, "order not found", http.StatusNotFound)
		return
	}
	found, _, err := s.shop.Order(ctx, session, id)
	if err != nil {
		s.serviceError(w, "order lookup failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, newOrderView(found))
}

func sessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	return storefront.DefaultSessionID
}

// serviceError maps command loop failures onto status codes.
func (s *Server) serviceError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storefront.ErrBusy), errors.Is(err, storefront.ErrClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	s.logger.Warn(msg, zap.Error(err), zap.Int("status", status))
	s.respondError(w, err.Error(), status)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("response encoding failed", zap.Error(err))
	}
}

// respondError keeps JSON formatting consistent across endpoints.
func (s *Server) respondError(w http.ResponseWriter, message string, status int) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
