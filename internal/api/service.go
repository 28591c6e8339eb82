// Package api provides the HTTP handlers for order ingestion and
// opportunity queries. Handlers validate input, delegate to the engine and
// the store, and shape JSON responses; they hold no business logic.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aodx/arbitrage-engine/internal/engine"
	"github.com/aodx/arbitrage-engine/internal/flip"
	"github.com/aodx/arbitrage-engine/internal/metrics"
	"github.com/aodx/arbitrage-engine/internal/model"
	"github.com/aodx/arbitrage-engine/internal/names"
	"github.com/aodx/arbitrage-engine/internal/store"
)

// defaultLimit is the page size when the caller does not pass one.
const defaultLimit = 100

// priceWindow bounds how far back the flip calculator looks in the
// price-history table.
const priceWindow = 2 * time.Hour

// Service handles the HTTP surface of the arbitrage engine.
type Service struct {
	store    store.Store
	engine   *engine.Engine
	calc     *flip.Calculator
	names    *names.Catalog
	wsHub    *WSHub // optional; nil disables broadcasts
	validate *validator.Validate
}

// NewService creates the HTTP service. Pass nil for hub if WebSocket
// broadcasting is not needed.
func NewService(st store.Store, eng *engine.Engine, calc *flip.Calculator, catalog *names.Catalog, hub *WSHub) *Service {
	return &Service{
		store:    st,
		engine:   eng,
		calc:     calc,
		names:    catalog,
		wsHub:    hub,
		validate: validator.New(),
	}
}

// --- Request/Response types ---

// OrderPayload is one order row as reported by the market sniffer client.
// The client reports prices in copper; ingestion converts to silver.
type OrderPayload struct {
	ID           int64  `json:"Id" validate:"required"`
	ItemTypeID   string `json:"ItemTypeId" validate:"required"`
	GroupTypeID  string `json:"ItemGroupTypeId"`
	LocationID   string `json:"LocationId" validate:"required"`
	QualityLevel int    `json:"QualityLevel" validate:"min=1,max=5"`
	Enchantment  int    `json:"EnchantmentLevel" validate:"min=0,max=4"`
	UnitPrice    int64  `json:"UnitPriceSilver" validate:"min=0"`
	Amount       int    `json:"Amount" validate:"gt=0"`
	AuctionType  string `json:"AuctionType" validate:"oneof=offer request"`
	Expires      string `json:"Expires" validate:"required"`
}

// IngestOrdersRequest is the JSON body for POST /orders/ingest.
type IngestOrdersRequest struct {
	Orders []OrderPayload `json:"Orders" validate:"required,min=1,dive"`
}

// IngestResponse reports the outcome of one ingestion batch.
type IngestResponse struct {
	Success   bool      `json:"success"`
	Processed int       `json:"processed"` // rows that actually changed the store
	Timestamp time.Time `json:"timestamp"`
}

// PricePayload is one price-history observation.
type PricePayload struct {
	ItemTypeID   string `json:"item_type_id" validate:"required"`
	LocationID   string `json:"location_id" validate:"required"`
	QualityLevel int    `json:"quality_level" validate:"min=1,max=5"`
	SellPriceMin int64  `json:"sell_price_min" validate:"min=0"`
	BuyPriceMax  int64  `json:"buy_price_max" validate:"min=0"`
	Source       string `json:"source" validate:"oneof=local external"`
}

// IngestPricesRequest is the JSON body for POST /prices/ingest.
type IngestPricesRequest struct {
	Prices []PricePayload `json:"prices" validate:"required,min=1,dive"`
}

// FlipResult is the response body for GET /opportunities/flips.
type FlipResult struct {
	Opportunities []model.FlipOpportunity `json:"opportunities"`
	Total         int                     `json:"total"`
	ComputedAt    time.Time               `json:"timestamp"`
}

// --- HTTP Handlers ---

// IngestOrders handles POST /api/v1/orders/ingest.
// The batch commits as a single atomic unit: a validation failure rejects it
// wholesale with the violated field, and a store failure writes nothing.
func (s *Service) IngestOrders(w http.ResponseWriter, r *http.Request) {
	var req IngestOrdersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.IngestRejections.Inc()
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.validate.Struct(req); err != nil {
		metrics.IngestRejections.Inc()
		writeError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	orders := make([]model.OrderSnapshot, 0, len(req.Orders))
	for i, p := range req.Orders {
		expires, err := time.Parse(time.RFC3339, p.Expires)
		if err != nil {
			metrics.IngestRejections.Inc()
			writeError(w, "Orders["+strconv.Itoa(i)+"].Expires: invalid timestamp", http.StatusBadRequest)
			return
		}
		orders = append(orders, model.OrderSnapshot{
			ID:           p.ID,
			ItemTypeID:   p.ItemTypeID,
			GroupTypeID:  p.GroupTypeID,
			LocationID:   p.LocationID,
			QualityLevel: p.QualityLevel,
			Enchantment:  p.Enchantment,
			UnitPrice:    p.UnitPrice / 10000, // copper → silver
			Amount:       p.Amount,
			AuctionType:  p.AuctionType,
			Expires:      expires,
		})
	}

	modified, err := s.store.UpsertOrders(r.Context(), orders)
	if err != nil {
		slog.Error("order batch failed", "err", err, "orders", len(orders))
		writeError(w, "snapshot store unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	metrics.OrdersIngested.WithLabelValues("modified").Add(float64(modified))
	metrics.OrdersIngested.WithLabelValues("unchanged").Add(float64(len(orders) - modified))

	batchID := uuid.New().String()
	slog.Info("orders ingested", "batch", batchID, "received", len(orders), "modified", modified)

	if s.wsHub != nil && modified > 0 {
		s.wsHub.Broadcast(WSMessage{
			Type:      "market_orders_update",
			BatchID:   batchID,
			Processed: modified,
			Timestamp: time.Now().UTC(),
		})
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		Success:   true,
		Processed: modified,
		Timestamp: time.Now().UTC(),
	})
}

// IngestPrices handles POST /api/v1/prices/ingest.
func (s *Service) IngestPrices(w http.ResponseWriter, r *http.Request) {
	var req IngestPricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	prices := make([]model.PriceObservation, 0, len(req.Prices))
	for _, p := range req.Prices {
		prices = append(prices, model.PriceObservation{
			ItemTypeID:   p.ItemTypeID,
			LocationID:   p.LocationID,
			QualityLevel: p.QualityLevel,
			SellPriceMin: p.SellPriceMin,
			BuyPriceMax:  p.BuyPriceMax,
			ObservedAt:   now,
			Source:       p.Source,
		})
	}

	if err := s.store.UpsertPrices(r.Context(), prices); err != nil {
		slog.Error("price batch failed", "err", err, "prices", len(prices))
		writeError(w, "snapshot store unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		Success:   true,
		Processed: len(prices),
		Timestamp: now,
	})
}

// DirectOpportunities handles GET /api/v1/opportunities/direct.
func (s *Service) DirectOpportunities(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)

	start := time.Now()
	result, err := s.engine.ComputeDirect(r.Context(), filter)
	if err != nil {
		slog.Error("direct computation failed", "err", err)
		writeError(w, "failed to compute opportunities: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	metrics.ComputeLatency.WithLabelValues("direct").Observe(time.Since(start).Seconds())
	metrics.OpportunitiesFound.WithLabelValues("direct").Set(float64(result.Total))

	writeJSON(w, http.StatusOK, result)
}

// EnchantOpportunities handles GET /api/v1/opportunities/enchant.
func (s *Service) EnchantOpportunities(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)

	start := time.Now()
	result, err := s.engine.ComputeEnchantment(r.Context(), filter)
	if err != nil {
		slog.Error("enchantment computation failed", "err", err)
		writeError(w, "failed to compute opportunities: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	metrics.ComputeLatency.WithLabelValues("enchant").Observe(time.Since(start).Seconds())
	metrics.OpportunitiesFound.WithLabelValues("enchant").Set(float64(result.Total))

	writeJSON(w, http.StatusOK, result)
}

// FlipOpportunities handles GET /api/v1/opportunities/flips.
// Works over the price-history table rather than live orders.
func (s *Service) FlipOpportunities(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)

	observations, err := s.store.RecentPrices(r.Context(), priceWindow)
	if err != nil {
		slog.Error("price read failed", "err", err)
		writeError(w, "failed to load price history: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	flips, total := s.calc.Find(observations, filter)
	metrics.ComputeLatency.WithLabelValues("flip").Observe(time.Since(start).Seconds())
	metrics.OpportunitiesFound.WithLabelValues("flip").Set(float64(total))

	for i := range flips {
		flips[i].ItemName = s.names.ItemName(flips[i].ItemTypeID)
	}
	if flips == nil {
		flips = []model.FlipOpportunity{}
	}

	writeJSON(w, http.StatusOK, FlipResult{
		Opportunities: flips,
		Total:         total,
		ComputedAt:    time.Now().UTC(),
	})
}

// Items handles GET /api/v1/items.
func (s *Service) Items(w http.ResponseWriter, r *http.Request) {
	items := s.names.Items()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

// Locations handles GET /api/v1/locations.
func (s *Service) Locations(w http.ResponseWriter, r *http.Request) {
	locations := s.names.Locations()
	writeJSON(w, http.StatusOK, map[string]any{
		"locations": locations,
		"count":     len(locations),
	})
}

// --- Helpers ---

// parseFilter reads the optional query parameters shared by the opportunity
// endpoints: limit, min_tier, max_tier, locations (comma-separated), min_roi.
func parseFilter(r *http.Request) engine.Filter {
	q := r.URL.Query()
	filter := engine.Filter{Limit: defaultLimit}

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := q.Get("min_tier"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MinTier = n
		}
	}
	if v := q.Get("max_tier"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MaxTier = n
		}
	}
	if v := q.Get("locations"); v != "" {
		filter.Locations = strings.Split(v, ",")
	}
	if v := q.Get("min_roi"); v != "" {
		if roi, err := decimal.NewFromString(v); err == nil {
			filter.MinROI = roi
		}
	}
	return filter
}

// validationMessage renders the first violated field of a validator error.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fe.Namespace() + ": failed " + fe.Tag() + " validation"
	}
	return "invalid payload"
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
