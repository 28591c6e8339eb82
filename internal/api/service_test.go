package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aodx/arbitrage-engine/internal/engine"
	"github.com/aodx/arbitrage-engine/internal/flip"
	"github.com/aodx/arbitrage-engine/internal/model"
	"github.com/aodx/arbitrage-engine/internal/names"
	"github.com/aodx/arbitrage-engine/internal/store"
)

func newTestService() (*Service, *store.MemoryStore) {
	st := store.NewMemoryStore()
	eng := engine.New(st, names.Empty())
	calc := flip.NewCalculator(flip.DefaultConfig())
	return NewService(st, eng, calc, names.Empty(), nil), st
}

func orderJSON(id int64, item, loc, side string, priceCopper int64, expires time.Time) string {
	return `{"Id": ` + strconv.FormatInt(id, 10) + `, "ItemTypeId": "` + item + `", "LocationId": "` + loc + `",
		"QualityLevel": 1, "EnchantmentLevel": 0, "UnitPriceSilver": ` + strconv.FormatInt(priceCopper, 10) + `,
		"Amount": 1, "AuctionType": "` + side + `", "Expires": "` + expires.Format(time.RFC3339) + `"}`
}

func TestIngestOrders_HappyPath(t *testing.T) {
	svc, st := newTestService()
	expires := time.Now().UTC().Add(time.Hour)

	body := `{"Orders": [` +
		orderJSON(1, "T4_BAG", "A", "request", 1000000, expires) + `,` +
		orderJSON(2, "T4_BAG", "B", "offer", 600000, expires) + `]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ingest", strings.NewReader(body))
	rec := httptest.NewRecorder()
	svc.IngestOrders(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp IngestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Processed != 2 {
		t.Errorf("response = %+v, want success with 2 processed", resp)
	}

	// Copper prices converted to silver on the way in.
	orders, err := st.ActiveOrders(context.Background())
	if err != nil {
		t.Fatalf("ActiveOrders: %v", err)
	}
	if len(orders) != 2 || orders[0].UnitPrice != 100 || orders[1].UnitPrice != 60 {
		t.Errorf("stored orders = %+v, want silver prices 100 and 60", orders)
	}
}

func TestIngestOrders_RepeatBatchProcessesZero(t *testing.T) {
	svc, _ := newTestService()
	expires := time.Now().UTC().Add(time.Hour)
	body := `{"Orders": [` + orderJSON(1, "T4_BAG", "A", "offer", 1000000, expires) + `]}`

	rec := httptest.NewRecorder()
	svc.IngestOrders(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("first ingest status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	svc.IngestOrders(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("second ingest status = %d", rec.Code)
	}
	var resp IngestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Processed != 0 {
		t.Errorf("processed = %d, want 0 for an unchanged batch", resp.Processed)
	}
}

func TestIngestOrders_ValidationRejectsBatchWholesale(t *testing.T) {
	svc, st := newTestService()
	expires := time.Now().UTC().Add(time.Hour)

	// Second row has an out-of-range quality; nothing may be written.
	body := `{"Orders": [` +
		orderJSON(1, "T4_BAG", "A", "offer", 1000000, expires) + `,
		{"Id": 2, "ItemTypeId": "T4_BAG", "LocationId": "B", "QualityLevel": 9,
		 "UnitPriceSilver": 1, "Amount": 1, "AuctionType": "offer", "Expires": "` +
		expires.Format(time.RFC3339) + `"}]}`

	rec := httptest.NewRecorder()
	svc.IngestOrders(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "QualityLevel") {
		t.Errorf("error body %s does not name the violated field", rec.Body)
	}
	orders, err := st.ActiveOrders(context.Background())
	if err != nil {
		t.Fatalf("ActiveOrders: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("partial write after rejected batch: %+v", orders)
	}
}

func TestIngestOrders_BadTimestamp(t *testing.T) {
	svc, _ := newTestService()
	body := `{"Orders": [{"Id": 1, "ItemTypeId": "T4_BAG", "LocationId": "A",
		"QualityLevel": 1, "UnitPriceSilver": 1, "Amount": 1,
		"AuctionType": "offer", "Expires": "yesterday"}]}`

	rec := httptest.NewRecorder()
	svc.IngestOrders(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIngestOrders_MalformedJSON(t *testing.T) {
	svc, _ := newTestService()
	rec := httptest.NewRecorder()
	svc.IngestOrders(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{nope")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIngestOrders_EmptyBatchRejected(t *testing.T) {
	svc, _ := newTestService()
	rec := httptest.NewRecorder()
	svc.IngestOrders(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Orders": []}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDirectOpportunities_EndToEnd(t *testing.T) {
	svc, st := newTestService()
	expires := time.Now().UTC().Add(time.Hour)
	if _, err := st.UpsertOrders(context.Background(), []model.OrderSnapshot{
		{ID: 1, ItemTypeID: "T4_BAG", LocationID: "A", QualityLevel: 1, UnitPrice: 100, Amount: 1, AuctionType: model.SideRequest, Expires: expires},
		{ID: 2, ItemTypeID: "T4_BAG", LocationID: "B", QualityLevel: 1, UnitPrice: 60, Amount: 1, AuctionType: model.SideOffer, Expires: expires},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := httptest.NewRecorder()
	svc.DirectOpportunities(rec, httptest.NewRequest(http.MethodGet, "/api/v1/opportunities/direct", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var result engine.DirectResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 1 || len(result.Opportunities) != 1 {
		t.Fatalf("result = %+v, want one opportunity", result)
	}
	if result.Opportunities[0].Profit != 40 {
		t.Errorf("profit = %d, want 40", result.Opportunities[0].Profit)
	}
}

func TestDirectOpportunities_FilterQueryParams(t *testing.T) {
	svc, st := newTestService()
	expires := time.Now().UTC().Add(time.Hour)
	if _, err := st.UpsertOrders(context.Background(), []model.OrderSnapshot{
		{ID: 1, ItemTypeID: "T4_BAG", LocationID: "A", QualityLevel: 1, UnitPrice: 100, Amount: 1, AuctionType: model.SideRequest, Expires: expires},
		{ID: 2, ItemTypeID: "T4_BAG", LocationID: "B", QualityLevel: 1, UnitPrice: 60, Amount: 1, AuctionType: model.SideOffer, Expires: expires},
		{ID: 3, ItemTypeID: "T5_BAG", LocationID: "A", QualityLevel: 1, UnitPrice: 500, Amount: 1, AuctionType: model.SideRequest, Expires: expires},
		{ID: 4, ItemTypeID: "T5_BAG", LocationID: "B", QualityLevel: 1, UnitPrice: 200, Amount: 1, AuctionType: model.SideOffer, Expires: expires},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := httptest.NewRecorder()
	svc.DirectOpportunities(rec, httptest.NewRequest(http.MethodGet, "/x?min_tier=5", nil))
	var result engine.DirectResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 1 || result.Opportunities[0].ItemTypeID != "T5_BAG" {
		t.Errorf("min_tier filter: got %+v", result)
	}

	rec = httptest.NewRecorder()
	svc.DirectOpportunities(rec, httptest.NewRequest(http.MethodGet, "/x?limit=1", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 2 || len(result.Opportunities) != 1 {
		t.Errorf("limit: total %d page %d, want 2/1", result.Total, len(result.Opportunities))
	}
}

func TestEnchantOpportunities_EndToEnd(t *testing.T) {
	svc, st := newTestService()
	expires := time.Now().UTC().Add(time.Hour)
	if _, err := st.UpsertOrders(context.Background(), []model.OrderSnapshot{
		{ID: 1, ItemTypeID: "T4_BAG", LocationID: "A", QualityLevel: 1, UnitPrice: 1000, Amount: 1, AuctionType: model.SideOffer, Expires: expires},
		{ID: 2, ItemTypeID: "T4_RUNE", LocationID: "A", QualityLevel: 1, UnitPrice: 10, Amount: 500, AuctionType: model.SideOffer, Expires: expires},
		{ID: 3, ItemTypeID: "T4_BAG@1", LocationID: "B", QualityLevel: 1, UnitPrice: 2200, Amount: 1, AuctionType: model.SideRequest, Expires: expires},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := httptest.NewRecorder()
	svc.EnchantOpportunities(rec, httptest.NewRequest(http.MethodGet, "/api/v1/opportunities/enchant", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var result engine.EnchantResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 1 || result.Opportunities[0].Profit != 240 {
		t.Errorf("result = %+v, want one opportunity with profit 240", result)
	}
}

func TestFlipOpportunities_EndToEnd(t *testing.T) {
	svc, st := newTestService()
	now := time.Now().UTC()
	if err := st.UpsertPrices(context.Background(), []model.PriceObservation{
		{ItemTypeID: "T4_BAG", LocationID: "A", QualityLevel: 1, SellPriceMin: 800, BuyPriceMax: 700, ObservedAt: now, Source: model.SourceExternal},
		{ItemTypeID: "T4_BAG", LocationID: "B", QualityLevel: 1, SellPriceMin: 1200, BuyPriceMax: 1000, ObservedAt: now, Source: model.SourceExternal},
	}); err != nil {
		t.Fatalf("seed prices: %v", err)
	}

	rec := httptest.NewRecorder()
	svc.FlipOpportunities(rec, httptest.NewRequest(http.MethodGet, "/api/v1/opportunities/flips", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var result FlipResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 1 || result.Opportunities[0].ProfitCommon != 95 {
		t.Errorf("result = %+v, want one flip with common profit 95", result)
	}
	if result.Opportunities[0].Staleness != flip.StalenessGreen {
		t.Errorf("staleness = %s, want green", result.Opportunities[0].Staleness)
	}
}

func TestIngestPrices_HappyPath(t *testing.T) {
	svc, st := newTestService()
	body := `{"prices": [{"item_type_id": "T4_BAG", "location_id": "A",
		"quality_level": 1, "sell_price_min": 800, "buy_price_max": 700, "source": "local"}]}`

	rec := httptest.NewRecorder()
	svc.IngestPrices(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	prices, err := st.RecentPrices(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("RecentPrices: %v", err)
	}
	if len(prices) != 1 || prices[0].Source != model.SourceLocal {
		t.Errorf("stored prices = %+v, want one local row", prices)
	}
}

func TestIngestPrices_RejectsUnknownSource(t *testing.T) {
	svc, _ := newTestService()
	body := `{"prices": [{"item_type_id": "T4_BAG", "location_id": "A",
		"quality_level": 1, "sell_price_min": 800, "buy_price_max": 700, "source": "scraped"}]}`

	rec := httptest.NewRecorder()
	svc.IngestPrices(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestItemsAndLocations(t *testing.T) {
	svc, _ := newTestService()

	rec := httptest.NewRecorder()
	svc.Items(rec, httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("items status = %d", rec.Code)
	}
	var items struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}

	rec = httptest.NewRecorder()
	svc.Locations(rec, httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("locations status = %d", rec.Code)
	}
}
