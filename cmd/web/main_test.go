package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/server"
	"superstore-dashboard/internal/services"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

// Test helper to create analytics with test data
func newTestAnalytics() *services.Analytics {
	a := services.NewAnalytics(services.WithLogger(testLogger))
	date := time.Date(2013, 4, 2, 0, 0, 0, 0, time.UTC)
	a.SetData([]models.Record{
		{OrderID: "CA-1", CustomerID: "C1", CustomerName: "Ann", ProductID: "P1", ProductName: "Binder",
			OrderDate: date, ShipDate: date.AddDate(0, 0, 3), Region: "Central", Segment: "Consumer",
			Category: "Office Supplies", SubCategory: "Binders", ShipMode: "Standard Class",
			Salesperson: "Kelly", Sales: 120, Profit: 30, Quantity: 2, Discount: 0.1},
		{OrderID: "CA-2", CustomerID: "C2", CustomerName: "Ben", ProductID: "P2", ProductName: "Chair",
			OrderDate: date.AddDate(0, 2, 0), ShipDate: date.AddDate(0, 2, 1), Region: "West", Segment: "Corporate",
			Category: "Furniture", SubCategory: "Chairs", ShipMode: "Same Day",
			Salesperson: "Anna", Sales: 480, Profit: -60, Quantity: 1, Discount: 0.4},
		{OrderID: "CA-3", CustomerID: "C1", CustomerName: "Ann", ProductID: "P3", ProductName: "Headset",
			OrderDate: date.AddDate(1, 0, 0), ShipDate: date.AddDate(1, 0, 5), Region: "Central", Segment: "Consumer",
			Category: "Technology", SubCategory: "Accessories", ShipMode: "Second Class",
			Salesperson: "Kelly", Sales: 90, Profit: 25, Quantity: 3},
	})
	return a
}

func newTestServer(a *services.Analytics) *server.Server {
	templateHandlers := &server.TemplateHandlers{Dashboard: dashboardPage(a, testLogger)}
	return server.NewServer(a, testLogger, templateHandlers)
}

// Integration tests for HTTP routes
func TestServer_Routes(t *testing.T) {
	srv := newTestServer(newTestAnalytics())

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/api/dashboard", http.StatusOK, "application/json"},
		{"/api/kpis", http.StatusOK, "application/json"},
		{"/api/monthly-trend", http.StatusOK, "application/json"},
		{"/api/breakdown/region", http.StatusOK, "application/json"},
		{"/api/breakdown/ship_mode?sort=profit_desc", http.StatusOK, "application/json"},
		{"/api/discount-profit", http.StatusOK, "application/json"},
		{"/api/top/customer", http.StatusOK, "application/json"},
		{"/api/top/sub_category?limit=1", http.StatusOK, "application/json"},
		{"/api/sample?seed=1", http.StatusOK, "application/json"},
		{"/api/records", http.StatusOK, "application/json"},
		{"/api/summary", http.StatusOK, "application/json"},
		{"/api/filters", http.StatusOK, "application/json"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/api/breakdown/country", http.StatusNotFound, "application/json"},
		{"/api/kpis?start=tomorrow", http.StatusBadRequest, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.expectedStatus, w.Body.String())
			}

			ct := w.Header().Get("Content-Type")
			if !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}

			// Validate JSON responses
			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

// Test JSON API responses
func TestServer_JSONResponse(t *testing.T) {
	srv := newTestServer(newTestAnalytics())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/top/customer?region=Central", nil)
	srv.ServeHTTP(w, r)

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in response")
	}
	if data["filter"] != "region=Central" {
		t.Errorf("filter = %v, want region=Central", data["filter"])
	}
	if data["matched"] != float64(2) {
		t.Errorf("matched = %v, want 2", data["matched"])
	}

	result, ok := data["result"].([]any)
	if !ok || len(result) != 1 {
		t.Fatalf("expected a single ranked customer, got %v", data["result"])
	}
	item := result[0].(map[string]any)
	if item["key"] != "Ann" || item["value"] != float64(210) || item["rank"] != float64(1) {
		t.Errorf("unexpected ranking entry %v", item)
	}
}

// Test Server-Sent Events route
func TestServer_SSERoute(t *testing.T) {
	srv := newTestServer(newTestAnalytics())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/sse/dashboard?region=West", nil)

	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	// Check for SSE headers
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content-type = %q, should contain 'text/event-stream'", ct)
	}

	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("cache-control = %q, want 'no-cache'", cc)
	}

	body := w.Body.String()
	for _, want := range []string{`id="kpi-cards"`, "$480.00", "1 records match", "topSalespeopleData"} {
		if !strings.Contains(body, want) {
			t.Errorf("stream should contain %q", want)
		}
	}
}

// Before the dataset is loaded the page still renders, data routes report 503
func TestServer_NotLoaded(t *testing.T) {
	srv := newTestServer(services.NewAnalytics(services.WithLogger(testLogger)))

	tests := []struct {
		path   string
		status int
	}{
		{"/", http.StatusOK},
		{"/health", http.StatusOK},
		{"/sse/dashboard", http.StatusServiceUnavailable},
		{"/api/kpis", http.StatusServiceUnavailable},
		{"/api/filters", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

// Test health endpoint
func TestServer_HandleHealth(t *testing.T) {
	srv := newTestServer(newTestAnalytics())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode health JSON: %v", err)
	}

	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	healthData, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected health data in response")
	}

	if status, ok := healthData["status"].(string); !ok || status != "healthy" {
		t.Errorf("health status = %v, want 'healthy'", healthData["status"])
	}

	if _, ok := healthData["timestamp"]; !ok {
		t.Error("health response should include timestamp")
	}
}

// Test error handling for invalid methods
func TestServer_ErrorHandling(t *testing.T) {
	srv := newTestServer(newTestAnalytics())

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"POST", "/api/kpis", http.StatusMethodNotAllowed},
		{"PUT", "/", http.StatusMethodNotAllowed},
		{"DELETE", "/health", http.StatusMethodNotAllowed},
		{"PATCH", "/api/top/product", http.StatusMethodNotAllowed},
		{"POST", "/sse/dashboard", http.StatusMethodNotAllowed},
		{"GET", "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

// Test dashboard page rendering
func TestDashboardPage(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	dashboardPage(newTestAnalytics(), testLogger)(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if cc := w.Header().Get("Cache-Control"); cc != cacheMaxAge {
		t.Errorf("cache-control = %q, want %q", cc, cacheMaxAge)
	}

	body := w.Body.String()
	if !strings.Contains(body, "Sales &amp; Profitability Dashboard") {
		t.Error("dashboard should contain title")
	}

	expectedComponents := []string{
		"Key Performance Indicators",
		"Monthly Sales Trend",
		"Sales by Region",
		"Top 10 Most Profitable Products",
		"<option>Central</option>",
		"<option>Same Day</option>",
		`min="2013-04-02" max="2014-04-02"`,
	}

	for _, component := range expectedComponents {
		if !strings.Contains(body, component) {
			t.Errorf("dashboard should contain '%s'", component)
		}
	}
}
