package server

import (
	"log/slog"
	"net/http"

	"superstore-dashboard/internal/handlers"
	"superstore-dashboard/internal/middleware"
	"superstore-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	requireData := middleware.RequireData(s.analytics.Loaded, s.logger)

	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints; filters come from the query string
	s.mux.HandleFunc("GET /api/dashboard", s.apiHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/monthly-trend", s.apiHandlers.HandleMonthlyTrend)
	s.mux.HandleFunc("GET /api/breakdown/{dimension}", s.apiHandlers.HandleBreakdown)
	s.mux.HandleFunc("GET /api/discount-profit", s.apiHandlers.HandleDiscountProfit)
	s.mux.HandleFunc("GET /api/top/{entity}", s.apiHandlers.HandleTopN)
	s.mux.HandleFunc("GET /api/sample", s.apiHandlers.HandleSample)
	s.mux.HandleFunc("GET /api/records", s.apiHandlers.HandleRecords)
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)

	// Datastar SSE endpoint; filters come from signals
	s.mux.Handle("GET /sse/dashboard", requireData(http.HandlerFunc(s.sseHandlers.HandleDashboard)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
