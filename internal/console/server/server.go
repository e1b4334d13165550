package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/ztna-soc-console/internal/console/handler"
	"github.com/xela07ax/ztna-soc-console/internal/engine"
	"go.uber.org/zap"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger

	// Отсекает запросы с IP, заблокированных оператором вручную
	blocklist *engine.Blocklist

	// WebSocket-канал дашборда (/ws)
	stream http.Handler

	// Обработчики
	dashHandler         *handler.DashboardHandler    // /api/v1/dashboard
	accessHandler       *handler.AccessHandler       // /api/v1/access, /simulate
	interventionHandler *handler.InterventionHandler // /soc/action, /api/v1/blocklist
	approvalHandler     *handler.ApprovalHandler     // /api/v1/mfa, /api/v1/phone
	policyHandler       *handler.PolicyHandler       // /api/v1/policies
}

// NewConsoleServer инициализирует сервер консоли SOC со всеми зависимостями
func NewConsoleServer(
	logger *zap.Logger,
	blocklist *engine.Blocklist,
	stream http.Handler,
	dashH *handler.DashboardHandler,
	accessH *handler.AccessHandler,
	interventionH *handler.InterventionHandler,
	approvalH *handler.ApprovalHandler,
	policyH *handler.PolicyHandler,
) *ConsoleServer {
	s := &ConsoleServer{
		router:              chi.NewRouter(),
		logger:              logger.Named("console-api"),
		blocklist:           blocklist,
		stream:              stream,
		dashHandler:         dashH,
		accessHandler:       accessH,
		interventionHandler: interventionH,
		approvalHandler:     approvalH,
		policyHandler:       policyH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(engine.TracingMiddleware)
	r.Use(middleware.Recoverer)

	// --- 2. Служебные роуты ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/ws", s.stream)

	// --- 3. Внешние триггеры (совместимость с демо-стендом) ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger)
		r.Use(s.blocklist.Middleware)

		r.Get("/simulate/{scenario}", s.accessHandler.Simulate)
		r.Post("/soc/action", s.interventionHandler.SOCAction)
	})

	// --- 4. API панели управления ---
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Logger)

		r.Get("/dashboard", s.dashHandler.GetSnapshot)
		r.Post("/dashboard/clear", s.dashHandler.Clear)

		r.Post("/department", s.accessHandler.SelectDepartment)
		r.Post("/access", s.accessHandler.TryAccess)
		r.Post("/system-settings", s.accessHandler.TrySystemSettings)

		r.Post("/block", s.interventionHandler.Block)
		r.Get("/blocklist", s.interventionHandler.ListBlocked)
		r.Delete("/blocklist/{ip}", s.interventionHandler.Unblock)

		// Симулированный телефон (human-in-the-loop)
		r.Post("/mfa/challenge", s.approvalHandler.Challenge)
		r.Get("/phone", s.approvalHandler.GetState)
		r.Post("/phone/{action}", s.approvalHandler.Decide)

		r.Get("/policies", s.policyHandler.List)
		r.Get("/policies/effective", s.policyHandler.Effective)
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
