package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yourorg/trade-journal/internal/auth"
)

func NewRouter(h *Handlers, hub *Hub, jwtSvc *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5174"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(jwtSvc))
		r.Get("/trades", h.GetTrades)
		r.Post("/trades", h.CreateTrade)
		r.Patch("/trades/{id}", h.UpdateTrade)
		r.Delete("/trades/{id}", h.DeleteTrade)
		r.Post("/gate/submit", h.SubmitGated)
		r.Get("/stats", h.GetStats)
		r.Get("/calendar", h.GetCalendar)
		r.Get("/equity", h.GetEquity)
		r.Get("/expenses", h.GetExpenses)
		r.Post("/expenses", h.CreateExpense)
		r.Delete("/expenses/{id}", h.DeleteExpense)
		r.Get("/expenses/categories", h.GetExpenseCategories)
		r.Post("/import/csv", h.ImportCSV)
		r.Post("/scan", h.ScanScreenshot)
	})

	r.Get("/ws", ServeWS(hub, h.logger))

	return r
}
