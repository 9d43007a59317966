package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"order-service/internal/config"
	"order-service/internal/handler"
	"order-service/internal/middleware"
	"order-service/internal/model"
	"order-service/pkg/apierror"
)

type OrderRoutes interface {
	ListMine(w http.ResponseWriter, r *http.Request) error
	Create(w http.ResponseWriter, r *http.Request) error
	ListAll(w http.ResponseWriter, r *http.Request) error
	VerifyPayment(w http.ResponseWriter, r *http.Request) error
	Get(w http.ResponseWriter, r *http.Request) error
	Invoice(w http.ResponseWriter, r *http.Request) error
	UpdateStatus(w http.ResponseWriter, r *http.Request) error
	Cancel(w http.ResponseWriter, r *http.Request) error
}

type Handlers struct {
	Orders OrderRoutes
	Health http.HandlerFunc
}

// Route is one entry of the route table. Its chain order is fixed at start-up.
type Route struct {
	Method  string
	Pattern string
	Chain   middleware.Chain
	Handle  middleware.HandlerFunc
}

var adminOnly = model.NewRoleSet(model.RoleAdmin)

// OrderRouteTable declares every order endpoint with its stage order. Path
// parameters are validated before role checks and body validation so a
// malformed id is always reported as invalid input.
func OrderRouteTable(p *middleware.Pipeline, auth *middleware.AuthMiddleware, v *middleware.Validator, h OrderRoutes) []Route {
	authenticate := auth.Authenticate
	orderID := middleware.ValidateParams[model.OrderIDParams](v)
	requireAdmin := middleware.RequireRoles(adminOnly)

	return []Route{
		{http.MethodGet, "/", p.Chain(authenticate), h.ListMine},
		{http.MethodPost, "/", p.Chain(authenticate, middleware.ValidateBody[model.CreateOrderRequest](v)), h.Create},
		{http.MethodGet, "/all", p.Chain(authenticate, requireAdmin), h.ListAll},
		{http.MethodPost, "/payment-verification", p.Chain(authenticate, middleware.ValidateBody[model.VerifyPaymentRequest](v)), h.VerifyPayment},
		{http.MethodGet, "/{id}", p.Chain(authenticate, orderID), h.Get},
		{http.MethodGet, "/{id}/invoice", p.Chain(authenticate, orderID), h.Invoice},
		{http.MethodPatch, "/{id}/status", p.Chain(authenticate, orderID, requireAdmin, middleware.ValidateBody[model.UpdateStatusRequest](v)), h.UpdateStatus},
		{http.MethodPost, "/{id}/cancel", p.Chain(authenticate, orderID, middleware.ValidateBody[model.CancelOrderRequest](v)), h.Cancel},
	}
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, handlers Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.PaymentRateLimitRPM)

	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteError(w, req, apierror.NotFound("route not found", req.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteError(w, req, apierror.New("METHOD_NOT_ALLOWED", "method not allowed", req.Method, http.StatusMethodNotAllowed))
	})

	if handlers.Health != nil {
		r.Get("/health", handlers.Health)
	}

	pipeline := middleware.NewPipeline(handler.WriteError)
	validator := middleware.NewValidator()

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/orders", func(orders chi.Router) {
			for _, route := range OrderRouteTable(pipeline, authMiddleware, validator, handlers.Orders) {
				orders.Method(route.Method, route.Pattern, route.Chain.Handle(route.Handle))
			}
		})
	})

	return r
}
