package api

import (
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/workflowai/workflowai/internal/api/handler"
	"github.com/workflowai/workflowai/internal/api/middleware"
	"github.com/workflowai/workflowai/internal/auth"
	"github.com/workflowai/workflowai/internal/billing"
	"github.com/workflowai/workflowai/internal/generate"
	"github.com/workflowai/workflowai/internal/profile"
	"github.com/workflowai/workflowai/internal/share"
	"github.com/workflowai/workflowai/internal/template"
	"github.com/workflowai/workflowai/internal/user"
	"github.com/workflowai/workflowai/internal/workflow"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger    handler.DBPinger
	Version     string
	AuthService *auth.Service

	Users     user.Repository
	Workflows workflow.Repository
	Shares    share.Repository
	Templates template.Repository
	Profiles  profile.Repository

	Generator *generate.Service
	Uploader  handler.Uploader

	Checkout        *billing.CheckoutService
	WebhookVerifier billing.EventVerifier
	EntitlementSync *billing.SyncService
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	authHandler := handler.NewAuthHandler(deps.AuthService)
	r.Post("/auth/register", authHandler.Register)

	templateHandler := handler.NewTemplateHandler(deps.Templates, deps.Workflows)
	r.Get("/templates", templateHandler.List)
	r.Get("/templates/{id}", templateHandler.GetByID)

	billingHandler := handler.NewBillingHandler(deps.Checkout, deps.WebhookVerifier, deps.EntitlementSync)
	// The webhook stays outside all auth; the provider signs its own requests.
	r.Post("/billing/webhook", billingHandler.Webhook)
	r.With(middleware.OptionalAuth(deps.AuthService)).Post("/billing/checkout", billingHandler.CreateCheckout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.AuthService))

		userHandler := handler.NewUserHandler(deps.Users, deps.Workflows, nil)
		r.Get("/me", userHandler.Me)
		r.Get("/me/quota", userHandler.Quota)

		generateHandler := handler.NewGenerateHandler(deps.Users, deps.Generator)
		r.Post("/generate", generateHandler.Generate)

		workflowHandler := handler.NewWorkflowHandler(deps.Workflows, deps.Shares)
		shareHandler := handler.NewShareHandler(deps.Shares, deps.Workflows)
		r.Route("/workflows", func(r chi.Router) {
			r.Get("/", workflowHandler.List)
			r.Get("/{id}", workflowHandler.GetByID)
			r.Patch("/{id}", workflowHandler.Update)
			r.Delete("/{id}", workflowHandler.Delete)
			r.Get("/{id}/shares", shareHandler.List)
			r.Post("/{id}/shares", shareHandler.Create)
			r.Delete("/{id}/shares/{shareId}", shareHandler.Delete)
		})

		r.Post("/templates/{id}/save", templateHandler.Save)

		profileHandler := handler.NewProfileHandler(deps.Profiles)
		r.Get("/profile", profileHandler.GetProfile)
		r.Put("/profile", profileHandler.PutProfile)
		r.Get("/progress", profileHandler.GetProgress)
		r.Put("/progress", profileHandler.PutProgress)

		if deps.Uploader != nil {
			fileHandler := handler.NewFileHandler(deps.Uploader)
			r.Post("/files", fileHandler.Upload)
		}
	})

	return r
}
