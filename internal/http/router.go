package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/andreasstove999/storefront-go/internal/auth"
	"github.com/andreasstove999/storefront-go/internal/catalog"
	"github.com/andreasstove999/storefront-go/internal/favorites"
	"github.com/andreasstove999/storefront-go/internal/middleware"
)

type Deps struct {
	Logger           *zap.Logger
	CORSAllowOrigins []string
	Tokens           middleware.TokenValidator
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider

	Cart      CartService
	Orders    OrderService
	Catalog   catalog.Service
	Favorites favorites.Repository
	Files     FileSigner
	Chat      ChatService
	Designs   DesignService
	Contact   ContactService

	HealthChecks []DependencyCheck
}

func NewRouter(d Deps) http.Handler {
	tp := d.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	r := chi.NewRouter()

	// Middlewares (outer -> inner)
	r.Use(chimw.RealIP)
	r.Use(middleware.Tracing(tp))
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.Recover(d.Logger))
	r.Use(middleware.CORS(d.CORSAllowOrigins))

	health := &HealthHandler{Checks: d.HealthChecks}
	r.Get("/health", health.Live)
	r.Get("/health/ready", health.Ready)

	products := NewProductHandler(d.Catalog, d.Logger)
	r.Get("/products", products.List)
	r.Get("/products/{idOrSlug}", products.Get)

	currency := NewCurrencyHandler(d.Logger)
	r.Get("/currency/convert", currency.Convert)

	cart := NewCartHandler(d.Cart, d.Logger)
	orders := NewOrderHandler(d.Orders, d.Logger)
	favs := NewFavoritesHandler(d.Favorites, d.Logger)
	files := NewFileHandler(d.Files, d.Logger)
	support := NewChatHandler(d.Chat, d.Logger)
	designs := NewDesignHandler(d.Designs, d.Logger)
	contacts := NewContactHandler(d.Contact, d.Logger)

	r.Post("/chat/public", support.PublicSend)
	r.Post("/contact", contacts.Submit)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Tokens))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.GetCart)
			r.Delete("/", cart.Clear)
			r.Post("/items", cart.AddItem)
			r.Patch("/items/{itemId}", cart.UpdateItem)
			r.Delete("/items/{itemId}", cart.RemoveItem)
			r.Post("/merge", cart.Merge)
		})

		r.Post("/orders", orders.Place)
		r.Get("/orders/mine", orders.ListMine)
		r.Get("/orders/{orderId}", orders.Get)

		r.Get("/favorites", favs.List)
		r.Post("/favorites/{productId}", favs.Add)
		r.Delete("/favorites/{productId}", favs.Remove)

		r.Post("/files/sign", files.Sign)

		r.Get("/chat/me/messages", support.ListMine)
		r.Post("/chat/me/messages", support.Send)

		r.Post("/designs", designs.Create)
		r.Get("/designs/me", designs.ListMine)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.Get("/orders", orders.AdminList)
			r.Post("/products", products.Create)
			r.Patch("/products/{id}", products.Update)
			r.Delete("/products/{id}", products.Delete)

			r.Get("/chat/conversations", support.AdminConversations)
			r.Get("/chat/conversations/{id}/messages", support.AdminMessages)
			r.Post("/chat/conversations/{id}/reply", support.AdminReply)

			r.Get("/designs", designs.AdminList)

			r.Get("/contact-messages", contacts.AdminList)
			r.Patch("/contact-messages/{id}/read", contacts.MarkRead)
			r.Post("/contact-messages/{id}/reply", contacts.Reply)
		})
	})

	return r
}
