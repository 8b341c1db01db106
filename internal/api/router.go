package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"commerce-service/internal/api/handlers"
	"commerce-service/internal/repository"
)

type Repositories struct {
	Users    repository.UserRepository
	Products repository.ProductRepository
	Orders   repository.OrderRepository
}

func NewRouter(repos Repositories, log zerolog.Logger) http.Handler {
	users := handlers.NewUserHandler(repos.Users)
	products := handlers.NewProductHandler(repos.Products)
	orders := handlers.NewOrderHandler(repos.Orders)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.NotFound(handlers.WriteNotFound)
	r.MethodNotAllowed(handlers.WriteMethodNotAllowed)

	r.Get("/", handlers.Health)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", users.GetAll)
		r.Post("/", users.Create)
		r.Get("/{id}", users.GetByID)
		r.Put("/{id}", users.Update)
		r.Delete("/{id}", users.Delete)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", products.GetAll)
		r.Post("/", products.Create)
		r.Get("/{id}", products.GetByID)
		r.Put("/{id}", products.Update)
		r.Delete("/{id}", products.Delete)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", orders.Create)
		r.Get("/user/{userID}", orders.GetByUserID)
		r.Get("/{id}", orders.GetByID)
		r.Delete("/{id}", orders.Delete)
		r.Get("/{id}/products", orders.GetProducts)
		r.Put("/{id}/add_product/{productID}", orders.AddProduct)
		r.Delete("/{id}/remove_product/{productID}", orders.RemoveProduct)
	})

	return r
}
