package repository

import (
	"context"

	"commerce-service/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id int, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id int) error

	// FindByEmail ignores the user with excludeID; 0 excludes nobody.
	FindByEmail(ctx context.Context, email string, excludeID int) (*models.User, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id int) (*models.Product, error)
	GetAll(ctx context.Context) ([]models.Product, error)
	Update(ctx context.Context, id int, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id int) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int) (*models.Order, error)
	GetByUserID(ctx context.Context, userID int) ([]models.Order, error)
	Delete(ctx context.Context, id int) error

	// AddProduct reports false when the product was already linked.
	AddProduct(ctx context.Context, orderID, productID int) (*models.Order, bool, error)
	RemoveProduct(ctx context.Context, orderID, productID int) (*models.Order, error)
	GetProducts(ctx context.Context, orderID int) ([]models.Product, error)
}
