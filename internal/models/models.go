package models

import "time"

type User struct {
	ID      int     `json:"id"`
	Name    string  `json:"name" validate:"required"`
	Address *string `json:"address"`
	Email   string  `json:"email" validate:"required,contains=@"`
}

type Product struct {
	ID          int     `json:"id"`
	ProductName string  `json:"product_name" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
}

type Order struct {
	ID        int       `json:"id"`
	OrderDate time.Time `json:"order_date"`
	UserID    int       `json:"user_id" validate:"required"`
	Products  []Product `json:"products"`
}

// UserPatch holds the fields of a partial user update; nil means "leave unchanged".
// ClearAddress stores NULL regardless of Address.
type UserPatch struct {
	Name         *string
	Address      *string
	ClearAddress bool
	Email        *string
}

type ProductPatch struct {
	ProductName *string
	Price       *float64
}
