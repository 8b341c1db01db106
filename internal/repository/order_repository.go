package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"commerce-service/internal/models"
	"commerce-service/internal/validation"
)

type orderRepo struct {
	db  DB
	now func() time.Time
}

func NewOrderRepository(db DB) OrderRepository {
	return &orderRepo{db: db, now: time.Now}
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("%w: order cannot be nil", validation.ErrInvalid)
	}
	if err := validation.Struct(order); err != nil {
		return err
	}

	if order.OrderDate.IsZero() {
		order.OrderDate = r.now().UTC()
	}

	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		// the share lock keeps the user from being deleted before we commit
		found, err := exists(ctx, tx, "users", order.UserID, "FOR KEY SHARE")
		if err != nil {
			return err
		}
		if !found {
			return validation.NewError("user_id", validation.MsgUnknownUser)
		}

		insert := `
			INSERT INTO orders (
				order_date,
				user_id
			) VALUES ($1, $2)
			RETURNING id
		`

		err = tx.QueryRow(ctx, insert, order.OrderDate, order.UserID).Scan(&order.ID)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", mapPgError(err))
		}

		order.Products = []models.Product{}
		return nil
	})
}

func (r *orderRepo) GetByID(ctx context.Context, id int) (*models.Order, error) {
	return loadOrder(ctx, r.db, id)
}

func (r *orderRepo) GetByUserID(ctx context.Context, userID int) ([]models.Order, error) {
	found, err := exists(ctx, r.db, "users", userID, "")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	return queryOrders(ctx, r.db, "WHERE o.user_id = $1", userID)
}

func (r *orderRepo) Delete(ctx context.Context, id int) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM order_product WHERE order_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete products of order %d: %w", id, err)
		}

		result, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete order %d: %w", id, mapPgError(err))
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}

		return nil
	})
}

// AddProduct links productID to orderID. Linking an already linked product
// succeeds and reports added == false.
func (r *orderRepo) AddProduct(ctx context.Context, orderID, productID int) (*models.Order, bool, error) {
	var (
		order *models.Order
		added bool
	)

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockOrderAndProduct(ctx, tx, orderID, productID); err != nil {
			return err
		}

		sql := `
			INSERT INTO order_product (order_id, product_id)
			VALUES ($1, $2)
			ON CONFLICT (order_id, product_id) DO NOTHING
		`

		result, err := tx.Exec(ctx, sql, orderID, productID)
		if err != nil {
			return fmt.Errorf("failed to add product %d to order %d: %w", productID, orderID, mapPgError(err))
		}
		added = result.RowsAffected() > 0

		order, err = loadOrder(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return order, added, nil
}

func (r *orderRepo) RemoveProduct(ctx context.Context, orderID, productID int) (*models.Order, error) {
	var order *models.Order

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockOrderAndProduct(ctx, tx, orderID, productID); err != nil {
			return err
		}

		sql := `DELETE FROM order_product WHERE order_id = $1 AND product_id = $2`

		result, err := tx.Exec(ctx, sql, orderID, productID)
		if err != nil {
			return fmt.Errorf("failed to remove product %d from order %d: %w", productID, orderID, err)
		}
		if result.RowsAffected() == 0 {
			return ErrNotInOrder
		}

		order, err = loadOrder(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepo) GetProducts(ctx context.Context, orderID int) ([]models.Product, error) {
	found, err := exists(ctx, r.db, "orders", orderID, "")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	sql := `
		SELECT
			p.id,
			p.product_name,
			p.price
		FROM order_product op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = $1
		ORDER BY p.id
	`

	rows, err := r.db.Query(ctx, sql, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get products of order %d: %w", orderID, err)
	}

	return collectProducts(rows)
}

func lockOrderAndProduct(ctx context.Context, tx pgx.Tx, orderID, productID int) error {
	found, err := exists(ctx, tx, "orders", orderID, "FOR UPDATE")
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}

	found, err = exists(ctx, tx, "products", productID, "FOR KEY SHARE")
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}

	return nil
}

const orderWithProductsSQL = `
	SELECT
		o.id,
		o.order_date,
		o.user_id,
		p.id,
		p.product_name,
		p.price
	FROM orders o
	LEFT JOIN order_product op ON op.order_id = o.id
	LEFT JOIN products p ON p.id = op.product_id
`

func loadOrder(ctx context.Context, q Querier, id int) (*models.Order, error) {
	orders, err := queryOrders(ctx, q, "WHERE o.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNotFound
	}

	return &orders[0], nil
}

// queryOrders reads orders with their products in a single statement; one
// row per (order, product) pair, or one row with NULL product columns.
func queryOrders(ctx context.Context, q Querier, where string, arg any) ([]models.Order, error) {
	sql := orderWithProductsSQL + where + " ORDER BY o.id, p.id"

	rows, err := q.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders with products: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}

	for rows.Next() {
		var (
			o           models.Order
			productID   pgtype.Int4
			productName pgtype.Text
			price       pgtype.Float8
		)

		err := rows.Scan(
			&o.ID,
			&o.OrderDate,
			&o.UserID,
			&productID,
			&productName,
			&price,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order/product: %w", err)
		}

		if len(orders) == 0 || orders[len(orders)-1].ID != o.ID {
			o.OrderDate = o.OrderDate.UTC()
			o.Products = []models.Product{}
			orders = append(orders, o)
		}

		if productID.Valid {
			last := &orders[len(orders)-1]
			last.Products = append(last.Products, models.Product{
				ID:          int(productID.Int32),
				ProductName: productName.String,
				Price:       price.Float64,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return orders, nil
}
