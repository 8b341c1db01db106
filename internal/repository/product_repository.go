package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"commerce-service/internal/models"
	"commerce-service/internal/validation"
)

type productRepo struct {
	db DB
}

func NewProductRepository(db DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	if err := validation.Struct(p); err != nil {
		return err
	}

	sql := `
		INSERT INTO products (
			product_name,
			price
		) VALUES ($1, $2)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, sql, p.ProductName, p.Price).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", mapPgError(err))
	}

	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id int) (*models.Product, error) {
	return getProduct(ctx, r.db, id, "")
}

func getProduct(ctx context.Context, q Querier, id int, lock string) (*models.Product, error) {
	sql := `
		SELECT
			id,
			product_name,
			price
		FROM products WHERE id = $1 ` + lock

	var product models.Product

	err := q.QueryRow(ctx, sql, id).Scan(
		&product.ID,
		&product.ProductName,
		&product.Price,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by id %d: %w", id, err)
	}

	return &product, nil
}

func (r *productRepo) GetAll(ctx context.Context) ([]models.Product, error) {
	sql := `
		SELECT
			id,
			product_name,
			price
		FROM products
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}

	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]models.Product, error) {
	defer rows.Close()

	products := []models.Product{}

	for rows.Next() {
		var p models.Product

		if err := rows.Scan(&p.ID, &p.ProductName, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan products: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return products, nil
}

func (r *productRepo) Update(ctx context.Context, id int, patch models.ProductPatch) (*models.Product, error) {
	if patch.Price != nil && *patch.Price < 0 {
		return nil, validation.NewError("price", validation.MsgPriceNegative)
	}

	var updated *models.Product

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		product, err := getProduct(ctx, tx, id, "FOR UPDATE")
		if err != nil {
			return err
		}

		if patch.ProductName != nil {
			product.ProductName = *patch.ProductName
		}
		if patch.Price != nil {
			product.Price = *patch.Price
		}

		if err := validation.Struct(product); err != nil {
			return err
		}

		sql := `
			UPDATE products
			SET
				product_name = $1,
				price = $2
			WHERE id = $3
		`

		if _, err := tx.Exec(ctx, sql, product.ProductName, product.Price, id); err != nil {
			return fmt.Errorf("failed to update product %d: %w", id, mapPgError(err))
		}

		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the product and every order link that references it. The
// orders themselves are kept.
func (r *productRepo) Delete(ctx context.Context, id int) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM order_product WHERE product_id = $1`, id); err != nil {
			return fmt.Errorf("failed to unlink product %d: %w", id, err)
		}

		result, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete product %d: %w", id, mapPgError(err))
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}

		return nil
	})
}
