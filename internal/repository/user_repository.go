package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"commerce-service/internal/models"
	"commerce-service/internal/validation"
)

type userRepo struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, name, address, email`

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u       models.User
		address pgtype.Text
	)

	if err := row.Scan(&u.ID, &u.Name, &address, &u.Email); err != nil {
		return nil, err
	}
	if address.Valid {
		u.Address = &address.String
	}
	return &u, nil
}

func addressArg(address *string) pgtype.Text {
	if address == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *address, Valid: true}
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	if err := validation.Struct(u); err != nil {
		return err
	}

	sql := `
		INSERT INTO users (
			name,
			address,
			email
		) VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, sql, u.Name, addressArg(u.Address), u.Email).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("create user: %w", mapPgError(err))
	}

	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	return getUser(ctx, r.db, id, "")
}

func getUser(ctx context.Context, q Querier, id int, lock string) (*models.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE id = $1 ` + lock

	user, err := scanUser(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user with id %d: %w", id, err)
	}

	return user, nil
}

func (r *userRepo) GetAll(ctx context.Context) ([]models.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan users: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return users, nil
}

// Update applies patch to the user in one transaction. A changed email is
// checked against every other user before the write, with the unique
// constraint as the backstop.
func (r *userRepo) Update(ctx context.Context, id int, patch models.UserPatch) (*models.User, error) {
	if patch.Email != nil {
		if err := validation.Email(*patch.Email); err != nil {
			return nil, err
		}
	}

	var updated *models.User

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		user, err := getUser(ctx, tx, id, "FOR UPDATE")
		if err != nil {
			return err
		}

		if patch.Name != nil {
			user.Name = *patch.Name
		}
		if patch.ClearAddress {
			user.Address = nil
		} else if patch.Address != nil {
			user.Address = patch.Address
		}
		if patch.Email != nil {
			_, err := findUserByEmail(ctx, tx, *patch.Email, id)
			switch {
			case err == nil:
				return ErrEmailInUse
			case !errors.Is(err, ErrNotFound):
				return err
			}
			user.Email = *patch.Email
		}

		if err := validation.Struct(user); err != nil {
			return err
		}

		sql := `
			UPDATE users
			SET
				name = $1,
				address = $2,
				email = $3
			WHERE id = $4
		`

		if _, err := tx.Exec(ctx, sql, user.Name, addressArg(user.Address), user.Email, id); err != nil {
			return fmt.Errorf("failed to update user %d: %w", id, mapPgError(err))
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the user together with its orders and their product links.
func (r *userRepo) Delete(ctx context.Context, id int) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			DELETE FROM order_product
			WHERE order_id IN (SELECT id FROM orders WHERE user_id = $1)
		`, id)
		if err != nil {
			return fmt.Errorf("failed to delete order products of user %d: %w", id, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete orders of user %d: %w", id, err)
		}

		result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user %d: %w", id, mapPgError(err))
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}

		return nil
	})
}

func (r *userRepo) FindByEmail(ctx context.Context, email string, excludeID int) (*models.User, error) {
	return findUserByEmail(ctx, r.db, email, excludeID)
}

func findUserByEmail(ctx context.Context, q Querier, email string, excludeID int) (*models.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND id <> $2 LIMIT 1`

	user, err := scanUser(q.QueryRow(ctx, sql, email, excludeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}
