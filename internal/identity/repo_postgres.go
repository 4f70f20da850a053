package identity

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo persists users.
//
// Assumed table:
//
//	users(id, name, email, role, company, phone, is_active, created_at)
//	UNIQUE (email)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Insert(ctx context.Context, u User) error {
	const q = `
INSERT INTO users (id, name, email, role, company, phone, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := r.db.ExecContext(ctx, q,
		u.ID,
		u.Name,
		u.Email,
		u.Role,
		u.Company,
		u.Phone,
		u.Active,
		u.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (User, bool, error) {
	const q = `
SELECT id, name, email, role, company, phone, is_active, created_at
FROM users
WHERE id = $1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) FindByEmail(ctx context.Context, email string) (User, bool, error) {
	const q = `
SELECT id, name, email, role, company, phone, is_active, created_at
FROM users
WHERE email = $1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, email))
}

func (r *PostgresRepo) List(ctx context.Context, role Role, limit int) ([]User, error) {
	const qAll = `
SELECT id, name, email, role, company, phone, is_active, created_at
FROM users
ORDER BY created_at DESC
LIMIT $1
`
	const qRole = `
SELECT id, name, email, role, company, phone, is_active, created_at
FROM users
WHERE role = $1
ORDER BY created_at DESC
LIMIT $2
`
	var rows *sql.Rows
	var err error
	if role == "" {
		rows, err = r.db.QueryContext(ctx, qAll, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, qRole, role, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Company, &u.Phone, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) scanOne(row *sql.Row) (User, bool, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Company, &u.Phone, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, false, nil
		}
		return User{}, false, err
	}
	return u, true, nil
}
