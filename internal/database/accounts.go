package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const accountColumns = `id, user_id, first_name, last_name, parent_fullname, email,
	role, status, hashed_password, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(
		&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.ParentFullname, &a.Email,
		&a.Role, &a.Status, &a.HashedPassword, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (q *Queries) GetAccountByID(ctx context.Context, id uuid.UUID) (Account, error) {
	row := q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (q *Queries) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	row := q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// GetAccountByUserID is the canonical requester lookup. user_id is the single
// join key; there is no firebase_uid fallback here.
func (q *Queries) GetAccountByUserID(ctx context.Context, userID string) (Account, error) {
	row := q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID)
	return scanAccount(row)
}

type ListAccountsParams struct {
	Role   pgtype.Text
	Limit  int32
	Offset int32
}

func (q *Queries) ListAccounts(ctx context.Context, arg ListAccountsParams) ([]Account, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE ($1::text IS NULL OR role = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		arg.Role, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

type CreateAccountParams struct {
	UserID         string
	FirstName      pgtype.Text
	LastName       pgtype.Text
	ParentFullname pgtype.Text
	Email          string
	Role           string
	HashedPassword string
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO accounts (user_id, first_name, last_name, parent_fullname, email, role, hashed_password)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+accountColumns,
		arg.UserID, arg.FirstName, arg.LastName, arg.ParentFullname, arg.Email, arg.Role, arg.HashedPassword)
	return scanAccount(row)
}

type UpdateAccountParams struct {
	ID             uuid.UUID
	FirstName      pgtype.Text
	LastName       pgtype.Text
	ParentFullname pgtype.Text
	Email          string
	Role           string
}

func (q *Queries) UpdateAccount(ctx context.Context, arg UpdateAccountParams) (Account, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE accounts
		SET first_name = $2, last_name = $3, parent_fullname = $4, email = $5,
		    role = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+accountColumns,
		arg.ID, arg.FirstName, arg.LastName, arg.ParentFullname, arg.Email, arg.Role)
	return scanAccount(row)
}

type SetAccountStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) SetAccountStatus(ctx context.Context, arg SetAccountStatusParams) (Account, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE accounts
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+accountColumns,
		arg.ID, arg.Status)
	return scanAccount(row)
}
