package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const uniformItemColumns = `id, item_code, category, gender, grade_level,
	measurements, image_ref, is_active, created_at, updated_at`

func scanUniformItem(row pgx.Row) (UniformItem, error) {
	var u UniformItem
	err := row.Scan(
		&u.ID, &u.ItemCode, &u.Category, &u.Gender, &u.GradeLevel,
		&u.Measurements, &u.ImageRef, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (q *Queries) GetUniformItem(ctx context.Context, id uuid.UUID) (UniformItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+uniformItemColumns+` FROM uniform_items WHERE id = $1 AND is_active = true`, id)
	return scanUniformItem(row)
}

type ListUniformItemsParams struct {
	Category pgtype.Text
	Gender   pgtype.Text
}

func (q *Queries) ListUniformItems(ctx context.Context, arg ListUniformItemsParams) ([]UniformItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+uniformItemColumns+`
		FROM uniform_items
		WHERE is_active = true
		  AND ($1::text IS NULL OR category = $1)
		  AND ($2::text IS NULL OR gender = $2)
		ORDER BY category, item_code`,
		arg.Category, arg.Gender)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []UniformItem
	for rows.Next() {
		u, err := scanUniformItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

type CreateUniformItemParams struct {
	ItemCode     string
	Category     string
	Gender       string
	GradeLevel   string
	Measurements pgtype.Text
	ImageRef     pgtype.Text
}

func (q *Queries) CreateUniformItem(ctx context.Context, arg CreateUniformItemParams) (UniformItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO uniform_items (item_code, category, gender, grade_level, measurements, image_ref)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+uniformItemColumns,
		arg.ItemCode, arg.Category, arg.Gender, arg.GradeLevel, arg.Measurements, arg.ImageRef)
	return scanUniformItem(row)
}

type UpdateUniformItemParams struct {
	ID           uuid.UUID
	Category     string
	Gender       string
	GradeLevel   string
	Measurements pgtype.Text
	ImageRef     pgtype.Text
}

func (q *Queries) UpdateUniformItem(ctx context.Context, arg UpdateUniformItemParams) (UniformItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE uniform_items
		SET category = $2, gender = $3, grade_level = $4, measurements = $5,
		    image_ref = $6, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING `+uniformItemColumns,
		arg.ID, arg.Category, arg.Gender, arg.GradeLevel, arg.Measurements, arg.ImageRef)
	return scanUniformItem(row)
}

// SoftDeleteUniformItem deactivates a catalog record. Catalog rows are never
// physically deleted because order items reference their codes.
func (q *Queries) SoftDeleteUniformItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE uniform_items
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING id`, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

func (q *Queries) ListUniformItemSizes(ctx context.Context, uniformItemID uuid.UUID) ([]UniformItemSize, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, uniform_item_id, size, price
		FROM uniform_item_sizes
		WHERE uniform_item_id = $1
		ORDER BY price`, uniformItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sizes []UniformItemSize
	for rows.Next() {
		var s UniformItemSize
		if err := rows.Scan(&s.ID, &s.UniformItemID, &s.Size, &s.Price); err != nil {
			return nil, err
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}

type CreateUniformItemSizeParams struct {
	UniformItemID uuid.UUID
	Size          string
	Price         pgtype.Numeric
}

func (q *Queries) CreateUniformItemSize(ctx context.Context, arg CreateUniformItemSizeParams) (UniformItemSize, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO uniform_item_sizes (uniform_item_id, size, price)
		VALUES ($1, $2, $3)
		RETURNING id, uniform_item_id, size, price`,
		arg.UniformItemID, arg.Size, arg.Price)
	var s UniformItemSize
	err := row.Scan(&s.ID, &s.UniformItemID, &s.Size, &s.Price)
	return s, err
}

// DeleteUniformItemSizes clears the size ladder before a wholesale replace.
func (q *Queries) DeleteUniformItemSizes(ctx context.Context, uniformItemID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM uniform_item_sizes WHERE uniform_item_id = $1`, uniformItemID)
	return err
}
