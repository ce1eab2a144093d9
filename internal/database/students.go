package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

func (q *Queries) GetStudent(ctx context.Context, id uuid.UUID) (Student, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, guardian_user_id, full_name, grade_level, section, created_at
		FROM students WHERE id = $1`, id)
	var s Student
	err := row.Scan(&s.ID, &s.GuardianUserID, &s.FullName, &s.GradeLevel, &s.Section, &s.CreatedAt)
	return s, err
}

func (q *Queries) ListStudentsByGuardian(ctx context.Context, guardianUserID string) ([]Student, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, guardian_user_id, full_name, grade_level, section, created_at
		FROM students
		WHERE guardian_user_id = $1
		ORDER BY full_name`, guardianUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.GuardianUserID, &s.FullName, &s.GradeLevel, &s.Section, &s.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

type CreateStudentParams struct {
	GuardianUserID string
	FullName       string
	GradeLevel     string
	Section        pgtype.Text
}

func (q *Queries) CreateStudent(ctx context.Context, arg CreateStudentParams) (Student, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO students (guardian_user_id, full_name, grade_level, section)
		VALUES ($1, $2, $3, $4)
		RETURNING id, guardian_user_id, full_name, grade_level, section, created_at`,
		arg.GuardianUserID, arg.FullName, arg.GradeLevel, arg.Section)
	var s Student
	err := row.Scan(&s.ID, &s.GuardianUserID, &s.FullName, &s.GradeLevel, &s.Section, &s.CreatedAt)
	return s, err
}
