package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

const studentColumns = `id, congregation_id, full_name, gender, cargo, age, active, family_group_id, guardian_id, notes, created_at, updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students of one congregation matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	args := []interface{}{filter.CongregationID}
	conditions := []string{"congregation_id = $1"}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Cargo != "" {
		conditions = append(conditions, fmt.Sprintf("cargo = $%d", len(args)+1))
		args = append(args, filter.Cargo)
	}
	if filter.Gender != "" {
		conditions = append(conditions, fmt.Sprintf("gender = $%d", len(args)+1))
		args = append(args, filter.Gender)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(full_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"cargo":      "cargo",
		"age":        "age",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM students %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", studentColumns, where, column, order, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListByCongregation returns every student of the congregation, active or not.
// Inactive students are still needed to resolve guardian relations.
func (r *StudentRepository) ListByCongregation(ctx context.Context, congregationID string) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE congregation_id = $1 ORDER BY full_name ASC, id ASC"
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, congregationID); err != nil {
		return nil, fmt.Errorf("list congregation students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student scoped to a congregation.
func (r *StudentRepository) FindByID(ctx context.Context, congregationID, id string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE congregation_id = $1 AND id = $2"
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, congregationID, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, congregation_id, full_name, gender, cargo, age, active, family_group_id, guardian_id, notes, created_at, updated_at)
        VALUES (:id, :congregation_id, :full_name, :gender, :cargo, :age, :active, :family_group_id, :guardian_id, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", mapPQError(err))
	}
	return nil
}

// Update modifies an existing student, including promotions and demotions of cargo.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, gender = :gender, cargo = :cargo, age = :age, active = :active,
        family_group_id = :family_group_id, guardian_id = :guardian_id, notes = :notes, updated_at = :updated_at
        WHERE id = :id AND congregation_id = :congregation_id`
	result, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", mapPQError(err))
	}
	return expectAffected(result, "update student")
}

// Deactivate marks a student as inactive.
func (r *StudentRepository) Deactivate(ctx context.Context, congregationID, id string) error {
	const query = `UPDATE students SET active = false, updated_at = $3 WHERE congregation_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, congregationID, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return expectAffected(result, "deactivate student")
}

func expectAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
