package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/student"
	"github.com/trezcool/nudge/storage/database"
)

const (
	uniqueViolation = "23505"

	studentColumns = `"id", "name", "email", "send_mail", "enrolled_on", "last_seen_on", "created_at", "updated_at"`
)

// orderable columns of the student table
var studentOrderings = map[string]bool{"id": true, "enrolled_on": true, "created_at": true}

type studentRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	SendMail   bool      `db:"send_mail"`
	EnrolledOn time.Time `db:"enrolled_on"`
	LastSeenOn null.Time `db:"last_seen_on"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func toStudentRow(s student.Student) studentRow {
	return studentRow{
		ID:         s.ID,
		Name:       s.Name,
		Email:      s.Email,
		SendMail:   s.Preferences.SendMail,
		EnrolledOn: s.EnrolledOn.UTC(),
		LastSeenOn: null.NewTime(s.LastSeenOn.UTC(), !s.LastSeenOn.IsZero()),
		CreatedAt:  s.CreatedAt.UTC(),
		UpdatedAt:  s.UpdatedAt.UTC(),
	}
}

func (row studentRow) student() student.Student {
	return student.Student{
		ID:          row.ID,
		Name:        row.Name,
		Email:       row.Email,
		Preferences: student.Preferences{SendMail: row.SendMail},
		EnrolledOn:  row.EnrolledOn.UTC(),
		LastSeenOn:  row.LastSeenOn.Time.UTC(),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to student.ErrNotFound
func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return database.TrapShutdownErr(err, msg)
}

// trapUniqueErr maps unique violations to student.ErrStudentExists or student.ErrEmailExists
func (repo studentRepository) trapUniqueErr(err error, msg string) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == "student_email_idx" {
			return student.ErrEmailExists
		}
		return student.ErrStudentExists
	}
	return database.TrapShutdownErr(err, msg)
}

func (repo studentRepository) CheckUniqueness(ctx context.Context, id, email string) error {
	var taken []studentRow
	q := `SELECT ` + studentColumns + ` FROM "student" WHERE "id" = $1 OR "email" = $2 LIMIT 2`
	if err := repo.db.SelectContext(ctx, &taken, q, id, email); err != nil {
		return database.TrapShutdownErr(err, "checking student uniqueness")
	}
	for _, row := range taken {
		if row.ID == id {
			return student.ErrStudentExists
		}
	}
	if len(taken) > 0 {
		return student.ErrEmailExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	q := `INSERT INTO "student" (` + studentColumns + `)
		VALUES (:id, :name, :email, :send_mail, :enrolled_on, :last_seen_on, :created_at, :updated_at)`
	row := toStudentRow(s)
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return student.Student{}, repo.trapUniqueErr(err, "inserting student")
	}
	return row.student(), nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	q := `SELECT ` + studentColumns + ` FROM "student" WHERE "id" = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "getting student")
	}
	return row.student(), nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.SendMail != nil {
		conds = append(conds, `"send_mail" = ?`)
		args = append(args, *filter.SendMail)
	}
	if !filter.EnrolledFrom.IsZero() {
		conds = append(conds, `"enrolled_on" >= ?`)
		args = append(args, filter.EnrolledFrom.UTC())
	}
	if !filter.EnrolledTo.IsZero() {
		conds = append(conds, `"enrolled_on" <= ?`)
		args = append(args, filter.EnrolledTo.UTC())
	}

	q := new(strings.Builder)
	q.WriteString(`SELECT ` + studentColumns + ` FROM "student"`)
	if len(conds) > 0 {
		q.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	ordering := core.DBOrdering{Field: "id", Ascending: true}
	if studentOrderings[filter.Ordering.Field] {
		ordering = filter.Ordering
	}
	q.WriteString(" ORDER BY " + ordering.String())
	if ordering.Field != "id" {
		q.WriteString(`, "id" ASC`)
	}
	if filter.Limit > 0 {
		q.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		q.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q.String()), args...); err != nil {
		return nil, database.TrapShutdownErr(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	q := `UPDATE "student"
		SET "name" = :name, "email" = :email, "send_mail" = :send_mail, "enrolled_on" = :enrolled_on,
			"last_seen_on" = :last_seen_on, "updated_at" = :updated_at
		WHERE "id" = :id
		RETURNING ` + studentColumns
	query, args, err := repo.db.BindNamed(q, toStudentRow(s))
	if err != nil {
		return student.Student{}, errors.Wrap(err, "binding student update")
	}
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, repo.trapUniqueErr(err, "updating student")
	}
	return row.student(), nil
}
