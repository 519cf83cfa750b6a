package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/nudge/core/encouragement"
	"github.com/trezcool/nudge/core/student"
	"github.com/trezcool/nudge/core/taxonomy"
	"github.com/trezcool/nudge/storage/database"
)

// ProgressRepository reads and writes the completion tables the course platform reports into.
type ProgressRepository struct {
	db *sqlx.DB
}

var (
	_ student.ProgressRecorder     = (*ProgressRepository)(nil)
	_ encouragement.ProgressSource = (*ProgressRepository)(nil)
)

func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (repo *ProgressRepository) record(ctx context.Context, table, column, studentID string, ids []int, at time.Time) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return database.TrapShutdownErr(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := `INSERT INTO "` + table + `" ("student_id", "` + column + `", "completed_at")
		SELECT $1, UNNEST($2::INTEGER[]), $3
		ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, q, studentID, pq.Array(ids), at.UTC()); err != nil {
		return errors.Wrapf(err, "inserting %s", table)
	}
	q = `INSERT INTO "student_progress" ("student_id", "updated_on") VALUES ($1, $2)
		ON CONFLICT ("student_id") DO UPDATE SET "updated_on" = EXCLUDED."updated_on"`
	if _, err := tx.ExecContext(ctx, q, studentID, at.UTC()); err != nil {
		return database.TrapShutdownErr(err, "updating student progress")
	}
	return database.TrapShutdownErr(tx.Commit(), "committing progress")
}

func (repo *ProgressRepository) RecordLessons(ctx context.Context, studentID string, lessons []int, at time.Time) error {
	return repo.record(ctx, "lesson_completion", "lesson_id", studentID, lessons, at)
}

func (repo *ProgressRepository) RecordAssessments(ctx context.Context, studentID string, assessments []int, at time.Time) error {
	return repo.record(ctx, "assessment_completion", "assessment_id", studentID, assessments, at)
}

func (repo *ProgressRepository) LessonCompletion(ctx context.Context, studentID string, lessons []taxonomy.LessonID) (completed, total int, err error) {
	ids := make([]int64, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, int64(l))
	}
	q := `SELECT COUNT(*) FROM "lesson_completion" WHERE "student_id" = $1 AND "lesson_id" = ANY($2)`
	if err := repo.db.GetContext(ctx, &completed, q, studentID, pq.Int64Array(ids)); err != nil {
		return 0, 0, database.TrapShutdownErr(err, "counting completed lessons")
	}
	return completed, len(lessons), nil
}

func (repo *ProgressRepository) AssessmentCompleted(ctx context.Context, studentID string, assessmentID int) (bool, error) {
	var done bool
	q := `SELECT EXISTS (SELECT 1 FROM "assessment_completion" WHERE "student_id" = $1 AND "assessment_id" = $2)`
	if err := repo.db.GetContext(ctx, &done, q, studentID, assessmentID); err != nil {
		return false, database.TrapShutdownErr(err, "checking assessment completion")
	}
	return done, nil
}

func (repo *ProgressRepository) LastUpdated(ctx context.Context, studentID string) (time.Time, error) {
	var updated time.Time
	q := `SELECT "updated_on" FROM "student_progress" WHERE "student_id" = $1`
	if err := repo.db.GetContext(ctx, &updated, q, studentID); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, database.TrapShutdownErr(err, "getting progress update time")
	}
	return updated.UTC(), nil
}
