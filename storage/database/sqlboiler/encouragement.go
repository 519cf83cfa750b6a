package boiledrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/encouragement"
	"github.com/trezcool/nudge/core/taxonomy"
	"github.com/trezcool/nudge/storage/database"
)

const recordColumns = `"id", "student_id", "started_notified", "near_complete_unit_notified", "near_complete_idea_notified",
	"feedback_count", "feedback_with_narrative_count", "emails_sent_this_window", "window_start",
	"inactive_not_started_sent", "inactive_started_sent", "created_at", "updated_at"`

// recordRow mirrors the encouragement_record table.
type recordRow struct {
	ID                         string            `boil:"id"`
	StudentID                  string            `boil:"student_id"`
	StartedNotified            types.StringArray `boil:"started_notified"`
	NearCompleteUnitNotified   types.StringArray `boil:"near_complete_unit_notified"`
	NearCompleteIdeaNotified   types.StringArray `boil:"near_complete_idea_notified"`
	FeedbackCount              int               `boil:"feedback_count"`
	FeedbackWithNarrativeCount int               `boil:"feedback_with_narrative_count"`
	EmailsSentThisWindow       int               `boil:"emails_sent_this_window"`
	WindowStart                null.Time         `boil:"window_start"`
	InactiveNotStartedSent     bool              `boil:"inactive_not_started_sent"`
	InactiveStartedSent        bool              `boil:"inactive_started_sent"`
	CreatedAt                  time.Time         `boil:"created_at"`
	UpdatedAt                  time.Time         `boil:"updated_at"`
}

type recordRepository struct {
	exec core.DBExecutor
}

var _ encouragement.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(exec core.DBExecutor) *recordRepository {
	return &recordRepository{exec: exec}
}

func boilSet(s encouragement.GroupingSet) types.StringArray {
	arr := make(types.StringArray, 0, len(s))
	for _, id := range s.Sorted() {
		arr = append(arr, string(id))
	}
	return arr
}

func unboilSet(arr types.StringArray) encouragement.GroupingSet {
	s := make(encouragement.GroupingSet, len(arr))
	for _, id := range arr {
		s[taxonomy.GroupingID(id)] = struct{}{}
	}
	return s
}

func (repo recordRepository) boil(rec *encouragement.Record) recordRow {
	return recordRow{
		ID:                         rec.ID,
		StudentID:                  rec.StudentID,
		StartedNotified:            boilSet(rec.StartedNotified),
		NearCompleteUnitNotified:   boilSet(rec.NearCompleteUnitNotified),
		NearCompleteIdeaNotified:   boilSet(rec.NearCompleteIdeaNotified),
		FeedbackCount:              rec.FeedbackCount,
		FeedbackWithNarrativeCount: rec.FeedbackWithNarrativeCount,
		EmailsSentThisWindow:       rec.EmailsSentThisWindow,
		WindowStart:                null.NewTime(rec.WindowStart.UTC(), !rec.WindowStart.IsZero()),
		InactiveNotStartedSent:     rec.InactiveNotStartedSent,
		InactiveStartedSent:        rec.InactiveStartedSent,
		CreatedAt:                  rec.CreatedAt.UTC(),
		UpdatedAt:                  rec.UpdatedAt.UTC(),
	}
}

func (repo recordRepository) unboil(row recordRow) *encouragement.Record {
	rec := &encouragement.Record{
		ID:                         row.ID,
		StudentID:                  row.StudentID,
		StartedNotified:            unboilSet(row.StartedNotified),
		NearCompleteUnitNotified:   unboilSet(row.NearCompleteUnitNotified),
		NearCompleteIdeaNotified:   unboilSet(row.NearCompleteIdeaNotified),
		FeedbackCount:              row.FeedbackCount,
		FeedbackWithNarrativeCount: row.FeedbackWithNarrativeCount,
		EmailsSentThisWindow:       row.EmailsSentThisWindow,
		InactiveNotStartedSent:     row.InactiveNotStartedSent,
		InactiveStartedSent:        row.InactiveStartedSent,
		CreatedAt:                  row.CreatedAt.UTC(),
		UpdatedAt:                  row.UpdatedAt.UTC(),
	}
	if row.WindowStart.Valid {
		rec.WindowStart = row.WindowStart.Time.UTC()
	}
	return rec
}

// trapNoRowsErr maps psql "no rows" err to encouragement.ErrRecordNotFound
func (repo recordRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return encouragement.ErrRecordNotFound
	}
	return database.TrapShutdownErr(err, msg)
}

func (repo recordRepository) GetRecord(ctx context.Context, studentID string) (*encouragement.Record, error) {
	var row recordRow
	q := `SELECT ` + recordColumns + ` FROM "encouragement_record" WHERE "student_id" = $1`
	if err := queries.Raw(q, studentID).Bind(ctx, repo.exec, &row); err != nil {
		return nil, repo.trapNoRowsErr(err, "getting encouragement record")
	}
	return repo.unboil(row), nil
}

// SaveRecord upserts rec on its student id; the last writer wins.
func (repo recordRepository) SaveRecord(ctx context.Context, rec *encouragement.Record) error {
	row := repo.boil(rec)
	q := `INSERT INTO "encouragement_record" (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT ("student_id") DO UPDATE SET
			"started_notified" = EXCLUDED."started_notified",
			"near_complete_unit_notified" = EXCLUDED."near_complete_unit_notified",
			"near_complete_idea_notified" = EXCLUDED."near_complete_idea_notified",
			"feedback_count" = EXCLUDED."feedback_count",
			"feedback_with_narrative_count" = EXCLUDED."feedback_with_narrative_count",
			"emails_sent_this_window" = EXCLUDED."emails_sent_this_window",
			"window_start" = EXCLUDED."window_start",
			"inactive_not_started_sent" = EXCLUDED."inactive_not_started_sent",
			"inactive_started_sent" = EXCLUDED."inactive_started_sent",
			"updated_at" = EXCLUDED."updated_at"`
	_, err := queries.Raw(q,
		row.ID, row.StudentID, row.StartedNotified, row.NearCompleteUnitNotified, row.NearCompleteIdeaNotified,
		row.FeedbackCount, row.FeedbackWithNarrativeCount, row.EmailsSentThisWindow, row.WindowStart,
		row.InactiveNotStartedSent, row.InactiveStartedSent, row.CreatedAt, row.UpdatedAt,
	).ExecContext(ctx, repo.exec)
	return database.TrapShutdownErr(err, "saving encouragement record")
}

func (repo recordRepository) DeleteRecord(ctx context.Context, studentID string) error {
	q := `DELETE FROM "encouragement_record" WHERE "student_id" = $1`
	res, err := queries.Raw(q, studentID).ExecContext(ctx, repo.exec)
	if err != nil {
		return database.TrapShutdownErr(err, "deleting encouragement record")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return database.TrapShutdownErr(err, "deleting encouragement record")
	}
	if n == 0 {
		return encouragement.ErrRecordNotFound
	}
	return nil
}
