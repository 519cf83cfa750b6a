package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/nudge/core/encouragement"
	"github.com/trezcool/nudge/core/student"
	"github.com/trezcool/nudge/core/taxonomy"
)

// ProgressRepository records and reports lesson and assessment completions.
type ProgressRepository struct {
	db *progressTable
}

var (
	_ student.ProgressRecorder     = (*ProgressRepository)(nil)
	_ encouragement.ProgressSource = (*ProgressRepository)(nil)
)

func NewProgressRepository(db *DB) *ProgressRepository {
	return &ProgressRepository{db: db.progress}
}

func markDone(table map[string]map[int]time.Time, studentID string, ids []int, at time.Time) {
	done, ok := table[studentID]
	if !ok {
		done = make(map[int]time.Time)
		table[studentID] = done
	}
	for _, id := range ids {
		if _, ok := done[id]; !ok {
			done[id] = at
		}
	}
}

func (repo *ProgressRepository) RecordLessons(_ context.Context, studentID string, lessons []int, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	markDone(repo.db.lessons, studentID, lessons, at)
	repo.db.updatedOn[studentID] = at.UTC()
	return nil
}

func (repo *ProgressRepository) RecordAssessments(_ context.Context, studentID string, assessments []int, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	markDone(repo.db.assessments, studentID, assessments, at)
	repo.db.updatedOn[studentID] = at.UTC()
	return nil
}

func (repo *ProgressRepository) LessonCompletion(_ context.Context, studentID string, lessons []taxonomy.LessonID) (completed, total int, err error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	done := repo.db.lessons[studentID]
	for _, l := range lessons {
		if _, ok := done[int(l)]; ok {
			completed++
		}
	}
	return completed, len(lessons), nil
}

func (repo *ProgressRepository) AssessmentCompleted(_ context.Context, studentID string, assessmentID int) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	_, ok := repo.db.assessments[studentID][assessmentID]
	return ok, nil
}

func (repo *ProgressRepository) LastUpdated(_ context.Context, studentID string) (time.Time, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.updatedOn[studentID], nil
}
