package inmemdb

import (
	"context"

	"github.com/trezcool/nudge/core/encouragement"
)

type recordRepository struct {
	db *recordTable
}

var _ encouragement.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *DB) encouragement.Repository {
	return &recordRepository{db: db.record}
}

func (repo *recordRepository) GetRecord(_ context.Context, studentID string) (*encouragement.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.table[studentID]; ok {
		return rec.Clone(), nil
	}
	return nil, encouragement.ErrRecordNotFound
}

func (repo *recordRepository) SaveRecord(_ context.Context, rec *encouragement.Record) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	saved := rec.Clone()
	if orig, ok := repo.db.table[rec.StudentID]; ok {
		saved.ID = orig.ID
		saved.CreatedAt = orig.CreatedAt
	}
	repo.db.table[rec.StudentID] = saved
	return nil
}

func (repo *recordRepository) DeleteRecord(_ context.Context, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[studentID]; !ok {
		return encouragement.ErrRecordNotFound
	}
	delete(repo.db.table, studentID)
	return nil
}
