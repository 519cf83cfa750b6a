package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/nudge/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		students = append(students, *s)
	}
	return students
}

func (repo *studentRepository) CheckUniqueness(_ context.Context, id, email string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.table {
		if s.ID == id {
			return student.ErrStudentExists
		}
		if s.Email == email {
			return student.ErrEmailExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[s.ID]; ok {
		return student.Student{}, student.ErrStudentExists
	}
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]student.Student, 0)
	for _, s := range repo.query() {
		if filter.SendMail != nil && s.Preferences.SendMail != *filter.SendMail {
			continue
		}
		if !filter.EnrolledFrom.IsZero() && s.EnrolledOn.Before(filter.EnrolledFrom) {
			continue
		}
		if !filter.EnrolledTo.IsZero() && s.EnrolledOn.After(filter.EnrolledTo) {
			continue
		}
		students = append(students, s)
	}

	asc := filter.Ordering.Field == "" || filter.Ordering.Ascending
	sort.Slice(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if !asc {
			a, b = b, a
		}
		if filter.Ordering.Field == "enrolled_on" && !a.EnrolledOn.Equal(b.EnrolledOn) {
			return a.EnrolledOn.Before(b.EnrolledOn)
		}
		return a.ID < b.ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(students) {
			return students[:0], nil
		}
		students = students[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(students) {
		students = students[:filter.Limit]
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	s.CreatedAt = orig.CreatedAt
	repo.db.table[s.ID] = &s
	return s, nil
}
