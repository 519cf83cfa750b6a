package inmemdb

import (
	"sync"
	"time"

	"github.com/trezcool/nudge/core/encouragement"
	"github.com/trezcool/nudge/core/student"
)

type (
	DB struct {
		student  *studentTable
		progress *progressTable
		record   *recordTable
	}

	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
	}

	progressTable struct {
		mutex       sync.RWMutex
		lessons     map[string]map[int]time.Time // {student: {lesson: completed at}}
		assessments map[string]map[int]time.Time
		updatedOn   map[string]time.Time
	}

	recordTable struct {
		mutex sync.RWMutex
		table map[string]*encouragement.Record // {student: record}
	}
)

func Open() *DB {
	return &DB{
		student: &studentTable{table: make(map[string]*student.Student)},
		progress: &progressTable{
			lessons:     make(map[string]map[int]time.Time),
			assessments: make(map[string]map[int]time.Time),
			updatedOn:   make(map[string]time.Time),
		},
		record: &recordTable{table: make(map[string]*encouragement.Record)},
	}
}
