package encouragement

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/student"
	"github.com/trezcool/nudge/core/taxonomy"
)

// testIndex is a two-unit course:
//
//	idea "counting": unit "ones" (lessons 1-4, course unit 10), unit "tens" (lessons 5-8, course unit 20)
//	unit "loose" (lessons 11-12, course unit 30) belongs to no idea
func testIndex(t *testing.T) *taxonomy.Index {
	t.Helper()
	idx, err := taxonomy.New("Test Maths", 99,
		[]taxonomy.Unit{
			{ID: "ones", CourseUnit: 10, Name: "Ones", Number: "Unit 1", Lessons: []taxonomy.LessonID{1, 2, 3, 4}, ActiveLessons: []taxonomy.LessonID{1, 2, 3, 4}},
			{ID: "tens", CourseUnit: 20, Name: "Tens", Number: "Unit 2", Lessons: []taxonomy.LessonID{5, 6, 7, 8}, ActiveLessons: []taxonomy.LessonID{5, 6, 7, 8, 9}},
			{ID: "loose", CourseUnit: 30, Name: "Loose", Number: "Unit 3", Lessons: []taxonomy.LessonID{11, 12}, ActiveLessons: []taxonomy.LessonID{11, 12}},
		},
		[]taxonomy.Idea{{ID: "counting", Name: "Counting", Units: []taxonomy.GroupingID{"ones", "tens"}}},
	)
	require.NoError(t, err, "building test index")
	return idx
}

type fakeProgress struct {
	mu          sync.Mutex
	done        map[taxonomy.LessonID]bool
	assessments map[int]bool
	updated     time.Time
	calls       int
	err         error
}

func newFakeProgress(lessons ...taxonomy.LessonID) *fakeProgress {
	p := &fakeProgress{done: make(map[taxonomy.LessonID]bool), assessments: make(map[int]bool)}
	p.complete(lessons...)
	return p
}

func (p *fakeProgress) complete(lessons ...taxonomy.LessonID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range lessons {
		p.done[l] = true
	}
}

func (p *fakeProgress) LessonCompletion(_ context.Context, _ string, lessons []taxonomy.LessonID) (int, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return 0, 0, p.err
	}
	completed := 0
	for _, l := range lessons {
		if p.done[l] {
			completed++
		}
	}
	return completed, len(lessons), nil
}

func (p *fakeProgress) AssessmentCompleted(_ context.Context, _ string, id int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assessments[id], p.err
}

func (p *fakeProgress) LastUpdated(context.Context, string) (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updated, p.err
}

type fakeRepo struct {
	records map[string]*Record
	saves   int
	saveErr error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{records: make(map[string]*Record)} }

func (r *fakeRepo) GetRecord(_ context.Context, studentID string) (*Record, error) {
	rec, ok := r.records[studentID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (r *fakeRepo) SaveRecord(_ context.Context, rec *Record) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.records[rec.StudentID] = rec.Clone()
	return nil
}

func (r *fakeRepo) DeleteRecord(_ context.Context, studentID string) error {
	if _, ok := r.records[studentID]; !ok {
		return ErrRecordNotFound
	}
	delete(r.records, studentID)
	return nil
}

type fakeStudents map[string]student.Student

func (fs fakeStudents) Get(_ context.Context, id string) (student.Student, error) {
	s, ok := fs[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	return s, nil
}

func (fs fakeStudents) Consenting(context.Context) ([]student.Student, error) {
	var res []student.Student
	for _, s := range fs {
		if s.Preferences.SendMail {
			res = append(res, s)
		}
	}
	return res, nil
}

type fakeMailer struct {
	sent []*core.EmailMessage
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg *core.EmailMessage) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) subjects() []string {
	subjects := make([]string, 0, len(m.sent))
	for _, msg := range m.sent {
		subjects = append(subjects, msg.Subject)
	}
	return subjects
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

var testNow = time.Date(2020, time.March, 2, 9, 0, 0, 0, time.UTC)

type serviceFixture struct {
	svc      *Service
	repo     *fakeRepo
	progress *fakeProgress
	mailer   *fakeMailer
	students fakeStudents
	now      time.Time
}

func (f *serviceFixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newServiceFixture(t *testing.T, opts Options) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		repo:     newFakeRepo(),
		progress: newFakeProgress(),
		mailer:   &fakeMailer{},
		students: fakeStudents{
			"ada": {ID: "ada", Name: "Ada", Email: "ada@example.com", Preferences: student.Preferences{SendMail: true}, EnrolledOn: testNow.AddDate(0, -1, 0)},
			"bob": {ID: "bob", Name: "Bob", Email: "bob@example.com", EnrolledOn: testNow.AddDate(0, -1, 0)},
		},
		now: testNow,
	}
	f.svc = NewService(f.repo, f.students, testIndex(t), f.progress, f.mailer, &nopLogger{}, opts)
	f.svc.now = func() time.Time { return f.now }
	return f
}
