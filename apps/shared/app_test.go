package shared

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/student"
	emailsvc "github.com/trezcool/nudge/services/email"
	testutil "github.com/trezcool/nudge/tests"
)

const smallTaxonomy = `
course: Small Maths
culminatingAssessment: 9
units:
  - id: adding
    courseUnit: 1
    name: Adding
    number: Unit 1
    lessons: [1, 2, 3]
    activeLessons: [1, 2, 3]
ideas:
  - id: arithmetic
    name: Arithmetic
    units: [adding]
`

func memoryConfig(t *testing.T) *core.Config {
	conf, err := core.LoadConfig(t.TempDir())
	require.NoError(t, err)
	conf.Database.Engine = EngineMemory
	return conf
}

func TestNew_memory(t *testing.T) {
	conf := memoryConfig(t)
	app, err := New(conf, new(testutil.Logger), nil)
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close()) }()

	assert.Nil(t, app.DB)
	assert.Equal(t, "Citizen Maths", app.Index.Course)

	ctx := context.Background()
	ns := student.NewStudent{ID: "ada", Name: "Ada", Email: "ada@test.com", SendMail: true}
	_, err = app.StudentSvc.Create(ctx, ns)
	require.NoError(t, err)
	require.NoError(t, app.StudentSvc.RecordProgress(ctx, "ada", student.ProgressUpdate{Lessons: []int{28, 29}}))

	rep, err := app.EncouragementSvc.EvaluateLesson(ctx, "ada", 22, 29)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Sent)

	rec, err := app.Records.GetRecord(ctx, "ada")
	require.NoError(t, err)
	assert.True(t, rec.StartedNotified.Has("proportion"))
}

func TestNew_taxonomyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallTaxonomy), 0o600))

	conf := memoryConfig(t)
	conf.Encouragement.TaxonomyFile = path
	app, err := New(conf, new(testutil.Logger), nil)
	require.NoError(t, err)
	assert.Equal(t, "Small Maths", app.Index.Course)

	conf.Encouragement.TaxonomyFile = filepath.Join(filepath.Dir(path), "missing.yaml")
	_, err = New(conf, new(testutil.Logger), nil)
	assert.Error(t, err)
}

func TestNewEmailService(t *testing.T) {
	conf := memoryConfig(t)
	logger := new(testutil.Logger)

	conf.Debug = false
	conf.Email.SendgridApiKey = ""
	assert.IsType(t, emailsvc.NewConsoleService(conf, nil), newEmailService(conf, logger, nil))

	conf.Email.SendgridApiKey = "SG.key"
	assert.IsType(t, emailsvc.NewSendgridService(conf, logger), newEmailService(conf, logger, nil))

	conf.Debug = true
	assert.IsType(t, emailsvc.NewConsoleService(conf, nil), newEmailService(conf, logger, nil))
}
