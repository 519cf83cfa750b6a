// Package shared wires the storage, email and encouragement services both apps run on.
package shared

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/encouragement"
	"github.com/trezcool/nudge/core/student"
	"github.com/trezcool/nudge/core/taxonomy"
	emailsvc "github.com/trezcool/nudge/services/email"
	"github.com/trezcool/nudge/storage/database"
	inmemdb "github.com/trezcool/nudge/storage/database/inmem"
	boiledrepos "github.com/trezcool/nudge/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/nudge/storage/database/sqlx"
)

// EngineMemory keeps everything in process memory; for development and demos.
const EngineMemory = "memory"

type App struct {
	Conf             *core.Config
	Logger           core.Logger
	DB               *sql.DB // nil with EngineMemory
	Index            *taxonomy.Index
	Records          encouragement.Repository
	StudentSvc       *student.Service
	EncouragementSvc *encouragement.Service
}

// New sets up the database (creating and migrating it if needed), the repositories and the services.
func New(conf *core.Config, logger core.Logger, mailOut *log.Logger) (*App, error) {
	index, err := loadTaxonomy(conf.Encouragement.TaxonomyFile)
	if err != nil {
		return nil, err
	}
	app := &App{Conf: conf, Logger: logger, Index: index}

	var (
		students student.Repository
		progress interface {
			student.ProgressRecorder
			encouragement.ProgressSource
		}
	)
	if conf.Database.Engine == EngineMemory {
		db := inmemdb.Open()
		students = inmemdb.NewStudentRepository(db)
		progress = inmemdb.NewProgressRepository(db)
		app.Records = inmemdb.NewRecordRepository(db)
	} else {
		if app.DB, err = setUpDB(conf); err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		xdb := database.Wrap(app.DB, conf.Database.Engine)
		students = sqlxrepos.NewStudentRepository(xdb)
		progress = sqlxrepos.NewProgressRepository(xdb)
		app.Records = boiledrepos.NewRecordRepository(app.DB)
	}

	tokens := student.NewTokenGenerator(conf.SecretKey, conf.Encouragement.UnsubscribeTokenTTL)
	app.StudentSvc = student.NewService(students, progress, tokens)

	opts := encouragement.OptionsFromConfig(conf)
	opts.Content.UnsubscribeURL = func(s student.Student) string {
		return conf.Server.PublicURL + "/v1/unsubscribe/" + tokens.Path(s)
	}
	app.EncouragementSvc = encouragement.NewService(
		app.Records,
		app.StudentSvc,
		index,
		progress,
		newEmailService(conf, logger, mailOut),
		logger,
		opts,
	)
	return app, nil
}

// Close releases the database connections.
func (app *App) Close() error {
	if app.DB == nil {
		return nil
	}
	return app.DB.Close()
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func loadTaxonomy(path string) (*taxonomy.Index, error) {
	if path == "" {
		return taxonomy.Default()
	}
	index, err := taxonomy.LoadFile(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	return index, errors.Wrapf(err, "loading taxonomy %s", path)
}

// newEmailService sends through SendGrid when a key is configured outside debug mode, and
// prints emails to mailOut otherwise.
func newEmailService(conf *core.Config, logger core.Logger, mailOut *log.Logger) core.EmailService {
	if conf.Debug || conf.Email.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, mailOut)
	}
	return emailsvc.NewSendgridService(conf, logger)
}
