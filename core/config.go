package core

import (
	"fmt"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName   string
		Env       string // DEV (local; default), TEST, QA, PROD
		Build     string
		Debug     bool
		TestMode  bool
		SecretKey string

		RollbarToken string

		Email         EmailConfig
		Server        ServerConfig
		Database      DatabaseConfig
		Encouragement EncouragementConfig
	}

	EmailConfig struct {
		FromName       string
		FromAddress    string
		SubjectPrefix  string
		SendgridApiKey string
	}

	ServerConfig struct {
		Host               string
		PublicURL          string // base of the links to the API sent in emails
		DebugHost          string
		ReadTimeout        time.Duration
		WriteTimeout       time.Duration
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	EncouragementConfig struct {
		CourseName    string
		CourseBaseURL string
		SiteURL       string
		ProfilePath   string
		Signature     string
		Team          string
		TaxonomyFile  string // empty: embedded default taxonomy

		ThrottleWindow time.Duration
		ThrottleLimit  int

		StartedIdeaCompleted      int
		NearCompleteUnitRemaining int
		NearCompleteIdeaRemaining int

		NarrativeMinLength int
		FeedbackCutoff     time.Time

		NotStartedAfter time.Duration
		InactiveAfter   time.Duration

		UnsubscribeTokenTTL time.Duration

		ReleaseOnSendFailure bool
		SweepEnabled         bool
		SweepInterval        time.Duration
	}
)

// DefaultFromEmail is the sender of every outgoing email.
func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.Email.FromName, Address: c.Email.FromAddress}
}

// Address returns the "host:port" of the database server.
func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// ProfileURL is the page students unsubscribe from.
func (ec EncouragementConfig) ProfileURL() string {
	return ec.CourseBaseURL + ec.ProfilePath
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("appName", "Nudge")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("email.fromName", "Citizen Maths")
	v.SetDefault("email.fromAddress", "noreply@localhost")
	v.SetDefault("email.subjectPrefix", "")
	v.SetDefault("email.sendgridApiKey", "")

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.publicURL", "http://localhost:8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 30*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "nudge")
	v.SetDefault("database.user", "nudge")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("encouragement.courseName", "Citizen Maths")
	v.SetDefault("encouragement.courseBaseURL", "https://course.citizenmaths.com")
	v.SetDefault("encouragement.siteURL", "https://citizenmaths.com/")
	v.SetDefault("encouragement.profilePath", "/main/student/home")
	v.SetDefault("encouragement.signature", "Seb Schmoller")
	v.SetDefault("encouragement.team", "Citizen Maths Team")
	v.SetDefault("encouragement.taxonomyFile", "")
	v.SetDefault("encouragement.throttleWindow", 7*24*time.Hour)
	v.SetDefault("encouragement.throttleLimit", 4)
	v.SetDefault("encouragement.startedIdeaCompleted", 2)
	v.SetDefault("encouragement.nearCompleteUnitRemaining", 1)
	v.SetDefault("encouragement.nearCompleteIdeaRemaining", 3)
	v.SetDefault("encouragement.narrativeMinLength", 10)
	v.SetDefault("encouragement.feedbackCutoff", time.Date(2016, time.November, 1, 0, 0, 0, 0, time.UTC))
	v.SetDefault("encouragement.notStartedAfter", 7*24*time.Hour)
	v.SetDefault("encouragement.inactiveAfter", 14*24*time.Hour)
	v.SetDefault("encouragement.unsubscribeTokenTTL", 60*24*time.Hour)
	v.SetDefault("encouragement.releaseOnSendFailure", false)
	v.SetDefault("encouragement.sweepEnabled", false)
	v.SetDefault("encouragement.sweepInterval", 24*time.Hour)
}

// NewConfig loads the configuration from defaults, `config/.env.<env>` (if it exists) and the environment.
// Environment variables are prefixed with the env name and use "_" for nesting, eg. PROD_DATABASE_HOST.
func NewConfig() *Config {
	conf, err := LoadConfig(os.Getenv("CONFIG_DIR"))
	if err != nil {
		panic(err)
	}
	return conf
}

// LoadConfig is NewConfig with an explicit directory for the dotenv files.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if dir == "" {
		dir = "config"
	}
	dotEnvPath := filepath.Join(dir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Email: EmailConfig{
			FromName:       v.GetString("email.fromName"),
			FromAddress:    v.GetString("email.fromAddress"),
			SubjectPrefix:  v.GetString("email.subjectPrefix"),
			SendgridApiKey: v.GetString("email.sendgridApiKey"),
		},
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			PublicURL:          strings.TrimSuffix(v.GetString("server.publicURL"), "/"),
			DebugHost:          v.GetString("server.debugHost"),
			ReadTimeout:        v.GetDuration("server.readTimeout"),
			WriteTimeout:       v.GetDuration("server.writeTimeout"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Encouragement: EncouragementConfig{
			CourseName:                v.GetString("encouragement.courseName"),
			CourseBaseURL:             strings.TrimSuffix(v.GetString("encouragement.courseBaseURL"), "/"),
			SiteURL:                   v.GetString("encouragement.siteURL"),
			ProfilePath:               v.GetString("encouragement.profilePath"),
			Signature:                 v.GetString("encouragement.signature"),
			Team:                      v.GetString("encouragement.team"),
			TaxonomyFile:              v.GetString("encouragement.taxonomyFile"),
			ThrottleWindow:            v.GetDuration("encouragement.throttleWindow"),
			ThrottleLimit:             v.GetInt("encouragement.throttleLimit"),
			StartedIdeaCompleted:      v.GetInt("encouragement.startedIdeaCompleted"),
			NearCompleteUnitRemaining: v.GetInt("encouragement.nearCompleteUnitRemaining"),
			NearCompleteIdeaRemaining: v.GetInt("encouragement.nearCompleteIdeaRemaining"),
			NarrativeMinLength:        v.GetInt("encouragement.narrativeMinLength"),
			FeedbackCutoff:            v.GetTime("encouragement.feedbackCutoff").UTC(),
			NotStartedAfter:           v.GetDuration("encouragement.notStartedAfter"),
			InactiveAfter:             v.GetDuration("encouragement.inactiveAfter"),
			UnsubscribeTokenTTL:       v.GetDuration("encouragement.unsubscribeTokenTTL"),
			ReleaseOnSendFailure:      v.GetBool("encouragement.releaseOnSendFailure"),
			SweepEnabled:              v.GetBool("encouragement.sweepEnabled"),
			SweepInterval:             v.GetDuration("encouragement.sweepInterval"),
		},
	}
	if conf.Encouragement.ThrottleLimit <= 0 {
		return nil, fmt.Errorf("encouragement.throttleLimit must be positive (got %d)", conf.Encouragement.ThrottleLimit)
	}
	return conf, nil
}
