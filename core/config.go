package core

import (
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
	APIConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	StoreConfig struct {
		Path      string
		Ephemeral bool
	}

	I18nConfig struct {
		DefaultLanguage string
	}

	WebConfig struct {
		Address         string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		Build            string
		AppName          string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address
		API              APIConfig
		Store            StoreConfig
		I18n             I18nConfig
		Web              WebConfig
	}
)

// NewConfig loads the configuration from defaults, an optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the value of ENV (DEV by default), e.g. DEV_API_BASEURL.
func NewConfig() (*Config, error) {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "Mahudhurio")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("api.baseURL", "http://localhost:8080/api")
	conf.SetDefault("api.timeout", 10*time.Second)
	conf.SetDefault("store.path", defaultStorePath())
	conf.SetDefault("store.ephemeral", false)
	conf.SetDefault("i18n.defaultLanguage", "en")
	conf.SetDefault("web.address", "127.0.0.1:3000")
	conf.SetDefault("web.shutdownTimeout", 5*time.Second)
	conf.SetDefault("web.disableReqLogs", false)
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	conf.AutomaticEnv()

	from, err := mail.ParseAddress(conf.GetString("defaultFromEmail"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing defaultFromEmail")
	}

	return &Config{
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		Env:              env,
		Build:            conf.GetString("build"),
		AppName:          conf.GetString("appName"),
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		DefaultFromEmail: *from,
		API: APIConfig{
			BaseURL: strings.TrimRight(conf.GetString("api.baseURL"), "/"),
			Timeout: conf.GetDuration("api.timeout"),
		},
		Store: StoreConfig{
			Path:      conf.GetString("store.path"),
			Ephemeral: conf.GetBool("store.ephemeral"),
		},
		I18n: I18nConfig{
			DefaultLanguage: conf.GetString("i18n.defaultLanguage"),
		},
		Web: WebConfig{
			Address:         conf.GetString("web.address"),
			ShutdownTimeout: conf.GetDuration("web.shutdownTimeout"),
			DisableReqLogs:  conf.GetBool("web.disableReqLogs"),
		},
	}, nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "mahudhurio", "state.db")
}
