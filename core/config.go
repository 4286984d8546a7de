package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env             string // DEV (local; default), TEST, QA, PROD
		Build           string
		Debug           bool
		TestMode        bool
		AppName         string
		SecretKey       string
		RollbarToken    string
		SendgridAPIKey  string
		FrontendBaseURL string

		PasswordResetTimeoutDelta time.Duration

		defaultFromEmail mail.Address

		Server   ServerConfig
		Database DatabaseConfig
		Grading  GradingConfig
	}

	ServerConfig struct {
		Address                   string
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
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

	// GradingConfig holds the fallbacks used when a new account picks no State.
	GradingConfig struct {
		DefaultHoursPerCredit float64
		DefaultMinCredits     float64
	}
)

func (dbc DatabaseConfig) Address() string {
	if dbc.Port == "" {
		return dbc.Host
	}
	return dbc.Host + ":" + dbc.Port
}

func (conf *Config) DefaultFromEmail() mail.Address { return conf.defaultFromEmail }

// NewConfig loads the configuration from the environment (optionally seeded by `config/.env.<env>`).
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	v := viper.New()
	v.SetEnvPrefix(env)
	v.AutomaticEnv()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("appName", "Homeschool")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("frontendBaseUrl", "http://localhost:3000")
	v.SetDefault("defaultFromName", "Homeschool")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("serverAddress", ":8080")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverDebugHost", "localhost:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "homeschool")
	v.SetDefault("dbUser", "homeschool")
	v.SetDefault("dbPassword", "")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbDisableTls", true)

	v.SetDefault("defaultHoursPerCredit", 120.0)
	v.SetDefault("defaultMinCredits", 24.0)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	return &Config{
		Env:             env,
		Build:           v.GetString("build"),
		Debug:           v.GetBool("debug"),
		TestMode:        env == "TEST",
		AppName:         v.GetString("appName"),
		SecretKey:       v.GetString("secretKey"),
		RollbarToken:    v.GetString("rollbarToken"),
		SendgridAPIKey:  v.GetString("sendgridApiKey"),
		FrontendBaseURL: v.GetString("frontendBaseUrl"),

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		defaultFromEmail: mail.Address{
			Name:    v.GetString("defaultFromName"),
			Address: v.GetString("defaultFromEmail"),
		},
		Server: ServerConfig{
			Address:                   v.GetString("serverAddress"),
			Host:                      v.GetString("serverHost"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTls"),
		},
		Grading: GradingConfig{
			DefaultHoursPerCredit: v.GetFloat64("defaultHoursPerCredit"),
			DefaultMinCredits:     v.GetFloat64("defaultMinCredits"),
		},
	}
}

// NewTestConfig returns a Config suited for tests: debug on, no external services.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		Debug:            true,
		TestMode:         true,
		AppName:          "Homeschool",
		SecretKey:        "test-secret",
		FrontendBaseURL:  "http://localhost:3000",
		defaultFromEmail: mail.Address{Name: "Homeschool", Address: "noreply@localhost"},

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,

		Server: ServerConfig{
			Address:                   ":0",
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Grading: GradingConfig{DefaultHoursPerCredit: 120, DefaultMinCredits: 24},
	}
}
