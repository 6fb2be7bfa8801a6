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
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridAPIKey   string
		defaultFromEmail string

		Server   ServerConfig
		Database DatabaseConfig
		Cache    CacheConfig
	}

	ServerConfig struct {
		Address            string
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		DisableReqLogs     bool
		CORSAllowOrigins   []string
	}

	DatabaseConfig struct {
		Engine     string // memory | bolt | sqlite | postgres
		Path       string // bolt or sqlite file
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	CacheConfig struct {
		ListTTL  time.Duration
		AdminTTL time.Duration
	}
)

// Address returns the `host:port` of the postgres server.
func (dbc DatabaseConfig) Address() string {
	return dbc.Host + ":" + dbc.Port
}

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
}

// NewConfig reads the configuration from the environment.
// Env vars are prefixed with the current ENV (DEV by default), eg: `DEV_SECRET_KEY`, `PROD_DATABASE_ENGINE`.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("app_name", "CO-PO Tracker")
	v.SetDefault("secret_key", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("default_from_email", "noreply@localhost")
	v.SetDefault("frontend_base_url", "http://localhost:3000")
	v.SetDefault("rollbar_token", "")
	v.SetDefault("sendgrid_api_key", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debug_host", ":4000")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.jwt_expiration_delta", 30*time.Minute)
	v.SetDefault("server.disable_req_logs", false)
	v.SetDefault("server.cors_allow_origins", []string{"*"})

	v.SetDefault("database.engine", "memory")
	v.SetDefault("database.path", "copo.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "copo")
	v.SetDefault("database.user", "copo")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disable_tls", true)

	v.SetDefault("cache.list_ttl", 60*time.Second)
	v.SetDefault("cache.admin_ttl", 30*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("test_mode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	confDir := os.Getenv("CONFIG_DIR")
	if confDir == "" {
		confDir = "config"
	}
	dotEnvPath := filepath.Join(confDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("test_mode"),
		AppName:          v.GetString("app_name"),
		SecretKey:        v.GetString("secret_key"),
		FrontendBaseURL:  v.GetString("frontend_base_url"),
		RollbarToken:     v.GetString("rollbar_token"),
		SendgridAPIKey:   v.GetString("sendgrid_api_key"),
		defaultFromEmail: v.GetString("default_from_email"),
		Server: ServerConfig{
			Address:            v.GetString("server.address"),
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debug_host"),
			ShutdownTimeout:    v.GetDuration("server.shutdown_timeout"),
			JWTExpirationDelta: v.GetDuration("server.jwt_expiration_delta"),
			DisableReqLogs:     v.GetBool("server.disable_req_logs"),
			CORSAllowOrigins:   v.GetStringSlice("server.cors_allow_origins"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Path:       v.GetString("database.path"),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disable_tls"),
		},
		Cache: CacheConfig{
			ListTTL:  v.GetDuration("cache.list_ttl"),
			AdminTTL: v.GetDuration("cache.admin_ttl"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: in-memory storage, no request logs.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		AppName:          "CO-PO Tracker",
		SecretKey:        "secret",
		defaultFromEmail: "noreply@localhost",
		Server: ServerConfig{
			Address:            ":0",
			Host:               "localhost",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: 30 * time.Minute,
			DisableReqLogs:     true,
			CORSAllowOrigins:   []string{"*"},
		},
		Database: DatabaseConfig{Engine: "memory"},
		Cache: CacheConfig{
			ListTTL:  60 * time.Second,
			AdminTTL: 30 * time.Second,
		},
	}
}
