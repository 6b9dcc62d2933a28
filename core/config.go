package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName      string
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		WorkDir      string

		Server    ServerConfig
		Database  DatabaseConfig
		Directory DirectoryConfig
		CLI       CLIConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		DisableReqLogs            bool
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite only
	}

	DirectoryConfig struct {
		BaseURL    string
		Timeout    time.Duration
		RetryCount int
	}

	CLIConfig struct {
		DataDir string
	}
)

func (dc DatabaseConfig) Address() string {
	if dc.Port == "" {
		return dc.Host
	}
	return dc.Host + ":" + dc.Port
}

func (dc DatabaseConfig) IsSQLite() bool {
	return dc.Engine == "sqlite"
}

// NewConfig loads the configuration from the environment,
// optionally seeded by `<workdir>/config/.env.<env>`.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	wd := os.Getenv("WORKDIR")
	if wd == "" {
		var err error
		if wd, err = os.Getwd(); err != nil {
			log.Fatalf("config.os.Getwd(): %v", err)
		}
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	setDefaults(v, env)
	v.AutomaticEnv()

	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      wd,
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Address:                   v.GetString("serverAddress"),
			DebugHost:                 v.GetString("debugHost"),
			DisableReqLogs:            v.GetBool("disableReqLogs"),
			ShutdownTimeout:           v.GetDuration("shutdownTimeout"),
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
			DisableTLS:    v.GetBool("dbDisableTLS"),
			Path:          v.GetString("dbPath"),
		},
		Directory: DirectoryConfig{
			BaseURL:    v.GetString("apiURL"),
			Timeout:    v.GetDuration("apiTimeout"),
			RetryCount: v.GetInt("apiRetryCount"),
		},
		CLI: CLIConfig{
			DataDir: v.GetString("dataDir"),
		},
	}
}

func setDefaults(v *viper.Viper, env string) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("appName", "SchoolHub")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("secretKey", "k3c8-nq)w2z$+4r=8u&ygp1s(e!f)#*ta(#mh^$xbvn6dlo")

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("debugHost", ":4000")
	v.SetDefault("shutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 30*24*time.Hour)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "schoolhub")
	v.SetDefault("dbUser", "schoolhub")
	v.SetDefault("dbDisableTLS", env == "DEV" || env == "TEST")
	v.SetDefault("dbPath", "schoolhub.db")

	v.SetDefault("apiURL", "http://localhost:5000/api")
	v.SetDefault("apiTimeout", 15*time.Second)
	v.SetDefault("apiRetryCount", 1)

	home, _ := os.UserHomeDir()
	v.SetDefault("dataDir", filepath.Join(home, ".schoolhub"))
}
