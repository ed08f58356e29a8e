package core

import (
	"log"
	"net"
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
		AppName      string
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		WorkDir      string

		Server   ServerConfig
		Database DatabaseConfig
		Calendar CalendarConfig
		Snapshot SnapshotConfig
		Mail     MailConfig
	}

	ServerConfig struct {
		Host            string
		Addr            string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	DatabaseConfig struct {
		Driver        string // postgres | sqlite
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

	CalendarConfig struct {
		Timezone        string
		DayStart        string // HH:MM, top of the calendar column
		DayEnd          string // HH:MM
		PixelsPerMinute float64
		MinEventMinutes int
	}

	SnapshotConfig struct {
		RefreshCron string
	}

	MailConfig struct {
		DefaultFromEmail string
		FrontendBaseURL  string
		SendgridAPIKey   string
	}
)

// Address returns the database host:port pair.
func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// Location returns the configured timezone, falling back to UTC.
func (cc CalendarConfig) Location() *time.Location {
	if cc.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(cc.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (mc MailConfig) From(appName string) mail.Address {
	return mail.Address{Name: appName, Address: mc.DefaultFromEmail}
}

// NewConfig loads the configuration from defaults, `config/.env.<env>` and environment variables.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Ratiba")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("serverDebugHost", "localhost:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("serverDisableReqLogs", false)

	v.SetDefault("dbDriver", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "ratiba")
	v.SetDefault("dbUser", "ratiba")
	v.SetDefault("dbPassword", "ratiba")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "postgres")
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("dbPath", "ratiba.db")

	v.SetDefault("calendarTimezone", "Africa/Kinshasa")
	v.SetDefault("calendarDayStart", "07:00")
	v.SetDefault("calendarDayEnd", "18:00")
	v.SetDefault("calendarPixelsPerMinute", 1.0)
	v.SetDefault("calendarMinEventMinutes", 15)

	v.SetDefault("snapshotRefreshCron", "@every 5m")

	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:8080")
	v.SetDefault("sendgridApiKey", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      workDir,
		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			Addr:            v.GetString("serverAddr"),
			DebugHost:       v.GetString("serverDebugHost"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
			DisableReqLogs:  v.GetBool("serverDisableReqLogs"),
		},
		Database: DatabaseConfig{
			Driver:        v.GetString("dbDriver"),
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
		Calendar: CalendarConfig{
			Timezone:        v.GetString("calendarTimezone"),
			DayStart:        v.GetString("calendarDayStart"),
			DayEnd:          v.GetString("calendarDayEnd"),
			PixelsPerMinute: v.GetFloat64("calendarPixelsPerMinute"),
			MinEventMinutes: v.GetInt("calendarMinEventMinutes"),
		},
		Snapshot: SnapshotConfig{
			RefreshCron: v.GetString("snapshotRefreshCron"),
		},
		Mail: MailConfig{
			DefaultFromEmail: v.GetString("defaultFromEmail"),
			FrontendBaseURL:  v.GetString("frontendBaseURL"),
			SendgridAPIKey:   v.GetString("sendgridApiKey"),
		},
	}
}
