package main

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix namespaces every environment override, e.g. NEBULA_FTP_LOG_LEVEL.
const envPrefix = "NEBULA_FTP"

// Settings are the process level options. Connector options live in the
// job file.
type Settings struct {
	Config    string
	LogLevel  string
	LogFormat string
	Trace     bool
	Workers   int
	Timeout   time.Duration
	Output    string
}

func initEnvs(v *viper.Viper) {
	_ = godotenv.Load()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "console")
	v.SetDefault("trace", false)
	v.SetDefault("workers", 0)
	v.SetDefault("timeout", 10*time.Minute)
	v.SetDefault("output", "text")
	v.AutomaticEnv()
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	flags.StringP("config", "c", "", "Path to the YAML job file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log encoding (console, json)")
	flags.Bool("trace", false, "Export OpenTelemetry spans to stderr")
	flags.Int("workers", 0, "Sub-tasks processed concurrently by check (0 uses the job's performance.workers)")
	flags.Duration("timeout", 10*time.Minute, "Overall command timeout")
	flags.StringP("output", "o", "text", "Output format (text, json)")
	return v.BindPFlags(flags)
}

func loadSettings(v *viper.Viper) Settings {
	return Settings{
		Config:    v.GetString("config"),
		LogLevel:  v.GetString("log-level"),
		LogFormat: v.GetString("log-format"),
		Trace:     v.GetBool("trace"),
		Workers:   v.GetInt("workers"),
		Timeout:   v.GetDuration("timeout"),
		Output:    v.GetString("output"),
	}
}
