package config

import (
	"github.com/spf13/pflag"
)

// Flags holds command-line overrides. Only flags set explicitly replace
// values loaded from the environment.
type Flags struct {
	fs *pflag.FlagSet

	EnvFile  string
	port     string
	backend  string
	broker   string
	logLevel string
}

func NewFlags(name string) *Flags {
	f := &Flags{fs: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	f.fs.StringVar(&f.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	f.fs.StringVarP(&f.port, "port", "p", "", "HTTP listen port (overrides PORT)")
	f.fs.StringVar(&f.backend, "backend", "", "storage backend: memory, sqlite or postgres (overrides DATA_BACKEND)")
	f.fs.StringVar(&f.broker, "broker", "", "events broker: none, amqp or kafka (overrides EVENTS_BROKER)")
	f.fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	return f
}

func (f *Flags) Parse(args []string) error {
	return f.fs.Parse(args)
}

func (f *Flags) Apply(cfg *Config) {
	if f.fs.Changed("port") {
		cfg.Port = f.port
	}
	if f.fs.Changed("backend") {
		cfg.DataBackend = f.backend
	}
	if f.fs.Changed("broker") {
		cfg.EventsBroker = f.broker
	}
	if f.fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
}
