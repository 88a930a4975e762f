package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	GrpcHealthPort       int           `env:"GRPC_HEALTH_PORT,default=0"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	StorageDriver        string        `env:"STORAGE_DRIVER,default=badger"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,default=./data/badger"`
	SQLiteFilepath       string        `env:"SQLITE_FILEPATH,default=./data/devconnect.db"`
	LimitMessages        int           `env:"LIMIT_MESSAGES,default=0"`
	MaxMessageLength     int           `env:"MAX_MESSAGE_LENGTH,default=5000"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=2s"`
	NotifierBufferSize   int           `env:"NOTIFIER_BUFFER_SIZE,default=256"`
	NotifyOnMessage      bool          `env:"NOTIFY_ON_MESSAGE,default=true"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=15s"`
	PingPeriod           time.Duration `env:"PING_PERIOD,default=30s"`
	PongWait             time.Duration `env:"PONG_WAIT,default=60s"`
	SocketRateLimit      float64       `env:"SOCKET_RATE_LIMIT,default=20"`
	SocketRateBurst      int           `env:"SOCKET_RATE_BURST,default=40"`
	AuthSecret           string        `env:"AUTH_SECRET"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	CensoredWords        string        `env:"CENSORED_WORDS"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*"`
}

// loadConfig reads the optional env file given by --env-file, then the
// environment. Variables already set in the environment win.
func loadConfig(args []string) (Config, error) {
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	envFile := flags.String("env-file", "", "path to a .env file loaded before reading the environment")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			return Config{}, fmt.Errorf("env file %s: %w", *envFile, err)
		}
	}

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, err
	}
	return config, config.validate()
}

func (c Config) validate() error {
	if c.PingPeriod >= c.PongWait {
		return fmt.Errorf("PING_PERIOD (%s) must be shorter than PONG_WAIT (%s)", c.PingPeriod, c.PongWait)
	}
	if c.ConnectionBufferSize <= 0 || c.NotifierBufferSize <= 0 {
		return fmt.Errorf("buffer sizes must be positive")
	}
	if c.DeliveryTimeout <= 0 {
		return fmt.Errorf("DELIVERY_TIMEOUT must be positive")
	}
	if _, err := c.replacement(); err != nil {
		return err
	}
	return nil
}

// censoredWords splits CENSORED_WORDS on commas, dropping blanks.
func (c Config) censoredWords() []string {
	words := lo.Map(strings.Split(c.CensoredWords, ","), func(word string, _ int) string {
		return strings.TrimSpace(word)
	})
	return lo.Compact(words)
}

func (c Config) replacement() (rune, error) {
	r := []rune(c.CharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf("CHARACTER_REPLACEMENT must be a single character, got %q", c.CharReplacement)
	}
	return r[0], nil
}

func (c Config) address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

