package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultTempo    = 90
	MinTempo        = 40
	MaxTempo        = 200
	DefaultBars     = 4
	MaxBars         = 16
	DefaultVelocity = 100
)

// Config holds the defaults the CLI and server start from. Every field can be
// overridden by flags.
type Config struct {
	Environment string

	Key   string
	Style string
	Bars  int
	Tempo int
	Mode  string
	Loop  bool

	// Device selects the MIDI output: an index, a name prefix, or "" for the
	// first output found.
	Device   string
	Channel  uint8
	Velocity uint8

	// Optional YAML file with extra style pools
	StylesPath string

	Addr      string
	SentryDSN string
}

// Load reads .env (if present) and then the environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Key:         getEnv("CHORDGEN_KEY", "C"),
		Style:       getEnv("CHORDGEN_STYLE", "Pop"),
		Bars:        getInt("CHORDGEN_BARS", DefaultBars),
		Tempo:       getInt("CHORDGEN_TEMPO", DefaultTempo),
		Mode:        getEnv("CHORDGEN_MODE", "block"),
		Loop:        getBool("CHORDGEN_LOOP", false),
		Device:      getEnv("CHORDGEN_DEVICE", ""),
		Channel:     uint8(getInt("CHORDGEN_CHANNEL", 0) & 0x0f),
		Velocity:    uint8(getInt("CHORDGEN_VELOCITY", DefaultVelocity) & 0x7f),
		StylesPath:  getEnv("CHORDGEN_STYLES_PATH", ""),
		Addr:        getEnv("CHORDGEN_ADDR", ":8080"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return b
}
