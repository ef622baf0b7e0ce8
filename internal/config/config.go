// Package config loads one run's parameters (territory code, RNG seed,
// batch size, output format, worker sizing and file locations) from
// environment variables plus an optional .env file.
package config

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/geodemo/popsynth/pkg/geo"
)

// Config holds one run's parameters.
type Config struct {
	// Seed carries no validate tag: zero is a legitimate seed, and
	// presence is enforced while reading the environment.
	Territory    string `validate:"required"`
	Seed         int64

	BatchSize    int    `validate:"gt=0"`
	OutputFormat string `validate:"oneof=csv geopackage"`
	Workers      int    `validate:"gt=0"`
	LedgerPath   string `validate:"required"`
	LogLevel     string `validate:"oneof=DEBUG INFO WARN ERROR"`

	ServerHost string `validate:"required"`
	ServerPort int    `validate:"gt=0,lt=65536"`

	TilesPath     string `validate:"required"`
	AddressesPath string `validate:"required"`
	OutputDir     string `validate:"required"`

	PollInterval time.Duration `validate:"gt=0"`
	Concurrency  int           `validate:"gt=0"`
}

// knownKeys is every environment variable this module reads. A .env file
// naming anything else is rejected outright.
var knownKeys = map[string]bool{
	"POPSYNTH_TERRITORY":          true,
	"POPSYNTH_SEED":               true,
	"POPSYNTH_BATCH_SIZE":         true,
	"POPSYNTH_OUTPUT_FORMAT":      true,
	"POPSYNTH_WORKERS":            true,
	"POPSYNTH_LEDGER_PATH":        true,
	"POPSYNTH_LOG_LEVEL":          true,
	"POPSYNTH_SERVER_HOST":        true,
	"POPSYNTH_SERVER_PORT":        true,
	"POPSYNTH_TILES_PATH":         true,
	"POPSYNTH_ADDRESSES_PATH":     true,
	"POPSYNTH_OUTPUT_DIR":         true,
	"POPSYNTH_POLL_INTERVAL":      true,
	"POPSYNTH_WORKER_CONCURRENCY": true,
}

var validate = validator.New()

func getEnv(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultVal)))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// Load reads configuration from environment variables and an optional
// .env file. envFilePath may be empty, in which case only the process
// environment is consulted.
func Load(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := rejectUnknownKeys(envFilePath); err != nil {
				return nil, err
			}
			if err := godotenv.Load(envFilePath); err != nil {
				return nil, fmt.Errorf("load env file %s: %w", envFilePath, err)
			}
		}
	}

	seedStr, ok := os.LookupEnv("POPSYNTH_SEED")
	if !ok || seedStr == "" {
		return nil, fmt.Errorf("POPSYNTH_SEED is required: every run must be pinned to an explicit seed")
	}
	seed, err := strconv.ParseInt(seedStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("POPSYNTH_SEED %q is not an integer: %w", seedStr, err)
	}

	batchSize, err := getEnvInt("POPSYNTH_BATCH_SIZE", 2000)
	if err != nil {
		return nil, err
	}
	workers, err := getEnvInt("POPSYNTH_WORKERS", runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	serverPort, err := getEnvInt("POPSYNTH_SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	concurrency, err := getEnvInt("POPSYNTH_WORKER_CONCURRENCY", 1)
	if err != nil {
		return nil, err
	}

	pollInterval, err := time.ParseDuration(getEnv("POPSYNTH_POLL_INTERVAL", "2s"))
	if err != nil {
		return nil, fmt.Errorf("POPSYNTH_POLL_INTERVAL: %w", err)
	}

	territory := getEnv("POPSYNTH_TERRITORY", "")
	if _, err := geo.Lookup(territory); err != nil {
		return nil, fmt.Errorf("POPSYNTH_TERRITORY: %w", err)
	}

	cfg := &Config{
		Territory:     territory,
		Seed:          seed,
		BatchSize:     batchSize,
		OutputFormat:  strings.ToLower(getEnv("POPSYNTH_OUTPUT_FORMAT", "csv")),
		Workers:       workers,
		LedgerPath:    getEnv("POPSYNTH_LEDGER_PATH", "data/popsynth.db"),
		LogLevel:      strings.ToUpper(getEnv("POPSYNTH_LOG_LEVEL", "INFO")),
		ServerHost:    getEnv("POPSYNTH_SERVER_HOST", "0.0.0.0"),
		ServerPort:    serverPort,
		TilesPath:     getEnv("POPSYNTH_TILES_PATH", "data/tiles.csv"),
		AddressesPath: getEnv("POPSYNTH_ADDRESSES_PATH", "data/addresses.csv"),
		OutputDir:     getEnv("POPSYNTH_OUTPUT_DIR", "data/out"),
		PollInterval:  pollInterval,
		Concurrency:   concurrency,
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// rejectUnknownKeys scans an .env file for keys this module doesn't
// recognise, without relying on godotenv to load it first (godotenv.Load
// doesn't itself distinguish "loaded fine" from "set a key we ignore").
func rejectUnknownKeys(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open env file %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, _, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if !knownKeys[key] {
			return fmt.Errorf("unknown configuration key %q in %s", key, path)
		}
	}
	return sc.Err()
}
