package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	settingsFile     = "config/setting.ini"
	defaultEnv       = "dev"
	envConfigPattern = "config/%s/fuelbot.ini"
)

// Storage driver names accepted in bot config.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Settings contains global toggles such as the active environment.
type Settings struct {
	Environment string
	Defaults    map[string]string
}

// BotConfig describes runtime options for the fuel bot daemon.
type BotConfig struct {
	Environment string

	// Telegram
	BotToken      string
	PollTimeout   int // long-poll timeout, seconds
	HandleTimeout time.Duration
	TelegramDebug bool

	// Storage
	StorageDriver string // sqlite|postgres
	SQLitePath    string
	DatabaseURL   string
	// Postgres pool bounds
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	// Liveness HTTP server
	HTTPAddress string

	// Messages
	CatalogPath string

	// Logging
	LogFile  string
	LogLevel string

	// Telemetry
	StatePath string
}

// Load reads the current environment and the matching fuelbot config file,
// applying FUELTRACK_* env-var overrides on top.
func Load(root string) (BotConfig, error) {
	if root == "" {
		root = "."
	}
	s, err := loadSettings(root)
	if err != nil {
		return BotConfig{}, err
	}

	envValues, err := parseINI(filepath.Join(root, fmt.Sprintf(envConfigPattern, s.Environment)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			envValues = map[string]string{}
		} else {
			return BotConfig{}, err
		}
	}

	merged := make(map[string]string)
	for k, v := range s.Defaults {
		merged[k] = v
	}
	for k, v := range envValues {
		merged[k] = v
	}

	cfg := BotConfig{
		Environment:   s.Environment,
		BotToken:      firstNonEmpty(os.Getenv("FUELTRACK_BOT_TOKEN"), os.Getenv("BOT_TOKEN"), merged["bot_token"]),
		PollTimeout:   parseOptionalInt(firstNonEmpty(os.Getenv("FUELTRACK_POLL_TIMEOUT"), merged["poll_timeout"]), 30),
		TelegramDebug: parseBool(firstNonEmpty(os.Getenv("FUELTRACK_TELEGRAM_DEBUG"), merged["telegram_debug"])),
		StorageDriver: strings.ToLower(firstNonEmpty(os.Getenv("FUELTRACK_STORAGE_DRIVER"), merged["storage_driver"])),
		SQLitePath:    firstNonEmpty(os.Getenv("FUELTRACK_SQLITE_PATH"), merged["sqlite_path"], DefaultSQLitePath()),
		DatabaseURL:   firstNonEmpty(os.Getenv("FUELTRACK_DATABASE_URL"), os.Getenv("DATABASE_URL"), merged["database_url"]),
		HTTPAddress:   firstNonEmpty(os.Getenv("FUELTRACK_HTTP_ADDRESS"), merged["http_address"], ":8080"),
		CatalogPath:   firstNonEmpty(os.Getenv("FUELTRACK_CATALOG_PATH"), merged["catalog_path"]),
		LogFile:       firstNonEmpty(os.Getenv("FUELTRACK_LOG_FILE"), merged["log_file"]),
		LogLevel:      firstNonEmpty(merged["log_level"], "info"),
		StatePath:     firstNonEmpty(os.Getenv("FUELTRACK_STATE_PATH"), merged["state_path"]),
	}

	if v := firstNonEmpty(os.Getenv("FUELTRACK_HANDLE_TIMEOUT"), merged["handle_timeout"]); v != "" {
		dur, err := time.ParseDuration(v)
		if err != nil {
			return BotConfig{}, fmt.Errorf("invalid handle_timeout %q: %w", v, err)
		}
		cfg.HandleTimeout = dur
	} else {
		cfg.HandleTimeout = 15 * time.Second
	}

	cfg.DBMaxOpenConns = parseOptionalInt(merged["db_max_open_conns"], 10)
	cfg.DBMaxIdleConns = parseOptionalInt(merged["db_max_idle_conns"], 5)
	cfg.DBConnMaxLifetime = parseOptionalDuration(merged["db_conn_max_lifetime"], 60*time.Minute)
	cfg.DBConnMaxIdleTime = parseOptionalDuration(merged["db_conn_max_idle_time"], 10*time.Minute)

	// Driver default: postgres when a DSN is present, sqlite otherwise.
	switch cfg.StorageDriver {
	case DriverSQLite, DriverPostgres:
	case "":
		if cfg.DatabaseURL != "" {
			cfg.StorageDriver = DriverPostgres
		} else {
			cfg.StorageDriver = DriverSQLite
		}
	default:
		return BotConfig{}, fmt.Errorf("unknown storage_driver %q", cfg.StorageDriver)
	}
	if cfg.StorageDriver == DriverPostgres && cfg.DatabaseURL == "" {
		return BotConfig{}, errors.New("storage_driver=postgres requires database_url")
	}

	return cfg, nil
}

func loadSettings(root string) (Settings, error) {
	values, err := parseINI(filepath.Join(root, settingsFile))
	if errors.Is(err, os.ErrNotExist) {
		return Settings{Environment: defaultEnv, Defaults: map[string]string{}}, nil
	}
	if err != nil {
		return Settings{}, err
	}
	env := values["environment"]
	if env == "" {
		env = defaultEnv
	}
	defaults := make(map[string]string)
	for k, v := range values {
		if k == "environment" {
			continue
		}
		defaults[k] = v
	}
	return Settings{Environment: env, Defaults: defaults}, nil
}

func parseINI(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		values[strings.ToLower(key)] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseOptionalInt(v string, fallback int) int {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return parsed
	}
	return fallback
}

func parseOptionalDuration(v string, fallback time.Duration) time.Duration {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
		return parsed
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// DefaultSQLitePath returns the fallback refill database location under the
// user's home directory.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "refills.db"
	}
	return filepath.Join(home, ".fueltrack", "refills.db")
}
