package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/thatssomoneybaby/nba-site/internal/platform/logging"
	"go.uber.org/zap/zapcore"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	LogLevel       zapcore.Level

	// DBURL empty means draft state is kept in memory only.
	DBURL string

	DatasetPath        string
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	SyncWorkers        int

	YahooClientID            string
	YahooClientSecret        string
	YahooRedirectURI         string
	YahooBaseURL             string
	YahooTimeout             time.Duration
	YahooMaxRetries          int
	YahooCacheTTL            time.Duration
	YahooCircuitEnabled      bool
	YahooCircuitFailureCount int
	YahooCircuitOpenTimeout  time.Duration
	YahooCircuitHalfOpenMax  int

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	PprofEnabled bool
	PprofAddr    string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	syncWorkers, err := getEnvAsInt("SYNC_WORKERS", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_WORKERS: %w", err)
	}
	if syncWorkers < 1 {
		return Config{}, fmt.Errorf("SYNC_WORKERS must be >= 1")
	}

	yahooTimeout, err := time.ParseDuration(getEnv("YAHOO_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse YAHOO_TIMEOUT: %w", err)
	}
	if yahooTimeout <= 0 {
		return Config{}, fmt.Errorf("YAHOO_TIMEOUT must be > 0")
	}
	yahooMaxRetries, err := getEnvAsInt("YAHOO_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse YAHOO_MAX_RETRIES: %w", err)
	}
	if yahooMaxRetries < 0 {
		return Config{}, fmt.Errorf("YAHOO_MAX_RETRIES must be >= 0")
	}
	yahooCacheTTL, err := time.ParseDuration(getEnv("YAHOO_CACHE_TTL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse YAHOO_CACHE_TTL: %w", err)
	}
	if yahooCacheTTL <= 0 {
		return Config{}, fmt.Errorf("YAHOO_CACHE_TTL must be > 0")
	}
	yahooCircuitEnabled, err := strconv.ParseBool(getEnv("YAHOO_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse YAHOO_CIRCUIT_ENABLED: %w", err)
	}
	yahooCircuitFailureCount, err := getEnvAsInt("YAHOO_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse YAHOO_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if yahooCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("YAHOO_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	yahooCircuitOpenTimeout, err := time.ParseDuration(getEnv("YAHOO_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse YAHOO_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if yahooCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("YAHOO_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	yahooCircuitHalfOpenMax, err := getEnvAsInt("YAHOO_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse YAHOO_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if yahooCircuitHalfOpenMax < 1 {
		return Config{}, fmt.Errorf("YAHOO_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	yahooClientID := strings.TrimSpace(getEnv("YAHOO_CLIENT_ID", ""))
	yahooClientSecret := strings.TrimSpace(getEnv("YAHOO_CLIENT_SECRET", ""))
	yahooRedirectURI := strings.TrimSpace(getEnv("YAHOO_REDIRECT_URI", ""))
	if yahooClientID != "" {
		if yahooClientSecret == "" {
			return Config{}, fmt.Errorf("YAHOO_CLIENT_SECRET is required when YAHOO_CLIENT_ID is set")
		}
		if yahooRedirectURI == "" {
			return Config{}, fmt.Errorf("YAHOO_REDIRECT_URI is required when YAHOO_CLIENT_ID is set")
		}
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "nba-site-api"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		LogLevel:                   logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		DBURL:                      strings.TrimSpace(getEnv("DB_URL", "")),
		DatasetPath:                strings.TrimSpace(getEnv("DATASET_PATH", "")),
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:                readTimeout,
		WriteTimeout:               writeTimeout,
		SyncWorkers:                syncWorkers,
		YahooClientID:              yahooClientID,
		YahooClientSecret:          yahooClientSecret,
		YahooRedirectURI:           yahooRedirectURI,
		YahooBaseURL:               strings.TrimSpace(getEnv("YAHOO_BASE_URL", "")),
		YahooTimeout:               yahooTimeout,
		YahooMaxRetries:            yahooMaxRetries,
		YahooCacheTTL:              yahooCacheTTL,
		YahooCircuitEnabled:        yahooCircuitEnabled,
		YahooCircuitFailureCount:   yahooCircuitFailureCount,
		YahooCircuitOpenTimeout:    yahooCircuitOpenTimeout,
		YahooCircuitHalfOpenMax:    yahooCircuitHalfOpenMax,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

// YahooEnabled reports whether OAuth credentials are configured; without
// them the board still serves the bundled dataset.
func (c Config) YahooEnabled() bool {
	return c.YahooClientID != ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
