// Package config loads application settings from config/app.json and .env.
//
// Values are resolved in order of precedence: .env > app.json > built-in
// defaults. The result is a plain Config struct that callers pass into each
// component at construction; nothing in this package is read after Load
// returns.
package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppPort     = "5000"
	defaultAppEnv      = "local"
	defaultMongoURI    = "mongodb://localhost:27017"
	defaultMongoDB     = "coffeeShopDB"
	defaultJWTSecret   = "change-me-in-production"
	defaultTokenTTL    = time.Hour
	defaultRedisAddr   = "localhost:6379"
	defaultCatalogTTL  = 30 * time.Second
	defaultRateLimit   = 120
	defaultRateWindow  = time.Minute
	defaultStorageDisk = "local"
	defaultLocalRoot   = "storage"
)

// Config carries every setting the application needs.
type Config struct {
	AppPort string
	AppEnv  string

	MongoURI string
	MongoDB  string

	JWTSecret string
	TokenTTL  time.Duration

	StripeSecretKey string

	RedisAddr       string
	RedisPassword   string
	CatalogCacheTTL time.Duration

	RateLimit  int
	RateWindow time.Duration

	CORSOrigins []string

	StorageDisk      string
	StorageLocalRoot string
	StorageURL       string
	S3Bucket         string
	S3Region         string
	S3Key            string
	S3Secret         string
	S3Endpoint       string
	S3URL            string
}

// Production reports whether the app runs with production logging/handlers.
func (c Config) Production() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

// Load reads config/app.json and .env relative to the working directory.
// Missing files are not an error; malformed ones are.
func Load() (Config, error) {
	return LoadFrom("config/app.json", ".env")
}

// LoadFrom is Load with explicit file paths, used by tests.
func LoadFrom(jsonPath, envPath string) (Config, error) {
	values := map[string]string{}

	if err := mergeJSONConfig(jsonPath, values); err != nil {
		if !os.IsNotExist(err) {
			return Config{}, err
		}
	}
	if err := mergeDotEnv(envPath, values); err != nil {
		if !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	get := func(key, fallback string) string {
		if v := strings.TrimSpace(values[key]); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		AppPort:          get("APP_PORT", defaultAppPort),
		AppEnv:           get("APP_ENV", defaultAppEnv),
		MongoURI:         get("MONGO_URI", defaultMongoURI),
		MongoDB:          get("MONGO_DB", defaultMongoDB),
		JWTSecret:        get("JWT_SECRET", defaultJWTSecret),
		TokenTTL:         getDuration(get, "TOKEN_TTL", defaultTokenTTL),
		StripeSecretKey:  get("STRIPE_SECRET_KEY", ""),
		RedisAddr:        get("REDIS_ADDR", defaultRedisAddr),
		RedisPassword:    get("REDIS_PASSWORD", ""),
		CatalogCacheTTL:  getDuration(get, "CATALOG_CACHE_TTL", defaultCatalogTTL),
		RateLimit:        getInt(get, "RATE_LIMIT", defaultRateLimit),
		RateWindow:       getDuration(get, "RATE_WINDOW", defaultRateWindow),
		StorageDisk:      get("STORAGE_DISK", defaultStorageDisk),
		StorageLocalRoot: get("STORAGE_LOCAL_ROOT", defaultLocalRoot),
		StorageURL:       get("STORAGE_URL", "http://localhost:5000/storage"),
		S3Bucket:         get("S3_BUCKET", ""),
		S3Region:         get("S3_REGION", "us-east-1"),
		S3Key:            get("S3_KEY", ""),
		S3Secret:         get("S3_SECRET", ""),
		S3Endpoint:       get("S3_ENDPOINT", ""),
		S3URL:            get("S3_URL", ""),
	}

	for _, o := range strings.Split(get("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg, nil
}

func getDuration(get func(string, string) string, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(get(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getInt(get func(string, string) string, key string, fallback int) int {
	n, err := strconv.Atoi(get(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		s, ok := val.(string)
		if !ok {
			continue
		}
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}
	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
