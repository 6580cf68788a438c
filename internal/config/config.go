package config

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Config struct {
	Store   StoreConfig
	IGDB    IGDBConfig
	Twitter TwitterConfig
	Hourly  HourlyConfig

	PushgatewayURL string

	// LegacyEnv lists the unprefixed variable names that supplied a value.
	LegacyEnv []string
}

type StoreConfig struct {
	Backend      string
	RedisURL     string
	SQLitePath   string
	SQLiteTuning bool
	BatchSize    int
}

type IGDBConfig struct {
	ClientID          string
	ClientSecret      string
	Token             string
	TokenFile         string
	RequestsPerSecond float64
	StartYear         int
}

type TwitterConfig struct {
	APIKey            string
	APISecret         string
	UserID            string
	AccessToken       string
	AccessTokenSecret string
}

type HourlyConfig struct {
	MaxMedia int
	DryRun   bool
}

// Run names the job a configuration is validated for.
type Run string

const (
	RunDaily  Run = "daily"
	RunHourly Run = "hourly"
)

const (
	defaultBackend    = "redis"
	defaultSQLitePath = "onthisday.db"
	defaultBatchSize  = 50
	defaultRPS        = 4
	defaultStartYear  = 1970
	defaultMaxMedia   = 4
)

func Load() Config {
	cfg := Config{}

	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(os.Getenv("ONTHISDAY_STORE")))
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = defaultBackend
	}
	cfg.Store.RedisURL = cfg.withLegacy("ONTHISDAY_REDIS_URL", "REDIS_URL")
	cfg.Store.SQLitePath = strings.TrimSpace(os.Getenv("ONTHISDAY_SQLITE_PATH"))
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = defaultSQLitePath
	}
	cfg.Store.SQLiteTuning = readBool("ONTHISDAY_SQLITE_TUNING", false)
	cfg.Store.BatchSize = readInt("ONTHISDAY_BATCH_SIZE", defaultBatchSize)

	cfg.IGDB.ClientID = cfg.withLegacy("ONTHISDAY_IGDB_CLIENT_ID", "IGDB_CLIENT_ID")
	cfg.IGDB.ClientSecret = cfg.withLegacy("ONTHISDAY_IGDB_CLIENT_SECRET", "IGDB_CLIENT_SECRET")
	cfg.IGDB.Token = strings.TrimSpace(os.Getenv("ONTHISDAY_IGDB_TOKEN"))
	cfg.IGDB.TokenFile = strings.TrimSpace(os.Getenv("ONTHISDAY_IGDB_TOKEN_FILE"))
	cfg.IGDB.RequestsPerSecond = readFloat("ONTHISDAY_IGDB_RPS", defaultRPS)
	cfg.IGDB.StartYear = readInt("ONTHISDAY_START_YEAR", defaultStartYear)

	cfg.Twitter.APIKey = cfg.withLegacy("ONTHISDAY_TWITTER_API_KEY", "TWITTER_DEV_API_KEY")
	cfg.Twitter.APISecret = cfg.withLegacy("ONTHISDAY_TWITTER_API_SECRET", "TWITTER_DEV_API_SECRET")
	cfg.Twitter.UserID = cfg.withLegacy("ONTHISDAY_TWITTER_USER_ID", "TWITTER_DEV_USER_ID")
	cfg.Twitter.AccessToken = cfg.withLegacy("ONTHISDAY_TWITTER_ACCESS_TOKEN", "TWITTER_USER_ACCESS_TOKEN")
	cfg.Twitter.AccessTokenSecret = cfg.withLegacy("ONTHISDAY_TWITTER_ACCESS_TOKEN_SECRET", "TWITTER_USER_ACCESS_TOKEN_SECRET")

	cfg.Hourly.MaxMedia = readInt("ONTHISDAY_MAX_MEDIA", defaultMaxMedia)
	cfg.Hourly.DryRun = readBool("ONTHISDAY_DRY_RUN", false)

	cfg.PushgatewayURL = strings.TrimSpace(os.Getenv("ONTHISDAY_PUSHGATEWAY_URL"))

	sort.Strings(cfg.LegacyEnv)
	return cfg
}

func (c *Config) withLegacy(name, legacy string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	v := strings.TrimSpace(os.Getenv(legacy))
	if v != "" {
		c.LegacyEnv = append(c.LegacyEnv, legacy)
	}
	return v
}

// Validate reports every setting run needs that is missing.
func (c Config) Validate(run Run) error {
	var missing []string
	need := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	switch c.Store.Backend {
	case "redis":
		need(c.Store.RedisURL, "ONTHISDAY_REDIS_URL")
	case "sqlite":
		need(c.Store.SQLitePath, "ONTHISDAY_SQLITE_PATH")
	default:
		return errors.Errorf("config: unknown store backend %q", c.Store.Backend)
	}

	switch run {
	case RunDaily:
		need(c.IGDB.ClientID, "ONTHISDAY_IGDB_CLIENT_ID")
		if c.IGDB.Token == "" {
			need(c.IGDB.ClientSecret, "ONTHISDAY_IGDB_CLIENT_SECRET")
		}
	case RunHourly:
		if !c.Hourly.DryRun {
			need(c.Twitter.APIKey, "ONTHISDAY_TWITTER_API_KEY")
			need(c.Twitter.APISecret, "ONTHISDAY_TWITTER_API_SECRET")
			need(c.Twitter.AccessToken, "ONTHISDAY_TWITTER_ACCESS_TOKEN")
			need(c.Twitter.AccessTokenSecret, "ONTHISDAY_TWITTER_ACCESS_TOKEN_SECRET")
		}
	default:
		return errors.Errorf("config: unknown run %q", run)
	}

	if len(missing) > 0 {
		return errors.Errorf("config: %s run is missing %s", run, strings.Join(missing, ", "))
	}
	return nil
}

func readInt(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func readFloat(name string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func readBool(name string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

type Summary struct {
	Store          string         `json:"store"`
	SQLitePath     string         `json:"sqlite_path,omitempty"`
	RedisURL       string         `json:"redis_url,omitempty"`
	BatchSize      int            `json:"batch"`
	IGDB           IGDBSummary    `json:"igdb"`
	Twitter        TwitterSummary `json:"twitter"`
	MaxMedia       int            `json:"max_media"`
	DryRun         bool           `json:"dry_run"`
	Pushgateway    bool           `json:"pushgateway"`
	LegacyEnvNames []string       `json:"legacy_env,omitempty"`
}

type IGDBSummary struct {
	ClientID     string  `json:"client_id,omitempty"`
	ClientSecret string  `json:"client_secret,omitempty"`
	StaticToken  bool    `json:"static_token"`
	TokenFile    string  `json:"token_file,omitempty"`
	RPS          float64 `json:"rps"`
	StartYear    int     `json:"start_year"`
}

type TwitterSummary struct {
	APIKey            string `json:"api_key,omitempty"`
	APISecret         string `json:"api_secret,omitempty"`
	UserID            string `json:"user_id,omitempty"`
	AccessToken       string `json:"access_token,omitempty"`
	AccessTokenSecret string `json:"access_token_secret,omitempty"`
}

func (c Config) Summary() Summary {
	s := Summary{
		Store:     c.Store.Backend,
		BatchSize: c.Store.BatchSize,
		IGDB: IGDBSummary{
			ClientID:     redactString(c.IGDB.ClientID),
			ClientSecret: redactString(c.IGDB.ClientSecret),
			StaticToken:  c.IGDB.Token != "",
			TokenFile:    c.IGDB.TokenFile,
			RPS:          c.IGDB.RequestsPerSecond,
			StartYear:    c.IGDB.StartYear,
		},
		Twitter: TwitterSummary{
			APIKey:            redactString(c.Twitter.APIKey),
			APISecret:         redactString(c.Twitter.APISecret),
			UserID:            c.Twitter.UserID,
			AccessToken:       redactString(c.Twitter.AccessToken),
			AccessTokenSecret: redactString(c.Twitter.AccessTokenSecret),
		},
		MaxMedia:       c.Hourly.MaxMedia,
		DryRun:         c.Hourly.DryRun,
		Pushgateway:    c.PushgatewayURL != "",
		LegacyEnvNames: append([]string(nil), c.LegacyEnv...),
	}
	if c.Store.Backend == "sqlite" {
		s.SQLitePath = c.Store.SQLitePath
	} else {
		s.RedisURL = redactString(c.Store.RedisURL)
	}
	return s
}

// Redacted is a loggable view of the configuration with secrets masked.
func (c Config) Redacted() map[string]any {
	return map[string]any{
		"store": map[string]any{
			"backend":     c.Store.Backend,
			"redis_url":   redactString(c.Store.RedisURL),
			"sqlite_path": c.Store.SQLitePath,
			"tuning":      c.Store.SQLiteTuning,
			"batch_size":  c.Store.BatchSize,
		},
		"igdb": map[string]any{
			"client_id":     redactString(c.IGDB.ClientID),
			"client_secret": redactString(c.IGDB.ClientSecret),
			"token":         redactString(c.IGDB.Token),
			"token_file":    c.IGDB.TokenFile,
			"rps":           c.IGDB.RequestsPerSecond,
			"start_year":    c.IGDB.StartYear,
		},
		"twitter": map[string]any{
			"api_key":             redactString(c.Twitter.APIKey),
			"api_secret":          redactString(c.Twitter.APISecret),
			"user_id":             c.Twitter.UserID,
			"access_token":        redactString(c.Twitter.AccessToken),
			"access_token_secret": redactString(c.Twitter.AccessTokenSecret),
		},
		"hourly": map[string]any{
			"max_media": c.Hourly.MaxMedia,
			"dry_run":   c.Hourly.DryRun,
		},
		"pushgateway_url": c.PushgatewayURL,
	}
}

func (c Config) RedactedJSON() []byte {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return data
}

func (c Config) SummaryJSON() []byte {
	summary := struct {
		Config Summary `json:"config_summary"`
	}{Config: c.Summary()}
	data, _ := json.Marshal(summary)
	return data
}

func redactString(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return "***REDACTED*** (len=" + strconv.Itoa(len(value)) + ")"
}
