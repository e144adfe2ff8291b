package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	liststr "joingate/pkg/platform/strings"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Server       Server
	Bot          Bot
	Verification Verification
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Log          Log
}

// Server captures console HTTP server configuration.
type Server struct {
	Addr string
	// AdminTokenHash is the bcrypt hash of the console X-Admin-Token.
	AdminTokenHash  string
	ShutdownTimeout time.Duration
}

// Bot describes the websocket connection to the chat platform gateway.
type Bot struct {
	URL         string
	AccessToken string
	// Platform selects the action dialect: onebot, red or milky.
	Platform string
}

// Verification holds system-wide defaults applied to groups seen for the
// first time, plus core tuning knobs.
type Verification struct {
	SuperAdmins          []int64
	MaxRetryCount        int
	AttemptAmnesty       time.Duration
	DefaultMode          string
	DefaultCaptchaLength int
	DefaultTimeout       time.Duration
	SkipIfMember         bool
	EnableImageCaptcha   bool
	PolicyCacheTTL       time.Duration
	CaptchaSweepInterval time.Duration
	WaitingMsg           string
	ApproveMsg           string
	RejectMsg            string
	TimeoutMsg           string
}

// DatabaseConfig selects the persistent store. An empty URL keeps everything
// in memory.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig enables the Redis-backed captcha code store when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables mirroring audit records to a topic when Brokers is set.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Log configures the slog handler.
type Log struct {
	Level  string
	Format string
}

// Defaults used when the environment leaves a value unset.
const (
	DefaultMode          = "text-captcha"
	DefaultCaptchaLength = 4
	DefaultTimeout       = 300 * time.Second
	DefaultMaxRetryCount = 3
	DefaultPolicyTTL     = 60 * time.Second
	DefaultSweepInterval = 60 * time.Second
	DefaultAmnesty       = time.Hour

	DefaultWaitingMsg = "Please send the verification code {captcha} within {timeout} seconds."
	DefaultApproveMsg = "Verification passed, welcome to the group!"
	DefaultRejectMsg  = "Verification failed, join request rejected."
	DefaultTimeoutMsg = "Verification timed out, join request rejected."
)

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            getEnv("JOINGATE_ADDR", ":8080"),
			AdminTokenHash:  os.Getenv("JOINGATE_ADMIN_TOKEN_HASH"),
			ShutdownTimeout: getDuration("JOINGATE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Bot: Bot{
			URL:         getEnv("BOT_WS_URL", "ws://127.0.0.1:3001"),
			AccessToken: os.Getenv("BOT_ACCESS_TOKEN"),
			Platform:    getEnv("BOT_PLATFORM", "onebot"),
		},
		Verification: Verification{
			SuperAdmins:          getInt64List("VERIFY_SUPER_ADMINS"),
			MaxRetryCount:        getInt("VERIFY_MAX_RETRY_COUNT", DefaultMaxRetryCount),
			AttemptAmnesty:       getDuration("VERIFY_ATTEMPT_AMNESTY", DefaultAmnesty),
			DefaultMode:          getEnv("VERIFY_DEFAULT_MODE", DefaultMode),
			DefaultCaptchaLength: getInt("VERIFY_DEFAULT_CAPTCHA_LENGTH", DefaultCaptchaLength),
			DefaultTimeout:       getDuration("VERIFY_DEFAULT_TIMEOUT", DefaultTimeout),
			SkipIfMember:         getBool("VERIFY_SKIP_IF_MEMBER", true),
			EnableImageCaptcha:   getBool("VERIFY_ENABLE_IMAGE_CAPTCHA", true),
			PolicyCacheTTL:       getDuration("VERIFY_POLICY_CACHE_TTL", DefaultPolicyTTL),
			CaptchaSweepInterval: getDuration("VERIFY_CAPTCHA_SWEEP_INTERVAL", DefaultSweepInterval),
			WaitingMsg:           getEnv("VERIFY_WAITING_MSG", DefaultWaitingMsg),
			ApproveMsg:           getEnv("VERIFY_APPROVE_MSG", DefaultApproveMsg),
			RejectMsg:            getEnv("VERIFY_REJECT_MSG", DefaultRejectMsg),
			TimeoutMsg:           getEnv("VERIFY_TIMEOUT_MSG", DefaultTimeoutMsg),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: liststr.SplitList(os.Getenv("KAFKA_BROKERS"), ","),
			Topic:   getEnv("KAFKA_AUDIT_TOPIC", "joingate.audit"),
		},
		Log: Log{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go duration strings ("90s") or bare seconds ("90").
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// getInt64List parses a comma separated list of IDs, skipping malformed ones.
func getInt64List(key string) []int64 {
	var out []int64
	for _, item := range liststr.SplitList(os.Getenv(key), ",") {
		v, err := strconv.ParseInt(item, 10, 64)
		if err != nil || v <= 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}
