package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Gateway    GatewayConfig
	OIDC       OIDCConfig
	RateLimit  RateLimitConfig
	Store      StoreConfig
	R2         R2Config
	HeyGen     HeyGenConfig
	Pexels     PexelsConfig
	Wavespeed  WavespeedConfig
	Google     GoogleConfig
	OpenAI     OpenAIConfig
	Render     RenderConfig
	Poll       PollConfig
	Storyboard StoryboardConfig
	Scheduler  SchedulerConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type GatewayConfig struct {
	Enabled bool
}

// OIDCConfig enables verification of tokens issued by an external provider
type OIDCConfig struct {
	Issuer   string
	Audience string
}

type RateLimitConfig struct {
	ProductionPerMin int
	StitchPerHour    int
	InitPerHour      int
}

// StoreConfig selects the persistence driver: sqlite or redis
type StoreConfig struct {
	Driver     string
	SQLitePath string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type HeyGenConfig struct {
	APIKey          string
	BaseURL         string
	DefaultAvatarID string
	RequestsPerSec  float64
}

type PexelsConfig struct {
	APIKey         string
	BaseURL        string
	RequestsPerSec float64
}

type WavespeedConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	RequestsPerSec float64
}

// GoogleConfig covers Gemini prompt expansion and Veo graphics generation
type GoogleConfig struct {
	APIKey       string
	GeminiModel  string
	VeoModel     string
	ExpandPrompt bool
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type RenderConfig struct {
	LocalURL                  string
	Timeout                   int // seconds
	CloudURL                  string
	CloudAPIKey               string
	FPS                       int
	TransitionFrames          int
	DefaultLightLeakURL       string
	MirrorToStorage           bool
	ConformStockToSceneLength bool
	KenBurns                  bool
}

// PollConfig holds the interval and maximum wait per provider
type PollConfig struct {
	HeyGenInterval    time.Duration
	HeyGenMaxWait     time.Duration
	WavespeedInterval time.Duration
	WavespeedMaxWait  time.Duration
	VeoInterval       time.Duration
	VeoMaxWait        time.Duration
}

type StoryboardConfig struct {
	WordsPerSecond float64
	ARollMax       float64
	BRollMin       float64
	BRollMax       float64
	ImageMin       float64
	ImageMax       float64
	GraphicsMin    float64
	GraphicsMax    float64
}

type SchedulerConfig struct {
	Enabled    bool
	SweepSpec  string
	StaleAfter time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("HEYGEN_API_KEY")
	readSecret("PEXELS_API_KEY")
	readSecret("WAVESPEED_API_KEY")
	readSecret("GOOGLE_API_KEY")
	readSecret("OPENAI_API_KEY")
	readSecret("CLOUD_RENDER_API_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	bindings := map[string]string{
		"server.port":                   "SERVER_PORT",
		"server.env":                    "SERVER_ENV",
		"server.log_level":              "LOG_LEVEL",
		"server.api_domain":             "API_DOMAIN",
		"redis.addr":                    "REDIS_ADDR",
		"redis.password":                "REDIS_PASSWORD",
		"redis.db":                      "REDIS_DB",
		"jwt.secret":                    "JWT_SECRET",
		"jwt.expiration":                "JWT_EXPIRATION",
		"gateway.enabled":               "GATEWAY_ENABLED",
		"oidc.issuer":                   "OIDC_ISSUER",
		"oidc.audience":                 "OIDC_AUDIENCE",
		"store.driver":                  "STORE_DRIVER",
		"store.sqlite_path":             "SQLITE_PATH",
		"r2.account_id":                 "R2_ACCOUNT_ID",
		"r2.access_key_id":              "R2_ACCESS_KEY_ID",
		"r2.secret_access_key":          "R2_SECRET_ACCESS_KEY",
		"r2.bucket_name":                "R2_BUCKET_NAME",
		"r2.public_url":                 "R2_PUBLIC_URL",
		"heygen.api_key":                "HEYGEN_API_KEY",
		"heygen.base_url":               "HEYGEN_BASE_URL",
		"heygen.default_avatar_id":      "HEYGEN_DEFAULT_AVATAR_ID",
		"pexels.api_key":                "PEXELS_API_KEY",
		"pexels.base_url":               "PEXELS_BASE_URL",
		"wavespeed.api_key":             "WAVESPEED_API_KEY",
		"wavespeed.base_url":            "WAVESPEED_BASE_URL",
		"wavespeed.model":               "WAVESPEED_MODEL",
		"google.api_key":                "GOOGLE_API_KEY",
		"google.gemini_model":           "GEMINI_MODEL",
		"google.veo_model":              "VEO_MODEL",
		"google.expand_prompt":          "GEMINI_EXPAND_PROMPT",
		"openai.api_key":                "OPENAI_API_KEY",
		"openai.base_url":               "OPENAI_BASE_URL",
		"openai.model":                  "OPENAI_MODEL",
		"render.local_url":              "FFMPEG_SERVER_URL",
		"render.timeout":                "FFMPEG_SERVER_TIMEOUT",
		"render.cloud_url":              "CLOUD_RENDER_URL",
		"render.cloud_api_key":          "CLOUD_RENDER_API_KEY",
		"render.default_light_leak_url": "DEFAULT_LIGHT_LEAK_URL",
		"render.mirror_to_storage":      "RENDER_MIRROR_TO_STORAGE",
		"render.conform_stock":          "RENDER_CONFORM_STOCK",
		"render.ken_burns":              "RENDER_KEN_BURNS",
		"scheduler.enabled":             "SCHEDULER_ENABLED",
		"scheduler.sweep_spec":          "SCHEDULER_SWEEP_SPEC",
	}
	for key, env := range bindings {
		_ = viper.BindEnv(key, env)
	}

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("gateway.enabled", false)
	viper.SetDefault("ratelimit.production_per_min", 30)
	viper.SetDefault("ratelimit.stitch_per_hour", 10)
	viper.SetDefault("ratelimit.init_per_hour", 30)

	viper.SetDefault("store.driver", "sqlite")
	viper.SetDefault("store.sqlite_path", "data/studio.db")

	// Vendor defaults
	viper.SetDefault("heygen.base_url", "https://api.heygen.com")
	viper.SetDefault("heygen.requests_per_sec", 2)
	viper.SetDefault("pexels.base_url", "https://api.pexels.com")
	viper.SetDefault("pexels.requests_per_sec", 3)
	viper.SetDefault("wavespeed.base_url", "https://api.wavespeed.ai")
	viper.SetDefault("wavespeed.model", "google/nano-banana/text-to-image")
	viper.SetDefault("wavespeed.requests_per_sec", 2)
	viper.SetDefault("google.gemini_model", "gemini-2.5-flash")
	viper.SetDefault("google.veo_model", "veo-3.0-generate-001")
	viper.SetDefault("google.expand_prompt", false)
	viper.SetDefault("openai.model", "gpt-4o-mini")

	// Render backends
	viper.SetDefault("render.local_url", "http://localhost:3333")
	viper.SetDefault("render.timeout", 600)
	viper.SetDefault("render.fps", 30)
	viper.SetDefault("render.transition_frames", 24)
	viper.SetDefault("render.mirror_to_storage", false)
	viper.SetDefault("render.conform_stock", false)
	viper.SetDefault("render.ken_burns", false)

	// Polling
	viper.SetDefault("poll.heygen_interval", "10s")
	viper.SetDefault("poll.heygen_max_wait", "10m")
	viper.SetDefault("poll.wavespeed_interval", "5s")
	viper.SetDefault("poll.wavespeed_max_wait", "200s")
	viper.SetDefault("poll.veo_interval", "10s")
	viper.SetDefault("poll.veo_max_wait", "10m")

	// Storyboard
	viper.SetDefault("storyboard.words_per_second", 2.1)
	viper.SetDefault("storyboard.a_roll_max", 4)
	viper.SetDefault("storyboard.b_roll_min", 3)
	viper.SetDefault("storyboard.b_roll_max", 8)
	viper.SetDefault("storyboard.image_min", 3)
	viper.SetDefault("storyboard.image_max", 10)
	viper.SetDefault("storyboard.graphics_min", 3)
	viper.SetDefault("storyboard.graphics_max", 15)

	viper.SetDefault("scheduler.enabled", true)
	viper.SetDefault("scheduler.sweep_spec", "@every 1m")
	viper.SetDefault("scheduler.stale_after", "30m")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		Gateway: GatewayConfig{
			Enabled: viper.GetBool("gateway.enabled"),
		},
		OIDC: OIDCConfig{
			Issuer:   strings.TrimRight(viper.GetString("oidc.issuer"), "/"),
			Audience: viper.GetString("oidc.audience"),
		},
		RateLimit: RateLimitConfig{
			ProductionPerMin: viper.GetInt("ratelimit.production_per_min"),
			StitchPerHour:    viper.GetInt("ratelimit.stitch_per_hour"),
			InitPerHour:      viper.GetInt("ratelimit.init_per_hour"),
		},
		Store: StoreConfig{
			Driver:     viper.GetString("store.driver"),
			SQLitePath: viper.GetString("store.sqlite_path"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		HeyGen: HeyGenConfig{
			APIKey:          viper.GetString("heygen.api_key"),
			BaseURL:         viper.GetString("heygen.base_url"),
			DefaultAvatarID: viper.GetString("heygen.default_avatar_id"),
			RequestsPerSec:  viper.GetFloat64("heygen.requests_per_sec"),
		},
		Pexels: PexelsConfig{
			APIKey:         viper.GetString("pexels.api_key"),
			BaseURL:        viper.GetString("pexels.base_url"),
			RequestsPerSec: viper.GetFloat64("pexels.requests_per_sec"),
		},
		Wavespeed: WavespeedConfig{
			APIKey:         viper.GetString("wavespeed.api_key"),
			BaseURL:        viper.GetString("wavespeed.base_url"),
			Model:          viper.GetString("wavespeed.model"),
			RequestsPerSec: viper.GetFloat64("wavespeed.requests_per_sec"),
		},
		Google: GoogleConfig{
			APIKey:       viper.GetString("google.api_key"),
			GeminiModel:  viper.GetString("google.gemini_model"),
			VeoModel:     viper.GetString("google.veo_model"),
			ExpandPrompt: viper.GetBool("google.expand_prompt"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  viper.GetString("openai.api_key"),
			BaseURL: viper.GetString("openai.base_url"),
			Model:   viper.GetString("openai.model"),
		},
		Render: RenderConfig{
			LocalURL:                  viper.GetString("render.local_url"),
			Timeout:                   viper.GetInt("render.timeout"),
			CloudURL:                  viper.GetString("render.cloud_url"),
			CloudAPIKey:               viper.GetString("render.cloud_api_key"),
			FPS:                       viper.GetInt("render.fps"),
			TransitionFrames:          viper.GetInt("render.transition_frames"),
			DefaultLightLeakURL:       viper.GetString("render.default_light_leak_url"),
			MirrorToStorage:           viper.GetBool("render.mirror_to_storage"),
			ConformStockToSceneLength: viper.GetBool("render.conform_stock"),
			KenBurns:                  viper.GetBool("render.ken_burns"),
		},
		Poll: PollConfig{
			HeyGenInterval:    viper.GetDuration("poll.heygen_interval"),
			HeyGenMaxWait:     viper.GetDuration("poll.heygen_max_wait"),
			WavespeedInterval: viper.GetDuration("poll.wavespeed_interval"),
			WavespeedMaxWait:  viper.GetDuration("poll.wavespeed_max_wait"),
			VeoInterval:       viper.GetDuration("poll.veo_interval"),
			VeoMaxWait:        viper.GetDuration("poll.veo_max_wait"),
		},
		Storyboard: StoryboardConfig{
			WordsPerSecond: viper.GetFloat64("storyboard.words_per_second"),
			ARollMax:       viper.GetFloat64("storyboard.a_roll_max"),
			BRollMin:       viper.GetFloat64("storyboard.b_roll_min"),
			BRollMax:       viper.GetFloat64("storyboard.b_roll_max"),
			ImageMin:       viper.GetFloat64("storyboard.image_min"),
			ImageMax:       viper.GetFloat64("storyboard.image_max"),
			GraphicsMin:    viper.GetFloat64("storyboard.graphics_min"),
			GraphicsMax:    viper.GetFloat64("storyboard.graphics_max"),
		},
		Scheduler: SchedulerConfig{
			Enabled:    viper.GetBool("scheduler.enabled"),
			SweepSpec:  viper.GetString("scheduler.sweep_spec"),
			StaleAfter: viper.GetDuration("scheduler.stale_after"),
		},
	}

	return cfg, nil
}
