package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB       int    `mapstructure:"REDIS_CACHE_DB"`
	RedisLockDB        int    `mapstructure:"REDIS_LOCK_DB"`
	RedisNotifyQueueDB int    `mapstructure:"REDIS_NOTIFY_QUEUE_DB"`

	// Gemini oracle.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Firebase service account used for staff push notifications.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	// "redis" or "memory".
	LockBackend string `mapstructure:"LOCK_BACKEND"`

	Tuning `mapstructure:",squash"`
}

// Tuning holds the routing thresholds and windows. None of the defaults are derived from data;
// they are starting points meant to be tuned per deployment.
type Tuning struct {
	KBSimilarityThreshold float64 `mapstructure:"KB_SIMILARITY_THRESHOLD"`
	AmbiguityConfidence   float64 `mapstructure:"AMBIGUITY_CONFIDENCE"`
	RegexThreshold        float64 `mapstructure:"REGEX_THRESHOLD"`
	OracleThreshold       float64 `mapstructure:"ORACLE_THRESHOLD"`
	ClassifierMode        string  `mapstructure:"CLASSIFIER_MODE"`

	FoodOrderThreshold   float64 `mapstructure:"FOOD_ORDER_THRESHOLD"`
	ItemRequestThreshold float64 `mapstructure:"ITEM_REQUEST_THRESHOLD"`
	MaintenanceThreshold float64 `mapstructure:"MAINTENANCE_THRESHOLD"`
	ComplaintThreshold   float64 `mapstructure:"COMPLAINT_THRESHOLD"`

	DedupWindow      time.Duration `mapstructure:"DEDUP_WINDOW"`
	MaxQuestions     int           `mapstructure:"MAX_QUESTIONS"`
	HistoryWindow    int           `mapstructure:"HISTORY_WINDOW"`
	OracleTimeout    time.Duration `mapstructure:"ORACLE_TIMEOUT"`
	LockTTL          time.Duration `mapstructure:"LOCK_TTL"`
	StaleDialogAfter time.Duration `mapstructure:"STALE_DIALOG_AFTER"`
}

var AppConfig Config

// DefaultTuning returns the thresholds used when nothing overrides them.
func DefaultTuning() Tuning {
	return Tuning{
		KBSimilarityThreshold: 0.5,
		AmbiguityConfidence:   0.6,
		RegexThreshold:        0.8,
		OracleThreshold:       0.7,
		ClassifierMode:        "hybrid",
		FoodOrderThreshold:    0.6,
		ItemRequestThreshold:  0.6,
		MaintenanceThreshold:  0.75,
		ComplaintThreshold:    0.8,
		DedupWindow:           5 * time.Minute,
		MaxQuestions:          3,
		HistoryWindow:         10,
		OracleTimeout:         12 * time.Second,
		LockTTL:               45 * time.Second,
		StaleDialogAfter:      2 * time.Hour,
	}
}

func LoadConfig() {
	// A local .env is optional; real environments inject variables directly.
	_ = godotenv.Load()

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_LOCK_DB", 1)
	viper.SetDefault("REDIS_NOTIFY_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "concierge")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-pro")
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("LOCK_BACKEND", "redis")

	d := DefaultTuning()
	viper.SetDefault("KB_SIMILARITY_THRESHOLD", d.KBSimilarityThreshold)
	viper.SetDefault("AMBIGUITY_CONFIDENCE", d.AmbiguityConfidence)
	viper.SetDefault("REGEX_THRESHOLD", d.RegexThreshold)
	viper.SetDefault("ORACLE_THRESHOLD", d.OracleThreshold)
	viper.SetDefault("CLASSIFIER_MODE", d.ClassifierMode)
	viper.SetDefault("FOOD_ORDER_THRESHOLD", d.FoodOrderThreshold)
	viper.SetDefault("ITEM_REQUEST_THRESHOLD", d.ItemRequestThreshold)
	viper.SetDefault("MAINTENANCE_THRESHOLD", d.MaintenanceThreshold)
	viper.SetDefault("COMPLAINT_THRESHOLD", d.ComplaintThreshold)
	viper.SetDefault("DEDUP_WINDOW", d.DedupWindow)
	viper.SetDefault("MAX_QUESTIONS", d.MaxQuestions)
	viper.SetDefault("HISTORY_WINDOW", d.HistoryWindow)
	viper.SetDefault("ORACLE_TIMEOUT", d.OracleTimeout)
	viper.SetDefault("LOCK_TTL", d.LockTTL)
	viper.SetDefault("STALE_DIALOG_AFTER", d.StaleDialogAfter)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
