package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	UserStoreMemory   = "memory"
	UserStorePostgres = "postgres"

	ProviderGemini    = "gemini"
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"

	// PlaceholderAPIKey оставлен в шаблоне .env и означает, что ключ не задан.
	PlaceholderAPIKey = "your_api_key_here"
)

type Config struct {
	Env       string
	UserStore string
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	AI        AIConfig
	CORS      CORSConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	BodyLimit    string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	JWTIssuer          string
	AccessTokenTTL     time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
	Required           bool
	DemoUser           DemoUserConfig
}

// DemoUserConfig описывает пользователя, которым засевается in-memory хранилище.
type DemoUserConfig struct {
	Email    string
	Password string
	Name     string
}

type AIConfig struct {
	Provider           string
	APIKey             string
	BaseURL            string
	Model              string
	Timeout            time.Duration
	PipelineTimeout    time.Duration
	SessionTTL         time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
	MaxOutputTokens    int
}

type CORSConfig struct {
	AllowOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load загружает полную конфигурацию HTTP-сервера из окружения и .env.
func Load() (Config, error) {
	cfg, err := load()
	if err != nil {
		return cfg, err
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadOffline загружает конфигурацию для CLI: секреты авторизации и БД не требуются.
func LoadOffline() (Config, error) {
	cfg, err := load()
	if err != nil {
		return cfg, err
	}

	if err := cfg.AI.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func load() (Config, error) {
	cfg := Config{}

	if err := loadEnv(); err != nil {
		return cfg, err
	}

	cfg.Env = getEnv("APP_ENV", "local")
	cfg.UserStore = strings.ToLower(getEnv("USER_STORE", UserStoreMemory))

	serverPort, err := parseIntEnv("SERVER_PORT", 8000)
	if err != nil {
		return cfg, err
	}

	readTimeout, err := parseDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return cfg, err
	}

	writeTimeout, err := parseDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second)
	if err != nil {
		return cfg, err
	}

	idleTimeout, err := parseDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return cfg, err
	}

	cfg.Server = ServerConfig{
		Host:         getEnv("SERVER_HOST", "0.0.0.0"),
		Port:         serverPort,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		BodyLimit:    getEnv("SERVER_BODY_LIMIT", "5M"),
	}

	dbPort, err := parseIntEnv("DB_PORT", 5432)
	if err != nil {
		return cfg, err
	}

	maxOpenConns, err := parseIntEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return cfg, err
	}

	maxIdleConns, err := parseIntEnv("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return cfg, err
	}

	connMaxIdleTime, err := parseDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	if err != nil {
		return cfg, err
	}

	connMaxLifetime, err := parseDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return cfg, err
	}

	cfg.Database = DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            dbPort,
		User:            getEnv("DB_USER", "finance"),
		Password:        getEnv("DB_PASSWORD", "finance"),
		Name:            getEnv("DB_NAME", "finance_coach"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxIdleTime: connMaxIdleTime,
		ConnMaxLifetime: connMaxLifetime,
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 30*time.Minute)
	if err != nil {
		return cfg, err
	}

	rateLimitPerMinute, err := parseIntEnv("AUTH_RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return cfg, err
	}

	rateLimitBurst, err := parseIntEnv("AUTH_RATE_LIMIT_BURST", 10)
	if err != nil {
		return cfg, err
	}

	authRequired, err := parseBoolEnv("AUTH_REQUIRED", false)
	if err != nil {
		return cfg, err
	}

	cfg.Auth = AuthConfig{
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "ai-finance-coach"),
		AccessTokenTTL:     accessTTL,
		RateLimitPerMinute: rateLimitPerMinute,
		RateLimitBurst:     rateLimitBurst,
		Required:           authRequired,
		DemoUser: DemoUserConfig{
			Email:    strings.ToLower(getEnv("DEMO_USER_EMAIL", "demo@example.com")),
			Password: getEnv("DEMO_USER_PASSWORD", "password123"),
			Name:     getEnv("DEMO_USER_NAME", "Demo User"),
		},
	}

	aiCfg, err := loadAI()
	if err != nil {
		return cfg, err
	}
	cfg.AI = aiCfg

	origins := parseCSVEnv("CORS_ALLOW_ORIGINS")
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cfg.CORS = CORSConfig{AllowOrigins: origins}

	cfg.Log = LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}

	return cfg, nil
}

func loadAI() (AIConfig, error) {
	aiTimeout, err := parseDurationEnv("AI_TIMEOUT", 30*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	pipelineTimeout, err := parseDurationEnv("AI_PIPELINE_TIMEOUT", 90*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	sessionTTL, err := parseDurationEnv("AI_SESSION_TTL", 10*time.Minute)
	if err != nil {
		return AIConfig{}, err
	}

	aiRateLimitPerMinute, err := parseIntEnv("AI_RATE_LIMIT_PER_MINUTE", 30)
	if err != nil {
		return AIConfig{}, err
	}

	aiRateLimitBurst, err := parseIntEnv("AI_RATE_LIMIT_BURST", 10)
	if err != nil {
		return AIConfig{}, err
	}

	aiMaxOutputTokens, err := parseIntEnv("AI_MAX_OUTPUT_TOKENS", 4096)
	if err != nil {
		return AIConfig{}, err
	}

	provider := strings.ToLower(getEnv("AI_PROVIDER", ProviderGemini))
	defaultBaseURL := ""
	defaultModel := "gemini-1.5-flash"
	switch provider {
	case ProviderGroq:
		defaultBaseURL = "https://api.groq.com/openai/v1"
		defaultModel = "llama-3.1-8b-instant"
	case ProviderAnthropic:
		defaultModel = "claude-3-5-haiku-latest"
	}

	return AIConfig{
		Provider:           provider,
		APIKey:             aiAPIKey(provider),
		BaseURL:            getEnv("AI_BASE_URL", defaultBaseURL),
		Model:              getEnv("AI_MODEL", defaultModel),
		Timeout:            aiTimeout,
		PipelineTimeout:    pipelineTimeout,
		SessionTTL:         sessionTTL,
		RateLimitPerMinute: aiRateLimitPerMinute,
		RateLimitBurst:     aiRateLimitBurst,
		MaxOutputTokens:    aiMaxOutputTokens,
	}, nil
}

func aiAPIKey(provider string) string {
	if key := getEnv("AI_API_KEY", ""); key != "" {
		return key
	}

	var fallbacks []string
	switch provider {
	case ProviderGemini:
		fallbacks = []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"}
	case ProviderGroq:
		fallbacks = []string{"GROQ_API_KEY"}
	case ProviderAnthropic:
		fallbacks = []string{"ANTHROPIC_API_KEY"}
	}

	for _, key := range fallbacks {
		if value := getEnv(key, ""); value != "" {
			return value
		}
	}
	return ""
}

// KeyConfigured сообщает, задан ли настоящий API-ключ (не пустой и не плейсхолдер).
func (c AIConfig) KeyConfigured() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && key != PlaceholderAPIKey
}

// DSN возвращает строку подключения к базе данных.
func (c DatabaseConfig) DSN() string {
	user := url.UserPassword(c.User, c.Password)
	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	return dsn.String() + "?" + query.Encode()
}

func (c Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be greater than 0")
	}

	switch c.UserStore {
	case UserStoreMemory:
	case UserStorePostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("USER_STORE must be %q or %q", UserStoreMemory, UserStorePostgres)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be greater than 0")
	}

	if c.Auth.RateLimitPerMinute <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT_PER_MINUTE must be greater than 0")
	}

	if c.Auth.RateLimitBurst <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT_BURST must be greater than 0")
	}

	if c.UserStore == UserStoreMemory && (c.Auth.DemoUser.Email == "" || c.Auth.DemoUser.Password == "") {
		return fmt.Errorf("DEMO_USER_EMAIL and DEMO_USER_PASSWORD are required for the memory user store")
	}

	return c.AI.validate()
}

func (c DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS cannot exceed DB_MAX_OPEN_CONNS")
	}

	return nil
}

func (c AIConfig) validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderGroq, ProviderAnthropic:
	default:
		return fmt.Errorf("AI_PROVIDER must be one of %s, %s, %s", ProviderGemini, ProviderGroq, ProviderAnthropic)
	}

	if c.Provider == ProviderGroq && c.BaseURL == "" {
		return fmt.Errorf("AI_BASE_URL is required for provider %s", ProviderGroq)
	}

	if c.PipelineTimeout < c.Timeout {
		return fmt.Errorf("AI_PIPELINE_TIMEOUT cannot be shorter than AI_TIMEOUT")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseBoolEnv(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}

	return parsed, nil
}

func parseCSVEnv(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
