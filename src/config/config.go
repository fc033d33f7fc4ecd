package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string

	JWTSecret      string
	AuthDisabled   bool
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int

	MaxUploadSizeBytes int64

	// Share of the gross amount owed to the technician when a billing code has no grid entry.
	TechShareRatio float64
	// "reject" refuses a file whose content was already imported, "replace" swaps the old batch out.
	DuplicateImportPolicy string
	ReportCacheTTL        time.Duration
	PriceGridPath         string
	// Optional JSON roster mapping technician codes to names.
	TechnicianDirectoryPath string

	EmailServiceProvider string

	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	MailgunDomain        string
	MailgunPrivateAPIKey string

	SenderEmail            string
	SenderName             string
	ImportReportRecipients []string
}

var Cfg *AppConfig

const (
	DuplicatePolicyReject  = "reject"
	DuplicatePolicyReplace = "replace"
)

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "")
	authDisabled := getEnvAsBool("AUTH_DISABLED", false)
	if jwtSecret == "" && !authDisabled {
		log.Println("WARNING: JWT_SECRET is empty and AUTH_DISABLED is false. Every API call will be rejected.")
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "20971520")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 20MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 20 * 1024 * 1024
	}

	ratio := getEnvAsFloat("TECH_SHARE_RATIO", 0.55)
	if ratio < 0 || ratio > 1 {
		log.Printf("WARNING: TECH_SHARE_RATIO %.4f outside [0,1]. Using default 0.55.", ratio)
		ratio = 0.55
	}

	policy := strings.ToLower(getEnv("DUPLICATE_IMPORT_POLICY", DuplicatePolicyReject))
	if policy != DuplicatePolicyReject && policy != DuplicatePolicyReplace {
		log.Printf("WARNING: Unknown DUPLICATE_IMPORT_POLICY '%s'. Using '%s'.", policy, DuplicatePolicyReject)
		policy = DuplicatePolicyReject
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./fibertrack.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		JWTSecret:      jwtSecret,
		AuthDisabled:   authDisabled,
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 30),

		MaxUploadSizeBytes: maxUploadSizeBytes,

		TechShareRatio:          ratio,
		DuplicateImportPolicy:   policy,
		ReportCacheTTL:          getEnvAsDuration("REPORT_CACHE_TTL", 15*time.Minute),
		PriceGridPath:           getEnv("PRICE_GRID_PATH", ""),
		TechnicianDirectoryPath: getEnv("TECHNICIAN_DIRECTORY_PATH", ""),

		EmailServiceProvider: getEnv("EMAIL_SERVICE_PROVIDER", "mock"),

		SMTPServer:   getEnv("SMTP_SERVER", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),

		SenderEmail:            getEnv("SENDER_EMAIL", "noreply@example.com"),
		SenderName:             getEnv("SENDER_NAME", "GSET Fibre"),
		ImportReportRecipients: getEnvAsList("IMPORT_REPORT_RECIPIENTS", ""),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, EmailProvider=%s, DuplicatePolicy=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.EmailServiceProvider, Cfg.DuplicateImportPolicy)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
