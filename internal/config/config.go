package config

import (
	"os"
	"path/filepath"
	"strings"

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
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Zitadel   ZitadelConfig
	Gateway   GatewayConfig
	RateLimit RateLimitConfig
	Workspace WorkspaceConfig
	JobStore  JobStoreConfig
	Reboot    RebootConfig
	LLM       LLMConfig
	R2        R2Config
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type ZitadelConfig struct {
	Domain   string
	ClientID string
	Issuer   string
	// Subjects allowed to use the panel; empty allows every valid token
	AllowedSubjects []string
}

type GatewayConfig struct {
	Enabled bool
}

type RateLimitConfig struct {
	MutatePerMin  int
	RebootPerHour int
	BackupPerHour int
}

type WorkspaceConfig struct {
	Root            string
	ResolveSymlinks bool
}

type JobStoreConfig struct {
	Path  string
	Watch bool
}

type RebootConfig struct {
	Command      string
	Args         []string
	DelaySeconds int
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

func Load() (*Config, error) {
	// Local development .env, never required
	_ = godotenv.Load()

	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("LLM_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("ZITADEL_CLIENT_ID")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables
	v.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("redis.enabled", "REDIS_ENABLED")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = v.BindEnv("zitadel.domain", "ZITADEL_DOMAIN")
	_ = v.BindEnv("zitadel.client_id", "ZITADEL_CLIENT_ID")
	_ = v.BindEnv("zitadel.issuer", "ZITADEL_ISSUER")
	_ = v.BindEnv("zitadel.allowed_subjects", "ZITADEL_ALLOWED_SUBJECTS")
	_ = v.BindEnv("gateway.enabled", "GATEWAY_ENABLED")
	_ = v.BindEnv("ratelimit.mutate_per_min", "RATELIMIT_MUTATE_PER_MIN")
	_ = v.BindEnv("ratelimit.reboot_per_hour", "RATELIMIT_REBOOT_PER_HOUR")
	_ = v.BindEnv("ratelimit.backup_per_hour", "RATELIMIT_BACKUP_PER_HOUR")
	_ = v.BindEnv("workspace.root", "WORKSPACE_ROOT")
	_ = v.BindEnv("workspace.resolve_symlinks", "WORKSPACE_RESOLVE_SYMLINKS")
	_ = v.BindEnv("jobstore.path", "JOBSTORE_PATH")
	_ = v.BindEnv("jobstore.watch", "JOBSTORE_WATCH")
	_ = v.BindEnv("reboot.command", "REBOOT_COMMAND")
	_ = v.BindEnv("reboot.args", "REBOOT_ARGS")
	_ = v.BindEnv("reboot.delay_seconds", "REBOOT_DELAY_SECONDS")
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY")
	_ = v.BindEnv("llm.base_url", "LLM_BASE_URL")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")

	home, _ := os.UserHomeDir()

	// Defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expiration", 24)
	v.SetDefault("gateway.enabled", false)
	v.SetDefault("ratelimit.mutate_per_min", 30)
	v.SetDefault("ratelimit.reboot_per_hour", 3)
	v.SetDefault("ratelimit.backup_per_hour", 10)

	// Local state defaults
	v.SetDefault("workspace.root", filepath.Join(home, "workspace"))
	v.SetDefault("workspace.resolve_symlinks", true)
	v.SetDefault("jobstore.path", filepath.Join(home, ".config", "homepanel", "cron", "jobs.json"))
	v.SetDefault("jobstore.watch", true)

	// Reboot defaults
	v.SetDefault("reboot.command", "systemctl")
	v.SetDefault("reboot.args", "reboot")
	v.SetDefault("reboot.delay_seconds", 3)

	// LLM catalogue defaults
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("server.port"),
			Env:      v.GetString("server.env"),
			LogLevel: v.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetInt("jwt.expiration"),
		},
		Zitadel: ZitadelConfig{
			Domain:          v.GetString("zitadel.domain"),
			ClientID:        v.GetString("zitadel.client_id"),
			Issuer:          strings.TrimRight(v.GetString("zitadel.issuer"), "/"),
			AllowedSubjects: splitList(v.GetString("zitadel.allowed_subjects")),
		},
		Gateway: GatewayConfig{
			Enabled: v.GetBool("gateway.enabled"),
		},
		RateLimit: RateLimitConfig{
			MutatePerMin:  v.GetInt("ratelimit.mutate_per_min"),
			RebootPerHour: v.GetInt("ratelimit.reboot_per_hour"),
			BackupPerHour: v.GetInt("ratelimit.backup_per_hour"),
		},
		Workspace: WorkspaceConfig{
			Root:            expandHome(v.GetString("workspace.root"), home),
			ResolveSymlinks: v.GetBool("workspace.resolve_symlinks"),
		},
		JobStore: JobStoreConfig{
			Path:  expandHome(v.GetString("jobstore.path"), home),
			Watch: v.GetBool("jobstore.watch"),
		},
		Reboot: RebootConfig{
			Command:      v.GetString("reboot.command"),
			Args:         strings.Fields(v.GetString("reboot.args")),
			DelaySeconds: v.GetInt("reboot.delay_seconds"),
		},
		LLM: LLMConfig{
			APIKey:  v.GetString("llm.api_key"),
			BaseURL: strings.TrimRight(v.GetString("llm.base_url"), "/"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       v.GetString("r2.public_url"),
		},
	}

	return cfg, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// splitList splits a comma or space separated list.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
}
