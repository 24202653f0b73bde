package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host                string   `mapstructure:"host"`
	Port                int      `mapstructure:"port" validate:"min=1,max=65535"`
	Mode                string   `mapstructure:"mode" validate:"oneof=debug release test"`
	BaseURL             string   `mapstructure:"base_url"`
	AllowedOrigins      []string `mapstructure:"allowed_origins"`
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds"`
	MaxUploadMB         int      `mapstructure:"max_upload_mb"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=mysql sqlite"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// GetDSN returns the connection string for the configured driver.
func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == DriverSQLite {
		return d.SQLitePath
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	OutputPath string `mapstructure:"output_path"`
	// SourceAllLevels attaches the call site to every record, not only warn and above.
	SourceAllLevels bool `mapstructure:"source_all_levels"`
}

type PasswordConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost" validate:"min=4,max=31"`
	MinLength  int `mapstructure:"min_length" validate:"min=1"`
}

type TokenConfig struct {
	ResetExpiresMinutes int    `mapstructure:"reset_expires_minutes" validate:"min=1"`
	ResetRedirectURL    string `mapstructure:"reset_redirect_url"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret" validate:"required,min=16"`
	Issuer           string `mapstructure:"issuer"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes" validate:"min=1"`
	RefreshExpDays   int    `mapstructure:"refresh_exp_days" validate:"min=1"`
}

// RateLimitConfig caps credential requests per client IP. Zero disables a window.
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute" validate:"min=0"`
	PerHour   int `mapstructure:"per_hour" validate:"min=0"`
}

type AuthConfig struct {
	Password  PasswordConfig  `mapstructure:"password"`
	Token     TokenConfig     `mapstructure:"token"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

func (a *AuthConfig) AccessTTL() time.Duration {
	return time.Duration(a.JWT.AccessExpMinutes) * time.Minute
}

func (a *AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(a.JWT.RefreshExpDays) * 24 * time.Hour
}

func (a *AuthConfig) ResetTTL() time.Duration {
	return time.Duration(a.Token.ResetExpiresMinutes) * time.Minute
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
}

// Enabled reports whether outgoing mail is configured.
func (e *EmailConfig) Enabled() bool {
	return e.SMTPHost != ""
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type StorageConfig struct {
	Root              string `mapstructure:"root" validate:"required"`
	AttachmentsBucket string `mapstructure:"attachments_bucket" validate:"required"`
}

type SessionConfig struct {
	ProvisionDelayMS int `mapstructure:"provision_delay_ms" validate:"min=0"`
}

func (s *SessionConfig) ProvisionDelay() time.Duration {
	return time.Duration(s.ProvisionDelayMS) * time.Millisecond
}

type SchedulerConfig struct {
	Enabled              bool `mapstructure:"enabled"`
	PurgeIntervalMinutes int  `mapstructure:"purge_interval_minutes" validate:"min=1"`
}
