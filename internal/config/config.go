package config

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
	"golang.org/x/crypto/pbkdf2"

	"github.com/campusware/gatepass/pkg/crypto"
	"github.com/campusware/gatepass/pkg/errors"
)

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	Expiry        time.Duration `mapstructure:"expiry"`
	RefreshExpiry time.Duration `mapstructure:"refresh_expiry"`
}

type MaskingConfig struct {
	IDPrefix    int    `mapstructure:"id_prefix"`
	IDSuffix    int    `mapstructure:"id_suffix"`
	PhonePrefix int    `mapstructure:"phone_prefix"`
	PhoneSuffix int    `mapstructure:"phone_suffix"`
	MaskChar    string `mapstructure:"mask_char"`
}

func (c MaskingConfig) Policy() crypto.MaskPolicy {
	p := crypto.DefaultMaskPolicy()
	if c.IDPrefix > 0 {
		p.IDPrefix = c.IDPrefix
	}
	if c.IDSuffix > 0 {
		p.IDSuffix = c.IDSuffix
	}
	if c.PhonePrefix > 0 {
		p.PhonePrefix = c.PhonePrefix
	}
	if c.PhoneSuffix > 0 {
		p.PhoneSuffix = c.PhoneSuffix
	}
	if c.MaskChar != "" {
		p.MaskChar = c.MaskChar
	}
	return p
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type SMTPConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	From    string `mapstructure:"from"`
	Enabled bool   `mapstructure:"enabled"`
}

type SweepConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Window   time.Duration `mapstructure:"window"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// Secrets holds key material; it is loaded from the environment, never
// from the config file on disk.
type Secrets struct {
	SM4Key       string `envconfig:"SM4_KEY" required:"true"`
	SM4IV        string `envconfig:"SM4_IV" required:"true"`
	AuditHMACKey string `envconfig:"AUDIT_HMAC_KEY"`
	MasterSecret string `envconfig:"MASTER_SECRET"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Masking   MaskingConfig   `mapstructure:"masking"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Sweep     SweepConfig     `mapstructure:"sweep"`
	Log       LogConfig       `mapstructure:"log"`

	Secrets Secrets `mapstructure:"-"`
}

// auditKeySalt fixes the derivation context for the fallback audit key.
const auditKeySalt = "gatepass/audit-ledger/v1"

// LoadConfig reads config.yml (plus env overrides) and the secret
// material from the environment.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/gatepass")

	viper.SetEnvPrefix("GATEPASS")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("GATEPASS", &cfg.Secrets); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 15*time.Second)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("jwt.expiry", 24*time.Hour)
	viper.SetDefault("jwt.refresh_expiry", 168*time.Hour)
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_second", 5.0)
	viper.SetDefault("rate_limit.burst", 10)
	viper.SetDefault("sweep.interval", time.Hour)
	viper.SetDefault("sweep.window", 7*24*time.Hour)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.console", true)
}

// DecodeSM4Key decodes the base64 cipher key.
func (s Secrets) DecodeSM4Key() ([]byte, error) {
	return decodeKey(s.SM4Key, crypto.KeySize)
}

// DecodeSM4IV decodes the base64 initialization vector.
func (s Secrets) DecodeSM4IV() ([]byte, error) {
	return decodeKey(s.SM4IV, crypto.KeySize)
}

// DecodeAuditHMACKey returns the audit-ledger tag key. When no
// explicit key is configured it is derived from the master secret so a
// single secret can bootstrap a deployment; explicit keys win so
// existing ledgers keep verifying.
func (s Secrets) DecodeAuditHMACKey() ([]byte, error) {
	if s.AuditHMACKey != "" {
		raw, err := base64.StdEncoding.DecodeString(s.AuditHMACKey)
		if err != nil {
			return nil, errors.InvalidKeyMaterial(err)
		}
		if len(raw) == 0 {
			return nil, errors.InvalidKeyMaterial(fmt.Errorf("audit hmac key is empty"))
		}
		return raw, nil
	}
	if s.MasterSecret == "" {
		return nil, errors.InvalidKeyMaterial(fmt.Errorf("neither audit hmac key nor master secret configured"))
	}
	return pbkdf2.Key([]byte(s.MasterSecret), []byte(auditKeySalt), 4096, 32, sha256.New), nil
}

func decodeKey(encoded string, want int) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.InvalidKeyMaterial(err)
	}
	if len(raw) != want {
		return nil, errors.InvalidKeyMaterial(fmt.Errorf("key must be %d bytes, got %d", want, len(raw)))
	}
	return raw, nil
}
