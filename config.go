package goRecover

import (
	"errors"
	"time"

	"github.com/nbytelabs/goRecover/email"
)

// Config defines engine behavior. Configure it before [Builder.Build] and
// treat it as immutable afterwards.
type Config struct {
	Recovery RecoveryConfig
	Code     CodeConfig
	Password PasswordConfig
	Email    EmailConfig
	Cache    CacheConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
RECOVERY CONFIG
====================================
*/

// RecoveryConfig controls the issue/consume protocol: code retention and the
// optional fixed-window throttles.
type RecoveryConfig struct {
	Enabled bool

	// CodeTTL bounds how long an issued code stays redeemable. Keep it in
	// single-digit minutes; guessing resistance is TTL times generator entropy.
	CodeTTL time.Duration

	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	ThrottleMaxAttempts      int
	ThrottleWindow           time.Duration
}

/*
====================================
CODE CONFIG
====================================
*/

// CodeStrategyType selects how recovery codes are generated.
type CodeStrategyType int

const (
	// CodeOTP generates a numeric one-time code of CodeConfig.Digits digits.
	CodeOTP CodeStrategyType = iota
	// CodeAlphanumeric generates a code of CodeConfig.Length characters drawn
	// from an unambiguous upper-case alphabet.
	CodeAlphanumeric
	// CodeUUID generates a random UUIDv4 string.
	CodeUUID
)

// CodeConfig selects the code generation strategy and its size parameters.
type CodeConfig struct {
	Strategy CodeStrategyType
	Digits   int // CodeOTP
	Length   int // CodeAlphanumeric
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig carries the argon2id parameters for the default hasher.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// MaxPasswordBytes caps accepted password length; zero uses the hasher
	// default.
	MaxPasswordBytes int
}

/*
====================================
EMAIL CONFIG
====================================
*/

// EmailConfig carries the outbound identity and, when the default SMTP sender
// is used, one SMTP account per delivery provider. From is intentionally NOT
// validated at build time: per the issue contract a missing sender identity
// surfaces during Issue, after the code has been stored.
type EmailConfig struct {
	From     string
	FromName string
	Subject  string
	SMTP     map[email.Provider]email.SMTPConfig
}

/*
====================================
CACHE / AUDIT / METRICS CONFIG
====================================
*/

// CacheConfig controls the default Redis code store.
type CacheConfig struct {
	RedisPrefix string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns conservative defaults: 6-digit numeric codes with a
// five-minute retention window, throttles off, audit and metrics off.
func DefaultConfig() Config {
	return Config{
		Recovery: RecoveryConfig{
			Enabled:                  true,
			CodeTTL:                  5 * time.Minute,
			EnableIdentifierThrottle: false,
			EnableIPThrottle:         false,
			ThrottleMaxAttempts:      5,
			ThrottleWindow:           15 * time.Minute,
		},
		Code: CodeConfig{
			Strategy: CodeOTP,
			Digits:   6,
			Length:   10,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Email: EmailConfig{
			Subject: "Recovery Code",
		},
		Cache: CacheConfig{
			RedisPrefix: "arc",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Email.SMTP != nil {
		out.Email.SMTP = make(map[email.Provider]email.SMTPConfig, len(cfg.Email.SMTP))
		for provider, account := range cfg.Email.SMTP {
			out.Email.SMTP[provider] = account
		}
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the engine cannot run with. It is called by
// [Builder.Build]; callers constructing configs by hand can call it early.
func (c *Config) Validate() error {
	if c.Recovery.Enabled && c.Recovery.CodeTTL <= 0 {
		return errors.New("Recovery CodeTTL must be > 0")
	}
	if c.Recovery.EnableIdentifierThrottle || c.Recovery.EnableIPThrottle {
		if c.Recovery.ThrottleMaxAttempts <= 0 {
			return errors.New("Recovery ThrottleMaxAttempts must be > 0 when throttling is enabled")
		}
		if c.Recovery.ThrottleWindow <= 0 {
			return errors.New("Recovery ThrottleWindow must be > 0 when throttling is enabled")
		}
	}

	switch c.Code.Strategy {
	case CodeOTP:
		if c.Code.Digits < 6 || c.Code.Digits > 10 {
			return errors.New("Code Digits must be between 6 and 10")
		}
	case CodeAlphanumeric:
		if c.Code.Length < 8 || c.Code.Length > 64 {
			return errors.New("Code Length must be between 8 and 64")
		}
	case CodeUUID:
		// no size parameters
	default:
		return errors.New("unsupported code strategy")
	}

	if c.Email.Subject == "" {
		return errors.New("Email Subject must not be empty")
	}

	if c.Cache.RedisPrefix == "" {
		return errors.New("Cache RedisPrefix must not be empty")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
