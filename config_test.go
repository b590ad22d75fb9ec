package goRecover

import (
	"testing"
	"time"

	"github.com/nbytelabs/goRecover/email"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig must validate, got %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero ttl", func(c *Config) { c.Recovery.CodeTTL = 0 }},
		{"otp digits too small", func(c *Config) { c.Code.Digits = 4 }},
		{"otp digits too large", func(c *Config) { c.Code.Digits = 11 }},
		{"alphanumeric too short", func(c *Config) {
			c.Code.Strategy = CodeAlphanumeric
			c.Code.Length = 4
		}},
		{"unknown strategy", func(c *Config) { c.Code.Strategy = CodeStrategyType(99) }},
		{"empty subject", func(c *Config) { c.Email.Subject = "" }},
		{"empty redis prefix", func(c *Config) { c.Cache.RedisPrefix = "" }},
		{"throttle without attempts", func(c *Config) {
			c.Recovery.EnableIdentifierThrottle = true
			c.Recovery.ThrottleMaxAttempts = 0
		}},
		{"throttle without window", func(c *Config) {
			c.Recovery.EnableIPThrottle = true
			c.Recovery.ThrottleWindow = 0
		}},
		{"audit without buffer", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestConfigUUIDStrategyNeedsNoSizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Code.Strategy = CodeUUID
	cfg.Code.Digits = 0
	cfg.Code.Length = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("UUID strategy must validate without size parameters, got %v", err)
	}
}

func TestCloneConfigDetachesSMTPMap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Email.SMTP = map[email.Provider]email.SMTPConfig{
		email.ProviderGmail: {Host: "smtp.gmail.com", Port: 587},
	}

	cloned := cloneConfig(cfg)
	cfg.Email.SMTP[email.ProviderGmail] = email.SMTPConfig{Host: "changed"}

	if cloned.Email.SMTP[email.ProviderGmail].Host != "smtp.gmail.com" {
		t.Fatal("expected cloned SMTP map to be independent of the source")
	}
}

func TestBuilderRequirements(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	up := newMockProvider()
	sender := &captureSender{}

	if _, err := New().WithRedis(rdb).WithSender(sender).Build(); err == nil {
		t.Fatal("expected error without a user provider")
	}

	if _, err := New().WithUserProvider(up).WithSender(sender).Build(); err == nil {
		t.Fatal("expected error without redis or a code store")
	}

	if _, err := New().WithRedis(rdb).WithUserProvider(up).Build(); err == nil {
		t.Fatal("expected error without a sender or SMTP accounts")
	}

	cfg := DefaultConfig()
	cfg.Recovery.EnableIPThrottle = true
	b := New().WithConfig(cfg).WithUserProvider(up).WithSender(sender).
		WithCodeStore(NewRedisCodeStore(rdb, "arc"))
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error enabling throttles without redis")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	b := New().WithRedis(rdb).WithUserProvider(newMockProvider()).WithSender(&captureSender{})
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build on the same builder to fail")
	}
}

func TestBuilderDefaultSMTPSender(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := DefaultConfig()
	cfg.Email.From = "noreply@example.com"
	cfg.Email.SMTP = map[email.Provider]email.SMTPConfig{
		email.ProviderGmail:   {Host: "smtp.gmail.com", Port: 587, TLS: true},
		email.ProviderOutlook: {Host: "smtp.office365.com", Port: 587, TLS: true},
	}

	engine, err := New().WithConfig(cfg).WithRedis(rdb).WithUserProvider(newMockProvider()).Build()
	if err != nil {
		t.Fatalf("Build with SMTP accounts failed: %v", err)
	}
	engine.Close()
}

func TestWithConfigIsolatesCaller(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := DefaultConfig()
	cfg.Email.From = "noreply@example.com"
	cfg.Recovery.CodeTTL = 10 * time.Minute

	b := New().WithConfig(cfg).WithRedis(rdb).
		WithUserProvider(newMockProvider()).WithSender(&captureSender{})

	// Mutating the caller's config after WithConfig must not leak in.
	cfg.Recovery.CodeTTL = 0

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	engine.Close()
}
