package goRecover

import (
	"errors"

	"github.com/nbytelabs/goRecover/email"
	"github.com/nbytelabs/goRecover/internal/limiters"
	"github.com/nbytelabs/goRecover/password"
	"github.com/nbytelabs/goRecover/validate"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Only the user provider and a way to reach the
// cache (a Redis client or a custom [CodeStore]) are mandatory; every other
// capability has a default selected from [Config].
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userProvider UserProvider
	validator    CredentialValidator
	hasher       PasswordHasher
	codeGen      CodeGenerator
	codeStore    CodeStore
	resolver     email.Resolver
	sender       email.Sender
	auditSink    AuditSink

	built bool
}

// New starts a builder with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's config.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the default code store and the
// optional throttles.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider sets the caller's user database integration. Required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithCredentialValidator overrides the default format rules from the
// validate subpackage.
func (b *Builder) WithCredentialValidator(v CredentialValidator) *Builder {
	b.validator = v
	return b
}

// WithPasswordHasher overrides the default argon2id hasher.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

// WithCodeGenerator overrides the generator selected by [CodeConfig].
func (b *Builder) WithCodeGenerator(g CodeGenerator) *Builder {
	b.codeGen = g
	return b
}

// WithCodeStore replaces the default Redis code store. The store carries the
// single-use guarantee; see [CodeStore].
func (b *Builder) WithCodeStore(s CodeStore) *Builder {
	b.codeStore = s
	return b
}

// WithResolver overrides the default domain-table provider resolver.
func (b *Builder) WithResolver(r email.Resolver) *Builder {
	b.resolver = r
	return b
}

// WithSender sets the outbound email sender. When omitted, an SMTP sender is
// built from [EmailConfig].SMTP.
func (b *Builder) WithSender(s email.Sender) *Builder {
	b.sender = s
	return b
}

// WithAuditSink sets the sink receiving audit events when audit is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, fills in defaults, and returns an
// immutable [Engine]. A builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	engine := &Engine{
		config:   cfg,
		provider: b.userProvider,
	}

	// -------- CODE STORE --------
	engine.codeStore = b.codeStore
	if engine.codeStore == nil {
		if b.redis == nil {
			return nil, errors.New("redis client required (or provide a code store)")
		}
		engine.codeStore = NewRedisCodeStore(b.redis, cfg.Cache.RedisPrefix)
	}

	// -------- THROTTLES --------
	if cfg.Recovery.EnableIdentifierThrottle || cfg.Recovery.EnableIPThrottle {
		if b.redis == nil {
			return nil, errors.New("recovery throttles require redis client")
		}
		engine.limiter = limiters.NewRecoveryLimiter(b.redis, limiters.RecoveryConfig{
			EnableIdentifierThrottle: cfg.Recovery.EnableIdentifierThrottle,
			EnableIPThrottle:         cfg.Recovery.EnableIPThrottle,
			Window:                   cfg.Recovery.ThrottleWindow,
			MaxAttempts:              cfg.Recovery.ThrottleMaxAttempts,
		})
	}

	// -------- CAPABILITY DEFAULTS --------
	engine.validator = b.validator
	if engine.validator == nil {
		engine.validator = validate.NewRules()
	}

	engine.hasher = b.hasher
	if engine.hasher == nil {
		ph, err := password.NewArgon2(password.Config{
			Memory:           cfg.Password.Memory,
			Time:             cfg.Password.Time,
			Parallelism:      cfg.Password.Parallelism,
			SaltLength:       cfg.Password.SaltLength,
			KeyLength:        cfg.Password.KeyLength,
			MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
		})
		if err != nil {
			return nil, err
		}
		engine.hasher = ph
	}

	engine.codeGen = b.codeGen
	if engine.codeGen == nil {
		gen, err := newCodeGenerator(cfg.Code)
		if err != nil {
			return nil, err
		}
		engine.codeGen = gen
	}

	engine.resolver = b.resolver
	if engine.resolver == nil {
		engine.resolver = email.NewDefaultResolver()
	}

	engine.sender = b.sender
	if engine.sender == nil {
		if len(cfg.Email.SMTP) == 0 {
			return nil, errors.New("email sender required (or configure Email.SMTP accounts)")
		}
		sender, err := email.NewSMTPSender(cfg.Email.SMTP)
		if err != nil {
			return nil, err
		}
		engine.sender = sender
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
