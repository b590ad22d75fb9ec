package goRecover

import (
	"github.com/nbytelabs/goRecover/email"
	"github.com/nbytelabs/goRecover/internal/limiters"
)

// Engine orchestrates the recovery-code protocol: Issue stores a code and
// mails it out, Consume redeems it exactly once against a new password.
// Engines are built through [Builder.Build] and immutable afterwards; every
// invocation is an independent, concurrently runnable request.
type Engine struct {
	config    Config
	provider  UserProvider
	validator CredentialValidator
	hasher    PasswordHasher
	codeGen   CodeGenerator
	codeStore CodeStore
	resolver  email.Resolver
	sender    email.Sender
	limiter   *limiters.RecoveryLimiter
	audit     *auditDispatcher
	metrics   *Metrics
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil &&
		e.provider != nil &&
		e.validator != nil &&
		e.hasher != nil &&
		e.codeGen != nil &&
		e.codeStore != nil &&
		e.resolver != nil &&
		e.sender != nil
}
