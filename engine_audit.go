package goRecover

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventRecoveryIssue    = "recovery_issue"
	auditEventRecoveryConsume  = "recovery_consume"
	auditEventRecoveryReplay   = "recovery_replay"
	auditEventRateLimitTrigger = "rate_limit_triggered"
)

// AuditErrorCode is the stable wire label for an engine error inside an
// [AuditEvent].
type AuditErrorCode string

const (
	auditErrUserNotFound      AuditErrorCode = "user_not_found"
	auditErrCodeInvalid       AuditErrorCode = "code_invalid"
	auditErrNoPasswordAuth    AuditErrorCode = "password_auth_not_configured"
	auditErrPasswordPolicy    AuditErrorCode = "password_policy"
	auditErrConfirmMismatch   AuditErrorCode = "confirm_mismatch"
	auditErrRateLimited       AuditErrorCode = "rate_limited"
	auditErrSenderIdentity    AuditErrorCode = "sender_identity_missing"
	auditErrProviderUnknown   AuditErrorCode = "provider_unresolved"
	auditErrDeliveryFailed    AuditErrorCode = "delivery_failed"
	auditErrUnavailable       AuditErrorCode = "backend_unavailable"
	auditErrRecoveryDisabled  AuditErrorCode = "recovery_disabled"
	auditErrInternal          AuditErrorCode = "internal_error"
)

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrCodeInvalid):
		return auditErrCodeInvalid
	case errors.Is(err, ErrPasswordAuthNotConfigured):
		return auditErrNoPasswordAuth
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrConfirmMismatch):
		return auditErrConfirmMismatch
	case errors.Is(err, ErrRecoveryRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrSenderIdentityMissing):
		return auditErrSenderIdentity
	case errors.Is(err, ErrProviderUnresolved):
		return auditErrProviderUnknown
	case errors.Is(err, ErrEmailDeliveryFailed):
		return auditErrDeliveryFailed
	case errors.Is(err, ErrRecoveryUnavailable), errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrRecoveryDisabled):
		return auditErrRecoveryDisabled
	default:
		return auditErrInternal
	}
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	projectKey string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		UserID:     userID,
		ProjectKey: projectKey,
		IP:         clientIPFromContext(ctx),
		Success:    success,
		Metadata:   metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(
	ctx context.Context,
	scope string,
	projectKey string,
	metadataBuilder func() map[string]string,
) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTrigger, false, "", projectKey, nil, func() map[string]string {
		base := map[string]string{
			"scope": scope,
		}
		if metadataBuilder == nil {
			return base
		}
		for k, v := range metadataBuilder() {
			base[k] = v
		}
		return base
	})
}
