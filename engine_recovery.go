package goRecover

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/nbytelabs/goRecover/email"
	"github.com/nbytelabs/goRecover/internal"
	"github.com/nbytelabs/goRecover/internal/limiters"
)

// Issue starts a recovery for the user identified by (email, projectKey):
// generate a code, store it under the user's ID (silently superseding any
// pending code), resolve a delivery provider for the address, and send one
// message carrying the code.
//
// Malformed input and lookup misses all surface as [ErrUserNotFound]; the
// caller cannot tell which part of the input was wrong. The code is stored
// before the mail leaves, so a delivery failure ([ErrEmailDeliveryFailed])
// leaves a valid, undelivered code behind — re-issuing overwrites it.
func (e *Engine) Issue(ctx context.Context, emailAddr, projectKey string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if !e.config.Recovery.Enabled {
		return ErrRecoveryDisabled
	}

	ip := clientIPFromContext(ctx)
	if err := e.limiter.CheckIssue(ctx, projectKey, emailAddr, ip); err != nil {
		mapped := mapLimiterError(err)
		if errors.Is(mapped, ErrRecoveryRateLimited) {
			e.metricInc(MetricIssueRateLimited)
			e.emitRateLimit(ctx, "recovery_issue", projectKey, func() map[string]string {
				return map[string]string{"identifier": emailAddr}
			})
		}
		e.emitAudit(ctx, auditEventRecoveryIssue, false, "", projectKey, mapped, nil)
		return mapped
	}

	// Format failures are reported exactly like lookup misses so an attacker
	// probing Issue cannot learn which field was wrong.
	if !e.validator.IsValidEmail(emailAddr) || !e.validator.IsValidProjectKey(projectKey) {
		return e.failIssueNotFound(ctx, projectKey, "malformed_credentials")
	}

	user, err := e.provider.FindByCredentials(ctx, emailAddr, projectKey)
	if err != nil {
		return e.failIssueNotFound(ctx, projectKey, "lookup_miss")
	}

	if user.PasswordHash == "" {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventRecoveryIssue, false, user.UserID, projectKey, ErrPasswordAuthNotConfigured, nil)
		return ErrPasswordAuthNotConfigured
	}

	code, err := e.codeGen.Generate()
	if err != nil {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventRecoveryIssue, false, user.UserID, projectKey, ErrRecoveryUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrRecoveryUnavailable, err)
	}

	now := time.Now()
	rec := CodeRecord{
		CodeHash:   internal.HashCode(code),
		ProjectKey: user.ProjectKey,
		IssuedAt:   now.Unix(),
		ExpiresAt:  now.Add(e.config.Recovery.CodeTTL).Unix(),
	}

	if err := e.codeStore.Set(ctx, user.UserID, rec, e.config.Recovery.CodeTTL); err != nil {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventRecoveryIssue, false, user.UserID, projectKey, ErrRecoveryUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrRecoveryUnavailable, err)
	}

	if e.config.Email.From == "" {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventRecoveryIssue, false, user.UserID, projectKey, ErrSenderIdentityMissing, nil)
		return ErrSenderIdentityMissing
	}

	provider, ok := e.resolver.Resolve(user.Email)
	if !ok {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventRecoveryIssue, false, user.UserID, projectKey, ErrProviderUnresolved, nil)
		return ErrProviderUnresolved
	}

	msg := email.Message{
		From:     e.config.Email.From,
		FromName: e.config.Email.FromName,
		To:       user.Email,
		Subject:  e.config.Email.Subject,
		Text:     fmt.Sprintf("Hello %s, your recovery code is: %s", user.Name, code),
	}

	// No retries here: a failed delivery leaves the stored code valid and the
	// caller decides whether to re-issue.
	if err := e.sender.Send(ctx, msg, provider); err != nil {
		e.metricInc(MetricIssueFailure)
		e.metricInc(MetricEmailSendFailure)
		e.emitAudit(ctx, auditEventRecoveryIssue, false, user.UserID, projectKey, ErrEmailDeliveryFailed, func() map[string]string {
			return map[string]string{"provider": string(provider)}
		})
		return fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}

	e.metricInc(MetricIssueSuccess)
	e.emitAudit(ctx, auditEventRecoveryIssue, true, user.UserID, projectKey, nil, func() map[string]string {
		return map[string]string{"provider": string(provider)}
	})

	return nil
}

// Consume redeems a recovery code for userID and sets newPassword as the
// user's credential.
//
// A malformed newPassword fails before the cache is touched; the pending code
// stays redeemable. An absent, expired, or mismatched code fails with
// [ErrCodeInvalid] — the three causes are indistinguishable. The moment the
// code matches it is atomically deleted, so every outcome past that point
// (confirmation mismatch included) leaves the code spent.
func (e *Engine) Consume(ctx context.Context, userID, code, newPassword, confirmPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if !e.config.Recovery.Enabled {
		return ErrRecoveryDisabled
	}

	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.Observe(MetricConsumeLatency, time.Since(start))
		}
	}()

	ip := clientIPFromContext(ctx)
	if err := e.limiter.CheckConsume(ctx, "", userID, ip); err != nil {
		mapped := mapLimiterError(err)
		if errors.Is(mapped, ErrRecoveryRateLimited) {
			e.metricInc(MetricConsumeRateLimited)
			e.emitRateLimit(ctx, "recovery_consume", "", func() map[string]string {
				return map[string]string{"user_id": userID}
			})
		}
		e.emitAudit(ctx, auditEventRecoveryConsume, false, userID, "", mapped, nil)
		return mapped
	}

	if !e.validator.IsValidPassword(newPassword) {
		e.metricInc(MetricConsumeFailure)
		e.emitAudit(ctx, auditEventRecoveryConsume, false, userID, "", ErrPasswordPolicy, nil)
		return ErrPasswordPolicy
	}

	rec, err := e.codeStore.Consume(ctx, userID, internal.HashCode(code))
	if err != nil {
		switch {
		case errors.Is(err, ErrCodeNotFound), errors.Is(err, ErrCodeMismatch):
			e.metricInc(MetricConsumeFailure)
			e.metricInc(MetricConsumeReplay)
			e.emitAudit(ctx, auditEventRecoveryReplay, false, userID, "", ErrCodeInvalid, nil)
			return ErrCodeInvalid
		default:
			e.metricInc(MetricConsumeFailure)
			e.emitAudit(ctx, auditEventRecoveryConsume, false, userID, "", ErrRecoveryUnavailable, nil)
			return fmt.Errorf("%w: %v", ErrRecoveryUnavailable, err)
		}
	}

	// The code is spent at this point regardless of how the rest goes.
	if newPassword != confirmPassword {
		e.metricInc(MetricConsumeFailure)
		e.emitAudit(ctx, auditEventRecoveryConsume, false, userID, rec.ProjectKey, ErrConfirmMismatch, nil)
		return ErrConfirmMismatch
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		e.metricInc(MetricConsumeFailure)
		e.emitAudit(ctx, auditEventRecoveryConsume, false, userID, rec.ProjectKey, ErrRecoveryUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrRecoveryUnavailable, err)
	}

	if err := e.provider.UpdatePasswordHash(ctx, userID, hash); err != nil {
		e.metricInc(MetricConsumeFailure)
		e.emitAudit(ctx, auditEventRecoveryConsume, false, userID, rec.ProjectKey, ErrRecoveryUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrRecoveryUnavailable, err)
	}

	e.metricInc(MetricConsumeSuccess)
	e.emitAudit(ctx, auditEventRecoveryConsume, true, userID, rec.ProjectKey, nil, nil)

	return nil
}

func (e *Engine) failIssueNotFound(ctx context.Context, projectKey, reason string) error {
	// Random delay keeps lookup misses from being timing-distinguishable from
	// the validation-only path.
	_ = sleepEnumerationDelay(ctx)
	e.metricInc(MetricIssueFailure)
	e.emitAudit(ctx, auditEventRecoveryIssue, false, "", projectKey, ErrUserNotFound, func() map[string]string {
		return map[string]string{"reason": reason}
	})
	return ErrUserNotFound
}

func mapLimiterError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, limiters.ErrRecoveryRateLimited):
		return ErrRecoveryRateLimited
	default:
		return fmt.Errorf("%w: %v", ErrRecoveryUnavailable, err)
	}
}

func sleepEnumerationDelay(ctx context.Context) error {
	minMs := int64(20)
	maxMs := int64(40)
	span := maxMs - minMs + 1

	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return err
	}

	delay := time.Duration(minMs+n.Int64()) * time.Millisecond
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
