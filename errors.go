package goRecover

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called before the
	// engine was fully constructed through [Builder.Build].
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrRecoveryDisabled is returned when recovery has been switched off in
	// [RecoveryConfig].
	ErrRecoveryDisabled = errors.New("recovery disabled")

	// ErrUserNotFound covers every Issue-time miss: malformed email, malformed
	// project key, and an actual lookup miss. The causes are deliberately
	// indistinguishable.
	ErrUserNotFound = errors.New("user not found")
	// ErrCodeInvalid covers every Consume-time code failure: never issued,
	// expired, and wrong code. The causes are deliberately indistinguishable.
	ErrCodeInvalid = errors.New("invalid code or expired")

	// ErrPasswordAuthNotConfigured is returned by Issue for users without a
	// stored password hash; there is no password-based recovery path for them.
	ErrPasswordAuthNotConfigured = errors.New("password authentication not configured")
	// ErrPasswordPolicy is returned by Consume when the new password fails
	// format validation. The cache entry is not touched.
	ErrPasswordPolicy = errors.New("invalid password format")
	// ErrConfirmMismatch is returned by Consume when the confirmation does not
	// match the new password. The code has already been consumed at that point;
	// the user must request a new one.
	ErrConfirmMismatch = errors.New("password confirmation mismatch")

	// ErrRecoveryUnavailable wraps infrastructure failures: cache writes, code
	// generation, hashing, and password persistence.
	ErrRecoveryUnavailable = errors.New("recovery backend unavailable")
	// ErrSenderIdentityMissing is returned by Issue when no outbound sender
	// identity is configured. The code has already been stored when it fires.
	ErrSenderIdentityMissing = errors.New("outbound sender identity not configured")
	// ErrProviderUnresolved is returned by Issue when the user's email domain
	// maps to no delivery provider. Operational misconfiguration, not user error.
	ErrProviderUnresolved = errors.New("unable to resolve email provider")
	// ErrEmailDeliveryFailed wraps sender failures. The stored code stays valid;
	// re-issuing overwrites it.
	ErrEmailDeliveryFailed = errors.New("recovery email delivery failed")

	// ErrRecoveryRateLimited is returned when the optional issue/consume
	// throttles reject a request.
	ErrRecoveryRateLimited = errors.New("recovery rate limited")
)

// Sentinels of the [CodeStore] contract. Custom store implementations must
// return these (possibly wrapped) so the engine can classify failures.
var (
	// ErrCodeNotFound reports an absent or expired cache entry.
	ErrCodeNotFound = errors.New("recovery code not found")
	// ErrCodeMismatch reports a present entry whose code does not match the
	// presented one. The entry is left in place.
	ErrCodeMismatch = errors.New("recovery code mismatch")
	// ErrStoreUnavailable reports a store infrastructure failure.
	ErrStoreUnavailable = errors.New("recovery store unavailable")
)

// ErrorKind buckets engine errors the way a transport layer would map them to
// status codes.
type ErrorKind uint8

const (
	// KindUnknown marks errors that did not originate in this package.
	KindUnknown ErrorKind = iota
	// KindNotFound marks enumeration-resistant misses (HTTP 404).
	KindNotFound
	// KindBadRequest marks malformed caller input (HTTP 400).
	KindBadRequest
	// KindRateLimited marks throttle rejections (HTTP 429).
	KindRateLimited
	// KindInternal marks infrastructure and configuration failures (HTTP 5xx).
	KindInternal
)

// Kind classifies err into the engine's error taxonomy. Wrapped sentinels are
// recognized through errors.Is.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrCodeInvalid):
		return KindNotFound
	case errors.Is(err, ErrPasswordAuthNotConfigured),
		errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrConfirmMismatch):
		return KindBadRequest
	case errors.Is(err, ErrRecoveryRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrRecoveryUnavailable),
		errors.Is(err, ErrSenderIdentityMissing),
		errors.Is(err, ErrProviderUnresolved),
		errors.Is(err, ErrEmailDeliveryFailed),
		errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrRecoveryDisabled),
		errors.Is(err, ErrEngineNotReady):
		return KindInternal
	default:
		return KindUnknown
	}
}
