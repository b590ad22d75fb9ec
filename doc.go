// Package goRecover provides an account-recovery engine built around short-lived,
// single-use recovery codes: a caller requests recovery for a user, the engine
// stores a code in a Redis-backed cache and mails it out through a resolved
// provider, and the user redeems the code exactly once to set a new password.
//
// The package is designed for concurrent server workloads: Engine methods are safe
// to call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goRecover is the public surface. It exposes [Engine], [Builder], [Config], the
// capability interfaces ([UserProvider], [CodeStore], [CodeGenerator],
// [CredentialValidator], [PasswordHasher]) and value types. Throttling lives under
// internal/ and is never exported; email delivery and provider resolution live in
// the email subpackage, argon2 hashing in password, and credential format rules
// in validate.
//
// # What this package must NOT do
//
//   - Expose Redis encoding details or cache key layout in its public API.
//   - Retry failed deliveries or roll back stored codes; a stored-but-undelivered
//     code is recovered from by re-issuing, which overwrites.
//   - Report whether an Issue failure came from a malformed address, a malformed
//     project key, or a missing user. All three surface as [ErrUserNotFound].
//
// # Consumption contract
//
// Consume is the sensitive path. The cache entry is consumed atomically at the
// moment the presented code matches the stored one, so two concurrent redemptions
// of the same code cannot both succeed, and every failure past the match point
// (including a mismatched password confirmation) leaves the code unusable.
package goRecover
