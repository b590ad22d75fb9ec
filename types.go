package goRecover

import (
	"context"
	"time"
)

// UserRecord is the account record consumed by the engine. Everything except
// the password hash is read-only here; an empty PasswordHash means the account
// has no password-based recovery path.
type UserRecord struct {
	UserID       string
	Name         string
	Email        string
	ProjectKey   string
	Scopes       []string
	Active       bool
	PasswordHash string
}

// UserDirectory looks a user up by credentials. Implementations must return
// [ErrUserNotFound] (possibly wrapped) when no user matches.
type UserDirectory interface {
	FindByCredentials(ctx context.Context, email, projectKey string) (UserRecord, error)
}

// UserRepository persists the single mutation this engine performs: replacing
// a user's password hash.
type UserRepository interface {
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
}

// UserProvider is the interface callers implement to integrate goRecover with
// their user database. It is the union of [UserDirectory] and [UserRepository];
// both halves may be backed by the same table or by separate services.
type UserProvider interface {
	UserDirectory
	UserRepository
}

// CredentialValidator holds the pure format predicates the engine consults
// before touching any backend. The default implementation lives in the
// validate subpackage.
type CredentialValidator interface {
	IsValidEmail(email string) bool
	IsValidProjectKey(projectKey string) bool
	IsValidPassword(password string) bool
}

// PasswordHasher produces the one-way hash persisted on successful recovery.
// The default implementation is argon2id from the password subpackage.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// CodeGenerator produces recovery code strings. Implementations must draw from
// crypto-grade randomness; the configured strategy decides length and alphabet.
type CodeGenerator interface {
	Generate() (string, error)
}

// CodeRecord is the engine's own entity: the pending recovery code for one
// user. The plaintext code is never stored; CodeHash is its SHA-256.
type CodeRecord struct {
	CodeHash   [32]byte
	ProjectKey string
	IssuedAt   int64
	ExpiresAt  int64
}

// CodeStore is the cache contract behind the engine. At most one record exists
// per user ID; Set overwrites unconditionally and entries expire on their own
// after the TTL given at Set time.
//
// Consume is the hardening point of the whole package: it must atomically
// compare codeHash against the stored record and delete the record only on a
// match, returning [ErrCodeMismatch] (entry kept) or [ErrCodeNotFound] (absent
// or expired) otherwise. A plain Get-then-Delete sequence would allow the same
// code to be spent twice under concurrency.
type CodeStore interface {
	Set(ctx context.Context, userID string, rec CodeRecord, ttl time.Duration) error
	Get(ctx context.Context, userID string) (CodeRecord, error)
	Delete(ctx context.Context, userIDs ...string) error
	Consume(ctx context.Context, userID string, codeHash [32]byte) (CodeRecord, error)
}
