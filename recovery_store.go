package goRecover

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const codeRecordVersionV1 = 1

// redisCodeStore is the default [CodeStore]: one versioned binary record per
// user ID, retention enforced by the Redis TTL with a second check against the
// embedded expiry.
type redisCodeStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisCodeStore returns a [CodeStore] backed by client. All keys live
// under prefix.
func NewRedisCodeStore(client redis.UniversalClient, prefix string) CodeStore {
	return &redisCodeStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *redisCodeStore) key(userID string) string {
	return s.prefix + ":" + userID
}

// Set stores rec under userID for ttl, unconditionally replacing any pending
// record for that user.
func (s *redisCodeStore) Set(ctx context.Context, userID string, rec CodeRecord, ttl time.Duration) error {
	encoded, err := encodeCodeRecord(&rec)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(userID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Get returns the pending record for userID, or [ErrCodeNotFound] when none
// exists or the record has expired.
func (s *redisCodeStore) Get(ctx context.Context, userID string) (CodeRecord, error) {
	data, err := s.redis.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return CodeRecord{}, ErrCodeNotFound
		}
		return CodeRecord{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rec, err := decodeCodeRecord(data)
	if err != nil {
		return CodeRecord{}, err
	}
	if time.Now().Unix() > rec.ExpiresAt {
		return CodeRecord{}, ErrCodeNotFound
	}

	return *rec, nil
}

// Delete invalidates the pending records of the given users. Missing keys are
// not an error.
func (s *redisCodeStore) Delete(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, len(userIDs))
	for i, userID := range userIDs {
		keys[i] = s.key(userID)
	}

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Consume atomically redeems the record for userID. On a hash match the record
// is deleted inside the same transaction that read it, so concurrent consumers
// of one code cannot both observe a match. A mismatch leaves the record in
// place and returns [ErrCodeMismatch]; absent or expired records return
// [ErrCodeNotFound].
func (s *redisCodeStore) Consume(ctx context.Context, userID string, codeHash [32]byte) (CodeRecord, error) {
	const maxRetries = 4
	key := s.key(userID)

	for i := 0; i < maxRetries; i++ {
		var matched *CodeRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			rec, err := decodeCodeRecord(data)
			if err != nil {
				return err
			}

			if time.Now().Unix() > rec.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrCodeNotFound
			}

			if subtle.ConstantTimeCompare(rec.CodeHash[:], codeHash[:]) != 1 {
				return ErrCodeMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}

			matched = rec
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return CodeRecord{}, ErrCodeNotFound
			case errors.Is(err, ErrCodeNotFound), errors.Is(err, ErrCodeMismatch):
				return CodeRecord{}, err
			default:
				return CodeRecord{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		}

		return *matched, nil
	}

	return CodeRecord{}, ErrCodeNotFound
}

func encodeCodeRecord(rec *CodeRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(codeRecordVersionV1)

	if err := binary.Write(&buf, binary.BigEndian, rec.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, rec.ExpiresAt); err != nil {
		return nil, err
	}

	if len(rec.ProjectKey) > 65535 {
		return nil, errors.New("code record project key too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(rec.ProjectKey))); err != nil {
		return nil, err
	}
	buf.WriteString(rec.ProjectKey)
	buf.Write(rec.CodeHash[:])

	return buf.Bytes(), nil
}

func decodeCodeRecord(data []byte) (*CodeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != codeRecordVersionV1 {
		return nil, errors.New("invalid code record version")
	}

	rec := &CodeRecord{}

	if err := binary.Read(reader, binary.BigEndian, &rec.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &rec.ExpiresAt); err != nil {
		return nil, err
	}

	var projectKeyLen uint16
	if err := binary.Read(reader, binary.BigEndian, &projectKeyLen); err != nil {
		return nil, err
	}

	projectKey := make([]byte, projectKeyLen)
	if _, err := io.ReadFull(reader, projectKey); err != nil {
		return nil, err
	}
	rec.ProjectKey = string(projectKey)

	if _, err := io.ReadFull(reader, rec.CodeHash[:]); err != nil {
		return nil, err
	}

	return rec, nil
}
