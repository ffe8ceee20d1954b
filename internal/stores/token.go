package stores

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenRecordVersionV1 = 1

var (
	ErrTokenNotFound         = errors.New("token record not found")
	ErrTokenSecretMismatch   = errors.New("token secret mismatch")
	ErrTokenAttemptsExceeded = errors.New("token attempts exceeded")
	ErrTokenRedisUnavailable = errors.New("token redis unavailable")
)

// TokenRecord is the server-side half of a single-use challenge token.
// Only the SHA-256 of the secret is stored; the raw secret travels to the
// user once, inside the emailed link, and is never persisted.
type TokenRecord struct {
	UserID     string
	Purpose    uint8
	SecretHash [32]byte
	ExpiresAt  int64
	Attempts   uint16
}

// TokenStore keeps outstanding challenge tokens in Redis, one per
// (purpose, user). Saving a new record for the same pair replaces the
// previous one, so only the most recently issued token can succeed.
type TokenStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewTokenStore(redisClient redis.UniversalClient, prefix string) *TokenStore {
	if prefix == "" {
		prefix = "atk"
	}
	return &TokenStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *TokenStore) key(purpose uint8, userID string) string {
	return s.prefix + ":" + strconv.Itoa(int(purpose)) + ":" + userID
}

// Save persists a token record with the given TTL, replacing any
// outstanding token for the same (purpose, user).
func (s *TokenStore) Save(ctx context.Context, record *TokenRecord, ttl time.Duration) error {
	encoded, err := encodeTokenRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(record.Purpose, record.UserID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenRedisUnavailable, err)
	}

	return nil
}

// Consume atomically validates and invalidates the outstanding token for
// (purpose, userID). On a hash match the record is deleted so a second
// presentation of the same token always fails. On a mismatch the attempt
// counter is advanced and the record is destroyed once maxAttempts is
// reached. The check-then-invalidate is a WATCH transaction; concurrent
// consumers race on the key and exactly one wins.
func (s *TokenStore) Consume(
	ctx context.Context,
	purpose uint8,
	userID string,
	providedHash [32]byte,
	maxAttempts int,
) (*TokenRecord, error) {
	const maxRetries = 4
	key := s.key(purpose, userID)

	for i := 0; i < maxRetries; i++ {
		var matched *TokenRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeTokenRecord(data)
			if err != nil {
				return err
			}

			now := time.Now()
			if now.Unix() > record.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrTokenNotFound
			}

			if record.Purpose != purpose || record.UserID != userID {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrTokenSecretMismatch
			}

			if subtle.ConstantTimeCompare(record.SecretHash[:], providedHash[:]) != 1 {
				record.Attempts++
				if int(record.Attempts) >= maxAttempts {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					return ErrTokenAttemptsExceeded
				}

				ttl := time.Until(time.Unix(record.ExpiresAt, 0))
				if ttl <= 0 {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					return ErrTokenNotFound
				}

				updated, err := encodeTokenRecord(record)
				if err != nil {
					return err
				}

				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrTokenSecretMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}

			matched = record
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return nil, ErrTokenNotFound
			case errors.Is(err, ErrTokenNotFound), errors.Is(err, ErrTokenSecretMismatch), errors.Is(err, ErrTokenAttemptsExceeded):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %v", ErrTokenRedisUnavailable, err)
			}
		}

		return matched, nil
	}

	return nil, ErrTokenNotFound
}

// Get fetches the outstanding record without consuming it.
func (s *TokenStore) Get(ctx context.Context, purpose uint8, userID string) (*TokenRecord, error) {
	data, err := s.redis.Get(ctx, s.key(purpose, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenRedisUnavailable, err)
	}

	record, err := decodeTokenRecord(data)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() > record.ExpiresAt {
		return nil, ErrTokenNotFound
	}

	return record, nil
}

// Delete drops the outstanding record, if any.
func (s *TokenStore) Delete(ctx context.Context, purpose uint8, userID string) error {
	if err := s.redis.Del(ctx, s.key(purpose, userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenRedisUnavailable, err)
	}
	return nil
}

func encodeTokenRecord(record *TokenRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(tokenRecordVersionV1)
	buf.WriteByte(record.Purpose)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.UserID) > 65535 {
		return nil, errors.New("token record user id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.UserID)
	buf.Write(record.SecretHash[:])

	return buf.Bytes(), nil
}

func decodeTokenRecord(data []byte) (*TokenRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != tokenRecordVersionV1 {
		return nil, errors.New("invalid token record version")
	}

	purpose, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &TokenRecord{Purpose: purpose}

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var userIDLen uint16
	if err := binary.Read(reader, binary.BigEndian, &userIDLen); err != nil {
		return nil, err
	}

	userID := make([]byte, userIDLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	record.UserID = string(userID)

	if _, err := io.ReadFull(reader, record.SecretHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
