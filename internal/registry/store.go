package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"convene/internal/models"
)

// ErrSessionNotFound means no record exists for the session id or join code.
var ErrSessionNotFound = errors.New("session not found")

const (
	sessionKeyPrefix  = "convene:session:"
	joinCodeKeyPrefix = "convene:join:"
	updatesChannel    = "convene:session-updates"
)

// RedisStore persists session records as JSON values with last-write-wins
// semantics and publishes every mutation on a pub/sub channel so subscribers
// see the full updated record without polling.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Entry
}

func NewRedisStore(client *redis.Client, ttl time.Duration, log *logrus.Entry) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, log: log}
}

func sessionKey(id string) string    { return sessionKeyPrefix + id }
func joinCodeKey(code string) string { return joinCodeKeyPrefix + code }

// Put writes the record and notifies subscribers.
func (s *RedisStore) Put(ctx context.Context, rec *models.SessionRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", rec.SessionID, err)
	}
	if err := s.client.Set(ctx, sessionKey(rec.SessionID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("write session %s: %w", rec.SessionID, err)
	}
	if rec.JoinCode != "" {
		if err := s.client.Set(ctx, joinCodeKey(rec.JoinCode), rec.SessionID, s.ttl).Err(); err != nil {
			return fmt.Errorf("write join code for session %s: %w", rec.SessionID, err)
		}
	}
	s.publish(ctx, b)
	return nil
}

// Get reads and validates a record.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	b, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	var rec models.SessionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByJoinCode resolves a join code to its session record.
func (s *RedisStore) GetByJoinCode(ctx context.Context, code string) (*models.SessionRecord, error) {
	id, err := s.client.Get(ctx, joinCodeKey(code)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve join code %s: %w", code, err)
	}
	return s.Get(ctx, id)
}

// Delete removes the record and its join code, then publishes the final
// record state so subscribers learn the session ended.
func (s *RedisStore) Delete(ctx context.Context, rec *models.SessionRecord) error {
	keys := []string{sessionKey(rec.SessionID)}
	if rec.JoinCode != "" {
		keys = append(keys, joinCodeKey(rec.JoinCode))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", rec.SessionID, err)
	}
	if b, err := json.Marshal(rec); err == nil {
		s.publish(ctx, b)
	}
	return nil
}

func (s *RedisStore) publish(ctx context.Context, payload []byte) {
	if err := s.client.Publish(ctx, updatesChannel, payload).Err(); err != nil {
		s.log.WithError(err).Warn("publish session update failed")
	}
}

// Subscribe streams every session mutation until ctx is done. Each message
// carries the full updated record.
func (s *RedisStore) Subscribe(ctx context.Context) (<-chan *models.SessionRecord, error) {
	sub := s.client.Subscribe(ctx, updatesChannel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribe session updates: %w", err)
	}
	out := make(chan *models.SessionRecord)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var rec models.SessionRecord
				if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
					s.log.WithError(err).Warn("dropping malformed session update")
					continue
				}
				select {
				case out <- &rec:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
