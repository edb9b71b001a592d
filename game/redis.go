package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v7"
)

// RedisStore shares Info between replicas. The game record lives at
// game:<id> and its players in the hash game:<id>:users, one field per
// username. Both expire after ttl so abandoned games do not pile up.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(gameID string) string {
	return fmt.Sprintf("game:%s", gameID)
}

func usersKey(gameID string) string {
	return fmt.Sprintf("game:%s:users", gameID)
}

func (s *RedisStore) Get(ctx context.Context, gameID string) (*Info, error) {
	b, err := s.client.Get(redisKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", gameID, err)
	}
	info := new(Info)
	if err := json.Unmarshal(b, info); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", gameID, err)
	}
	users, err := s.client.HGetAll(usersKey(gameID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get players of game %s: %w", gameID, err)
	}
	info.Users = make(map[string]Player, len(users))
	for name, v := range users {
		var p Player
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return nil, fmt.Errorf("decode player %s of game %s: %w", name, gameID, err)
		}
		info.Users[name] = p
	}
	return info, nil
}

// Put writes the game record and adds its players. Players already in the
// hash are never removed.
func (s *RedisStore) Put(ctx context.Context, info *Info) error {
	record := *info
	record.Users = nil
	b, err := json.Marshal(&record)
	if err != nil {
		return err
	}
	fields, err := playerFields(info.Users)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(redisKey(info.GameID), b, s.ttl)
	if len(fields) > 0 {
		pipe.HSet(usersKey(info.GameID), fields...)
		s.expire(pipe, usersKey(info.GameID))
	}
	if _, err := pipe.Exec(); err != nil {
		return fmt.Errorf("put game %s: %w", info.GameID, err)
	}
	return nil
}

func (s *RedisStore) AddPlayer(ctx context.Context, gameID, username string, p Player) error {
	n, err := s.client.Exists(redisKey(gameID)).Result()
	if err != nil {
		return fmt.Errorf("add player %s to game %s: %w", username, gameID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	fields, err := playerFields(map[string]Player{username: p})
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(usersKey(gameID), fields...)
	s.expire(pipe, usersKey(gameID))
	if _, err := pipe.Exec(); err != nil {
		return fmt.Errorf("add player %s to game %s: %w", username, gameID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, gameID string) error {
	return s.client.Del(redisKey(gameID), usersKey(gameID)).Err()
}

func (s *RedisStore) expire(pipe redis.Pipeliner, key string) {
	if s.ttl > 0 {
		pipe.Expire(key, s.ttl)
	}
}

func playerFields(users map[string]Player) ([]interface{}, error) {
	fields := make([]interface{}, 0, 2*len(users))
	for name, p := range users {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		fields = append(fields, name, string(b))
	}
	return fields, nil
}
