package kvstore

import (
	"context"
	"errors"
	"strings"

	"github.com/go-redis/redis/v8"
)

const scanBatch = 200

type RedisStore struct {
	Redis *redis.Client
	opts  options
}

func NewRedisStore(rdb *redis.Client, opts ...Option) *RedisStore {
	return &RedisStore{Redis: rdb, opts: buildOptions(opts)}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.Redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.Redis.Set(ctx, key, value, 0).Err()
}

func (s *RedisStore) Insert(ctx context.Context, key string, value []byte) error {
	ok, err := s.Redis.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrExists
	}
	return nil
}

// GetByPrefix 用 SCAN MATCH 遍历键，再分批 MGET
func (s *RedisStore) GetByPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	var keys []string
	iter := s.Redis.Scan(ctx, 0, escapeGlob(prefix)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	var out [][]byte
	for start := 0; start < len(keys); start += scanBatch {
		end := start + scanBatch
		if end > len(keys) {
			end = len(keys)
		}
		vals, err := s.Redis.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			// 扫描与读取之间被删除的键返回 nil
			if str, ok := v.(string); ok {
				out = append(out, []byte(str))
			}
		}
	}
	return out, nil
}

// Update 使用 WATCH/MULTI 乐观事务，键在读取后被修改时 EXEC 失败并重试
func (s *RedisStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < s.opts.maxRetries; i++ {
		err := s.Redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			s.opts.conflict(key)
			continue
		}
		return err
	}
	return ErrConflict
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Redis.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.Redis.Close()
}

// escapeGlob 转义 MATCH 模式中的特殊字符
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
