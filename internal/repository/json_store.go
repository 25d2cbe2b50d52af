package repository

import (
	"context"
	"encoding/json"
	"errors"
	"lingua_backend/pkg/kvstore"
	"time"
)

// maxKeyBumps 同一毫秒内重复生成时，时间戳后移的最大次数
const maxKeyBumps = 10

func getJSON[T any](ctx context.Context, s kvstore.Store, key string) (*T, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func setJSON(ctx context.Context, s kvstore.Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw)
}

// updateJSON 在 CAS 闭包内解码、修改、编码。冲突重试时 fn 会被再次调用，必须只依赖传入的值。
func updateJSON[T any](ctx context.Context, s kvstore.Store, key string, fn func(*T) error) (*T, error) {
	var out T
	err := s.Update(ctx, key, func(current []byte) ([]byte, error) {
		var v T
		if err := json.Unmarshal(current, &v); err != nil {
			return nil, err
		}
		if err := fn(&v); err != nil {
			return nil, err
		}
		out = v
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func listJSON[T any](ctx context.Context, s kvstore.Store, prefix string) ([]T, error) {
	raws, err := s.GetByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// insertTimestamped 以时间戳为键插入新记录，键已存在时把时间后移 1ms 重试。
// 返回实际使用的键，stamp 会被更新为对应时间。
func insertTimestamped(ctx context.Context, s kvstore.Store, stamp *time.Time, key func(time.Time) string, v interface{}) (string, error) {
	for i := 0; i < maxKeyBumps; i++ {
		raw, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		k := key(*stamp)
		err = s.Insert(ctx, k, raw)
		if err == nil {
			return k, nil
		}
		if !errors.Is(err, kvstore.ErrExists) {
			return "", err
		}
		*stamp = stamp.Add(time.Millisecond)
	}
	return "", kvstore.ErrExists
}
