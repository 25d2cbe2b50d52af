// Package kvstore 提供键值存储抽象：get / set / 前缀查询，以及基于版本的原子更新。
package kvstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("kvstore: key not found")
	// ErrConflict 表示原子更新在重试次数内仍未成功
	ErrConflict = errors.New("kvstore: update conflict")
	ErrExists   = errors.New("kvstore: key already exists")
)

// DefaultMaxRetries 是 Update 的默认重试次数
const DefaultMaxRetries = 10

// UpdateFunc 接收当前值，返回新值。返回错误时更新被放弃。
type UpdateFunc func(current []byte) ([]byte, error)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Insert 仅在 key 不存在时写入，否则返回 ErrExists
	Insert(ctx context.Context, key string, value []byte) error
	// GetByPrefix 返回所有以 prefix 开头的键对应的值，顺序不保证
	GetByPrefix(ctx context.Context, prefix string) ([][]byte, error)
	// Update 对已存在的 key 执行读-改-写，写入只在读取后未被修改时生效，冲突时重新读取并重试。
	// key 不存在时返回 ErrNotFound。
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Ping(ctx context.Context) error
	Close() error
}

// ConflictObserver 在每次 CAS 冲突时被调用，用于监控
type ConflictObserver func(key string)

type options struct {
	maxRetries int
	onConflict ConflictObserver
}

type Option func(*options)

func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}

func WithConflictObserver(fn ConflictObserver) Option {
	return func(o *options) {
		o.onConflict = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{maxRetries: DefaultMaxRetries}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) conflict(key string) {
	if o.onConflict != nil {
		o.onConflict(key)
	}
}
