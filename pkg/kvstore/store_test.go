package kvstore

import (
	"context"
	"errors"
	"os"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteStore(t *testing.T, opts ...Option) *SQLStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 内存库每个连接独立，限制为单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s, err := NewSQLStore(db, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type storeFactory func(t *testing.T) Store

func factories() map[string]storeFactory {
	f := map[string]storeFactory{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return newSQLiteStore(t, WithMaxRetries(1000)) },
	}
	// 设置 REDIS_ADDR 时才运行 redis 集成测试
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		f["redis"] = func(t *testing.T) Store {
			rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
			require.NoError(t, rdb.FlushDB(context.Background()).Err())
			return NewRedisStore(rdb, WithMaxRetries(1000))
		}
	}
	return f
}

func TestStore_GetSet(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, err := s.Get(ctx, "profile:missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "profile:u1", []byte(`{"a":1}`)))
			got, err := s.Get(ctx, "profile:u1")
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":1}`, string(got))

			require.NoError(t, s.Set(ctx, "profile:u1", []byte(`{"a":2}`)))
			got, err = s.Get(ctx, "profile:u1")
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":2}`, string(got))
		})
	}
}

func TestStore_InsertOnlyWhenAbsent(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			require.NoError(t, s.Insert(ctx, "auth_user:ana@example.com", []byte(`"first"`)))
			err := s.Insert(ctx, "auth_user:ana@example.com", []byte(`"second"`))
			assert.ErrorIs(t, err, ErrExists)

			got, err := s.Get(ctx, "auth_user:ana@example.com")
			require.NoError(t, err)
			assert.Equal(t, `"first"`, string(got))
		})
	}
}

func TestStore_GetByPrefix(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			require.NoError(t, s.Set(ctx, "quiz_result:u1:1", []byte(`1`)))
			require.NoError(t, s.Set(ctx, "quiz_result:u1:2", []byte(`2`)))
			require.NoError(t, s.Set(ctx, "quiz_result:u10:3", []byte(`3`)))
			require.NoError(t, s.Set(ctx, "quiz_result:u_1:4", []byte(`4`)))
			require.NoError(t, s.Set(ctx, "lesson:u1:5", []byte(`5`)))

			vals, err := s.GetByPrefix(ctx, "quiz_result:u1:")
			require.NoError(t, err)

			var got []string
			for _, v := range vals {
				got = append(got, string(v))
			}
			sort.Strings(got)
			assert.Equal(t, []string{"1", "2"}, got)

			vals, err = s.GetByPrefix(ctx, "nothing:")
			require.NoError(t, err)
			assert.Empty(t, vals)
		})
	}
}

func TestStore_UpdateMissingKey(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			err := s.Update(context.Background(), "progress:none", func(b []byte) ([]byte, error) {
				t.Fatal("fn must not run for a missing key")
				return b, nil
			})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_UpdateAbortsOnFnError(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			require.NoError(t, s.Set(ctx, "k", []byte("0")))

			boom := errors.New("boom")
			err := s.Update(ctx, "k", func(b []byte) ([]byte, error) {
				return []byte("1"), boom
			})
			assert.ErrorIs(t, err, boom)

			got, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "0", string(got))
		})
	}
}

func TestStore_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			require.NoError(t, s.Set(ctx, "counter", []byte("0")))

			const workers = 20
			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- s.Update(ctx, "counter", func(b []byte) ([]byte, error) {
						n, err := strconv.Atoi(string(b))
						if err != nil {
							return nil, err
						}
						return []byte(strconv.Itoa(n + 1)), nil
					})
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			got, err := s.Get(ctx, "counter")
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(workers), string(got))
		})
	}
}

func TestSQLStore_ConflictObserverAndExhaustion(t *testing.T) {
	ctx := context.Background()
	var conflicts []string
	s := newSQLiteStore(t, WithMaxRetries(3), WithConflictObserver(func(key string) {
		conflicts = append(conflicts, key)
	}))
	require.NoError(t, s.Set(ctx, "k", []byte("0")))

	// 每次 fn 执行时都从外部改写，制造持续冲突
	err := s.Update(ctx, "k", func(b []byte) ([]byte, error) {
		require.NoError(t, s.Set(ctx, "k", []byte("x")))
		return []byte("mine"), nil
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, []string{"k", "k", "k"}, conflicts)
}

func TestEscapeHelpers(t *testing.T) {
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
	assert.Equal(t, "u!_1!%!!", escapeLike("u_1%!"))
}
