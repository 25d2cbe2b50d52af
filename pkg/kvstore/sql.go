package kvstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry 对应 kv_store 表的一行，Version 每次写入递增，作为 CAS 条件
type Entry struct {
	Key       string `gorm:"column:kv_key;primaryKey;size:255"`
	Value     []byte `gorm:"column:kv_value;not null"`
	Version   int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (Entry) TableName() string {
	return "kv_store"
}

// SQLStore 基于 gorm 的键值表，支持 mysql / postgres / sqlite
type SQLStore struct {
	DB   *gorm.DB
	opts options
}

func NewSQLStore(db *gorm.DB, opts ...Option) (*SQLStore, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &SQLStore{DB: db, opts: buildOptions(opts)}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e Entry
	err := s.DB.WithContext(ctx).Where("kv_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	now := time.Now()
	e := Entry{Key: key, Value: value, Version: 1, UpdatedAt: now}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"kv_value":   value,
			"version":    gorm.Expr("kv_store.version + 1"),
			"updated_at": now,
		}),
	}).Create(&e).Error
}

// Insert 依赖主键冲突时 DO NOTHING，受影响行数为 0 即已存在
func (s *SQLStore) Insert(ctx context.Context, key string, value []byte) error {
	e := Entry{Key: key, Value: value, Version: 1, UpdatedAt: time.Now()}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&e)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrExists
	}
	return nil
}

func (s *SQLStore) GetByPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	var entries []Entry
	err := s.DB.WithContext(ctx).
		Where("kv_key LIKE ? ESCAPE '!'", escapeLike(prefix)+"%").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	out := make([][]byte, 0, len(entries))
	for _, e := range entries {
		// sqlite 的 LIKE 不区分大小写，这里再精确过滤一次
		if strings.HasPrefix(e.Key, prefix) {
			out = append(out, e.Value)
		}
	}
	return out, nil
}

// Update 读取当前版本，仅当版本未变时写入
func (s *SQLStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	db := s.DB.WithContext(ctx)

	for i := 0; i < s.opts.maxRetries; i++ {
		var e Entry
		err := db.Where("kv_key = ?", key).Take(&e).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		next, err := fn(e.Value)
		if err != nil {
			return err
		}

		res := db.Model(&Entry{}).
			Where("kv_key = ? AND version = ?", key, e.Version).
			Updates(map[string]interface{}{
				"kv_value":   next,
				"version":    e.Version + 1,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
		s.opts.conflict(key)
	}
	return ErrConflict
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
