package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"lingua_backend/internal/config"
	"lingua_backend/internal/model"
	"lingua_backend/internal/util"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageProvider 定义归档存储接口
type StorageProvider interface {
	Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
	GetURL(name string) string
}

// LocalStorageProvider 本地目录存储
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Config.LocalPath, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return p.GetURL(name), nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, name string) error {
	return os.Remove(filepath.Join(p.Config.LocalPath, filepath.FromSlash(name)))
}

func (p *LocalStorageProvider) GetURL(name string) string {
	return "file://" + filepath.ToSlash(filepath.Join(p.Config.LocalPath, name))
}

// MinioStorageProvider MinIO / S3 兼容存储
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

// EnsureBucket 桶不存在时创建
func (p *MinioStorageProvider) EnsureBucket(ctx context.Context) error {
	exists, err := p.Client.BucketExists(ctx, p.Config.MinioBucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.Client.MakeBucket(ctx, p.Config.MinioBucket, minio.MakeBucketOptions{})
}

func (p *MinioStorageProvider) Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, name, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(name), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, name string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, name, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) GetURL(name string) string {
	return "/" + p.Config.MinioBucket + "/" + name
}

// ArchiveService 把生成的课程另存一份 JSON，Provider 为 nil 时不归档
type ArchiveService struct {
	Provider StorageProvider
}

func NewArchiveService(ctx context.Context, cfg *config.StorageConfig) (*ArchiveService, error) {
	switch cfg.Type {
	case util.StorageLocal:
		return &ArchiveService{Provider: &LocalStorageProvider{Config: cfg}}, nil
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(cfg)
		if err != nil {
			return nil, err
		}
		if err := p.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("prepare bucket %s: %w", cfg.MinioBucket, err)
		}
		return &ArchiveService{Provider: p}, nil
	default:
		return &ArchiveService{}, nil
	}
}

func (s *ArchiveService) Enabled() bool {
	return s != nil && s.Provider != nil
}

// ObjectName 课程归档路径 lessons/<userId>/<unixMillis>.json
func ObjectName(lesson *model.Lesson) string {
	return fmt.Sprintf("lessons/%s/%d.json", lesson.UserID, lesson.CreatedAt.UnixMilli())
}

func (s *ArchiveService) ArchiveLesson(ctx context.Context, lessonID string, lesson *model.Lesson) (string, error) {
	if !s.Enabled() {
		return "", nil
	}

	doc := struct {
		LessonID string `json:"lessonId"`
		*model.Lesson
	}{lessonID, lesson}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return s.Provider.Upload(ctx, ObjectName(lesson), bytes.NewReader(data), int64(len(data)), "application/json")
}
