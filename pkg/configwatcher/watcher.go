package configwatcher

import (
	"context"
	"lingua_backend/internal/config"
	"lingua_backend/pkg/logger"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounce = time.Second

type ConfigReloader func(cfg *config.Config)

// Watcher 监听配置文件，变更后重新加载并依次调用回调
type Watcher struct {
	path string

	mu        sync.Mutex
	callbacks []ConfigReloader
}

func New(configPath string) *Watcher {
	return &Watcher{path: configPath}
}

func (w *Watcher) OnReload(fn ConfigReloader) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Run 阻塞直到 ctx 取消
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}

	// 监听目录：编辑器保存时常以重命名替换文件
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				// 防抖
				timer.Reset(debounce)
			}
		case <-timer.C:
			w.reload(absPath)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload(absPath string) {
	newCfg, err := config.LoadConfig(filepath.Dir(absPath))
	if err != nil {
		logger.Log.Error("Failed to reload config", zap.Error(err))
		return
	}

	w.mu.Lock()
	callbacks := append([]ConfigReloader(nil), w.callbacks...)
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn(newCfg)
	}
	logger.Log.Info("Config reloaded", zap.String("file", absPath))
}
