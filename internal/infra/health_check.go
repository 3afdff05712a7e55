package infra

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

const DefaultExecCheckInterval = 5 * time.Second

type fileStamp struct {
	size    int64
	modTime time.Time
}

func stampOf(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{size: info.Size(), modTime: info.ModTime()}, nil
}

// MonitorExecutable signals once when the running binary is replaced on disk.
func MonitorExecutable(ctx context.Context, interval time.Duration) <-chan struct{} {
	path, err := os.Executable()
	if err != nil {
		log.WithField("object", "ExecutableMonitor").WithField("error", err.Error()).Warn("cant resolve executable path")
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return WatchFile(ctx, path, interval)
}

// WatchFile polls path and sends once when its size or modification time changes.
// The channel is closed without a value if ctx ends or the file cannot be stat'ed initially.
func WatchFile(ctx context.Context, path string, interval time.Duration) <-chan struct{} {
	ch := make(chan struct{}, 1)
	entry := log.WithFields(log.Fields{"object": "FileWatcher", "path": path})
	go func() {
		defer close(ch)

		original, err := stampOf(path)
		if err != nil {
			entry.WithField("error", err.Error()).Warn("cant stat watched file")
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				current, err := stampOf(path)
				if err != nil {
					entry.WithField("error", err.Error()).Debug("stat failed, retrying")
					continue
				}
				if current != original {
					entry.Info("watched file changed")
					ch <- struct{}{}
					return
				}
			}
		}
	}()
	return ch
}
