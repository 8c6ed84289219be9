package logging

import (
	"fmt"
	"os"
	"sync"

	"chiptable/internal/config"
)

// rotatingFile appends to path until the next write would exceed maxBytes,
// then shifts path+".1".. path+".<backups-1>" up by one, moves the file to
// path+".1" and starts over.
type rotatingFile struct {
	path     string
	maxBytes int64
	backups  int

	mu   sync.Mutex
	file *os.File
	size int64
}

func openRotatingFile(cfg config.LogFileConfig) (*rotatingFile, error) {
	maxMB, backups := cfg.MaxMB, cfg.Backups
	if maxMB <= 0 {
		maxMB = 10
	}
	if backups < 1 {
		backups = 1
	}
	w := &rotatingFile{path: cfg.Path, maxBytes: int64(maxMB) * 1024 * 1024, backups: backups}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *rotatingFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}
	if w.size > 0 && w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *rotatingFile) rotate() error {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}
	for i := w.backups - 1; i >= 1; i-- {
		if err := os.Rename(w.backupPath(i), w.backupPath(i+1)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := os.Rename(w.path, w.backupPath(1)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return w.open()
}

func (w *rotatingFile) backupPath(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}

func (w *rotatingFile) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	w.file = f
	w.size = info.Size()
	return nil
}
