// Package archive keeps a rolling history of accepted save snapshots as
// zstd-compressed JSON, one directory per account. The write path is
// asynchronous and lossy under pressure; the SQLite row remains the source
// of truth.
package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"

	"ironvale.gg/internal/sim/player"
)

type Meta struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	SavedAt  string `json:"saved_at"`
}

type Entry struct {
	Meta     Meta            `json:"meta"`
	Snapshot player.Snapshot `json:"snapshot"`
}

// Writer archives snapshots off the request path. Entries beyond the channel
// buffer are dropped rather than stalling saves.
type Writer struct {
	dir    string
	keep   int
	logger *log.Logger

	ch     chan Entry
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool
}

func NewWriter(dir string, keep int, logger *log.Logger) *Writer {
	if keep <= 0 {
		keep = 20
	}
	w := &Writer{
		dir:    dir,
		keep:   keep,
		logger: logger,
		ch:     make(chan Entry, 256),
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop()
	}()
	return w
}

// Archive enqueues one snapshot. Non-blocking; a full queue drops the entry.
func (w *Writer) Archive(userID int64, username string, snap player.Snapshot) {
	if w == nil || w.closed.Load() {
		return
	}
	e := Entry{
		Meta: Meta{
			UserID:   userID,
			Username: username,
			SavedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		},
		Snapshot: snap,
	}
	select {
	case w.ch <- e:
	default:
	}
}

func (w *Writer) Close() error {
	w.once.Do(func() {
		w.closed.Store(true)
		close(w.ch)
		w.wg.Wait()
	})
	return nil
}

func (w *Writer) loop() {
	for e := range w.ch {
		dir := filepath.Join(w.dir, e.Meta.Username)
		path := filepath.Join(dir, fmt.Sprintf("save_%s.json.zst", time.Now().UTC().Format("20060102T150405.000000000")))
		if err := Write(path, e); err != nil {
			if w.logger != nil {
				w.logger.Printf("archive: write %s: %v", path, err)
			}
			continue
		}
		if err := prune(dir, w.keep); err != nil && w.logger != nil {
			w.logger.Printf("archive: prune %s: %v", dir, err)
		}
	}
}

// Write stores one entry at path as zstd-compressed JSON.
func Write(path string, e Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriter(enc)
	defer bw.Flush()

	if err := json.NewEncoder(bw).Encode(&e); err != nil {
		return fmt.Errorf("archive encode: %w", err)
	}
	return nil
}

// Read loads one archived entry, for restore/inspect tooling.
func Read(path string) (Entry, error) {
	var e Entry
	f, err := os.Open(path)
	if err != nil {
		return e, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return e, err
	}
	defer dec.Close()

	if err := json.NewDecoder(bufio.NewReader(dec)).Decode(&e); err != nil {
		return e, fmt.Errorf("archive decode: %w", err)
	}
	return e, nil
}

// List returns an account's archive paths, oldest first.
func List(dir, username string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, username, "save_*.json.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func prune(dir string, keep int) error {
	paths, err := filepath.Glob(filepath.Join(dir, "save_*.json.zst"))
	if err != nil {
		return err
	}
	sort.Strings(paths)
	for len(paths) > keep {
		if err := os.Remove(paths[0]); err != nil {
			return err
		}
		paths = paths[1:]
	}
	return nil
}
