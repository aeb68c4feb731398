package archive

import (
	"log"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"ironvale.gg/internal/sim/player"
)

func sampleEntry() Entry {
	return Entry{
		Meta: Meta{UserID: 7, Username: "miner_joe", SavedAt: "2026-08-30T12:00:00Z"},
		Snapshot: player.Snapshot{
			Stats:     map[string]int{"combatLevel": 7, "swordTier": 2},
			Inventory: map[string]int{"coins": 250, "ironBar": 300},
		},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "save_1.json.zst")
	in := sampleEntry()
	if err := Write(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\nin:  %+v\nout: %+v", in, out)
	}
}

func TestRead_MissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope.json.zst")); err == nil {
		t.Fatalf("expected error on missing file")
	}
}

func TestWriter_ArchivesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 3, log.New(os.Stdout, "[test] ", 0))

	for i := 0; i < 5; i++ {
		w.Archive(7, "miner_joe", player.Snapshot{
			Stats:     map[string]int{"combatLevel": i + 1},
			Inventory: map[string]int{"coins": i},
		})
		// Distinct timestamps keep filenames unique.
		time.Sleep(2 * time.Millisecond)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	paths, err := List(dir, "miner_joe")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("retained %d archives, want 3", len(paths))
	}

	// Newest entries survive the prune.
	last, err := Read(paths[len(paths)-1])
	if err != nil {
		t.Fatal(err)
	}
	if last.Snapshot.Stats["combatLevel"] != 5 {
		t.Fatalf("latest archive combatLevel = %d, want 5", last.Snapshot.Stats["combatLevel"])
	}

	// Closed writers drop silently.
	w.Archive(7, "miner_joe", player.Snapshot{})
}
