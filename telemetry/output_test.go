package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/biosynth/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Nil manager methods are no-ops
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, end := range []uint64{600, 1200} {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: end, Population: 7}); err != nil {
			t.Fatal(err)
		}
		if err := om.WritePerf(PerfStats{}, end); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkExtinction, Tick: 1200, Description: "gone"}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want header + 2 rows:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "window_end,population,") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "1200,7,") {
		t.Errorf("unexpected row %q", lines[2])
	}

	bookmarks, _ := os.ReadFile(filepath.Join(dir, "bookmarks.csv"))
	if !strings.Contains(string(bookmarks), "extinction,1200,gone") {
		t.Errorf("bookmarks.csv = %q", bookmarks)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
}
