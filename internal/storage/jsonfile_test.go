package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJSONFileLoad(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		want    map[int64]int
		wantErr bool
	}{
		{
			name:    "signed keys",
			content: ptr(`{"-1001234": 3600, "100": 700}`),
			want:    map[int64]int{-1001234: 3600, 100: 700},
		},
		{
			name:    "empty object",
			content: ptr(`{}`),
			want:    map[int64]int{},
		},
		{
			name:    "missing file",
			content: nil,
			wantErr: true,
		},
		{
			name:    "corrupt json",
			content: ptr(`{"100": `),
			wantErr: true,
		},
		{
			name:    "non-numeric key",
			content: ptr(`{"abc": 700}`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "db.json")
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0o600); err != nil {
					t.Fatalf("write fixture: %v", err)
				}
			}

			got, err := NewJSONFile(path).Load(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJSONFileSaveReplacesRecord(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	f := NewJSONFile(path)

	if err := f.Save(ctx, map[int64]int{100: 700, -200: 900}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := f.Save(ctx, map[int64]int{-200: 1200}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(map[int64]int{-200: 1200}, got); diff != "" {
		t.Errorf("Load() after save mismatch (-want +got):\n%s", diff)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if diff := cmp.Diff(1, len(files)); diff != "" {
		t.Errorf("temporary files left behind (-want +got):\n%s", diff)
	}
}

func TestInitJSONFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "db.json")

	if err := InitJSONFile(path); err != nil {
		t.Fatalf("init: %v", err)
	}
	d, err := OpenDestinations(ctx, NewJSONFile(path))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := d.Upsert(ctx, 100, 700); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// A second init must not clobber the record.
	if err := InitJSONFile(path); err != nil {
		t.Fatalf("second init: %v", err)
	}
	got, err := NewJSONFile(path).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(map[int64]int{100: 700}, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func ptr(s string) *string { return &s }
