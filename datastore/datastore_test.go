package datastore

import (
	"bytes"
	"context"
	"os"
	"testing"
)

func TestDiskDataStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dds, err := NewDiskDataStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	n, err := dds.WriteFile(ctx, "frames/abc/year=2024/part.parquet", bytes.NewReader([]byte("hello")))
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("wrote %d bytes, want 5", n)
	}

	b, err := dds.ReadFile(ctx, "frames/abc/year=2024/part.parquet")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "hello" {
		t.Fatalf("read %q", b)
	}

	p, err := dds.Path("frames/abc/year=2024/part.parquet")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatal(err)
	}
}

func TestDiskDataStoreRejectsEscapes(t *testing.T) {
	dds, err := NewDiskDataStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dds.WriteFile(context.Background(), "../outside", bytes.NewReader(nil)); err == nil {
		t.Fatal("expected an error for a key outside the root")
	}
}
