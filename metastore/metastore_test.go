package metastore

import (
	"context"
	"testing"
	"time"

	"github.com/danthegoodman1/dfgrid/part"
)

func TestMemoryMetaStore(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryMetaStore()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	err := ms.RecordParts(ctx, "ses_a", "df1", []part.Part{
		{ID: "b", CreatedAt: base.Add(time.Second)},
		{ID: "a", CreatedAt: base.Add(time.Second)},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = ms.RecordParts(ctx, "ses_a", "df1", []part.Part{{ID: "c", CreatedAt: base}})
	if err != nil {
		t.Fatal(err)
	}
	if err := ms.RecordParts(ctx, "ses_b", "df1", []part.Part{{ID: "z", CreatedAt: base}}); err != nil {
		t.Fatal(err)
	}

	parts, err := ms.ListParts(ctx, "ses_a", "df1")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, p := range parts {
		ids = append(ids, p.ID)
	}
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Fatalf("unexpected order %v", ids)
	}

	parts, err = ms.ListParts(ctx, "ses_a", "missing")
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 0 {
		t.Fatalf("expected no parts, got %d", len(parts))
	}
}
