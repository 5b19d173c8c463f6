package partitioner

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestToDay(t *testing.T) {
	f := Functions["toDay"]

	day, err := f(map[string]any{"hey": "ho"}, []string{"now()"})
	if err != nil {
		t.Fatal(err)
	}

	if day != fmt.Sprint(time.Now().Day()) {
		t.Fatal("mismatched date")
	}

	day, err = f(map[string]any{"t": "2022-01-24T00:00:00.000Z"}, []string{"t"})
	if err != nil {
		t.Fatal(err)
	}

	if day != "24" {
		t.Fatal("mismatched date for t string")
	}

	day, err = f(map[string]any{"t": 1672406408279.0}, []string{"t"})
	if err != nil {
		t.Fatal(err)
	}

	if day != "30" {
		t.Fatal("mismatched date for t float")
	}

	day, err = f(map[string]any{"t": time.Date(2023, 7, 4, 12, 0, 0, 0, time.UTC)}, []string{"t"})
	if err != nil {
		t.Fatal(err)
	}
	if day != "4" {
		t.Fatal("mismatched date for t time")
	}

	_, err = f(map[string]any{"t": 1672406408279}, []string{"t"})
	if !errors.Is(err, ErrInvalidColumnType) {
		t.Fatal("did not get invalid col type")
	}

	_, err = f(map[string]any{"t": nil}, []string{"t"})
	if !errors.Is(err, ErrNullValue) {
		t.Fatal("did not get null value")
	}
}

func TestGetRowPartition(t *testing.T) {
	row := map[string]any{
		"ts":     time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC),
		"region": "eu west",
	}
	plans := []PartitionPlan{
		{Func: "toYear", Args: []string{"ts"}, As: "y"},
		{Func: "toMonth", Args: []string{"ts"}, As: "m"},
		{Func: "toYearWeek", Args: []string{"ts"}, As: "w"},
		{Func: "value", Args: []string{"region"}, As: "region"},
	}
	if err := Validate(plans); err != nil {
		t.Fatal(err)
	}

	p, err := GetRowPartition(row, plans)
	if err != nil {
		t.Fatal(err)
	}
	if p != "y=2024/m=02/w=2024-06/region=eu%20west" {
		t.Fatalf("got partition %s", p)
	}

	_, err = GetRowPartition(row, []PartitionPlan{{Func: "toDecade", As: "d"}})
	if !errors.Is(err, ErrFuncNotFound) {
		t.Fatal("expected ErrFuncNotFound")
	}
	if err := Validate([]PartitionPlan{{Func: "toDecade", As: "d"}}); !errors.Is(err, ErrFuncNotFound) {
		t.Fatal("expected Validate to reject unknown function")
	}
	if err := Validate([]PartitionPlan{{Func: "toDay", Args: []string{"ts"}}}); err == nil {
		t.Fatal("expected Validate to reject a plan without a name")
	}
}
