package dtype

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		descriptor string
		want       Type
	}{
		{"int64", Int},
		{"Int64", Int},
		{"uint8", Int},
		{"int32", Int},
		{"float64", Float},
		{"Float32", Float},
		{"bool", Bool},
		{"boolean", Bool},
		{"Boolean", Object},
		{"datetime64[ns]", Datetime},
		{"datetime64[ns, UTC]", Datetime},
		{"Timestamp", Datetime},
		{"category", Category},
		{"string", String},
		{"string[python]", String},
		{"string[pyarrow]", String},
		{"object", Object},
		{"", Object},
		{"complex128", Object},
	}

	for _, tt := range tests {
		if got := Classify(tt.descriptor); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.descriptor, got, tt.want)
		}
	}
}

func TestStorageDescriptorRoundTrip(t *testing.T) {
	for _, typ := range All {
		if got := Classify(typ.StorageDescriptor()); got != typ {
			t.Errorf("Classify(%q) = %s, want %s", typ.StorageDescriptor(), got, typ)
		}
	}
}

func TestParse(t *testing.T) {
	for _, typ := range All {
		got, err := Parse(typ.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != typ {
			t.Errorf("Parse(%q) = %s", typ.String(), got)
		}
	}

	if got, err := Parse("datetime"); err != nil || got != Datetime {
		t.Errorf("alias datetime: got %s, %v", got, err)
	}

	_, err := Parse("decimal")
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	want := "Invalid type: decimal. Valid types: int64, float64, string, bool, datetime64, category, object"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
