package table

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/danthegoodman1/dfgrid/dtype"
	"github.com/danthegoodman1/gojsonutils"
)

var (
	ErrNotObject  = errors.New("record is not a JSON object")
	ErrNotFlatMap = errors.New("not a flat map")
	ErrNoRecords  = errors.New("no records found")
)

const maxRecordBytes = 16 * 1024 * 1024

// ParseRecord decodes one JSON object, flattens nested objects into dotted keys and
// keeps the object's key order. Numbers become int64 or float64.
func ParseRecord(raw []byte) (Row, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return Row{}, fmt.Errorf("error in json.Decode: %w", err)
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return Row{}, ErrNotObject
	}

	order, err := topLevelKeys(raw)
	if err != nil {
		return Row{}, fmt.Errorf("error in topLevelKeys: %w", err)
	}

	flat, err := gojsonutils.Flatten(obj, nil)
	if err != nil {
		return Row{}, fmt.Errorf("error flattening JSON map: %w", err)
	}
	flatMap, ok := flat.(map[string]any)
	if !ok {
		return Row{}, fmt.Errorf("%w: %+v", ErrNotFlatMap, flat)
	}

	keys := make([]string, 0, len(flatMap))
	for k := range flatMap {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := keyRank(keys[i], order), keyRank(keys[j], order)
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})

	row := Row{
		ColNames: keys,
		ColVals:  make([]any, len(keys)),
	}
	for i, k := range keys {
		row.ColVals[i] = dtype.Normalize(flatMap[k])
	}
	return row, nil
}

// ReadRecords reads either a JSON array of objects or newline delimited JSON.
func ReadRecords(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRecords
		}
		return nil, err
	}
	if first == '[' {
		var raws []json.RawMessage
		if err := json.NewDecoder(br).Decode(&raws); err != nil {
			return nil, fmt.Errorf("error in json.Decode: %w", err)
		}
		return ParseRecords(raws)
	}
	return ReadNDJSON(br)
}

func ParseRecords(raws []json.RawMessage) ([]Row, error) {
	rows := make([]Row, 0, len(raws))
	for i, raw := range raws {
		row, err := ParseRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadNDJSON parses one JSON object per non-blank line.
func ReadNDJSON(r io.Reader) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxRecordBytes)
	var rows []Row
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		row, err := ParseRecord(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning ndjson: %w", err)
	}
	return rows, nil
}

// FromRecords builds a table whose columns appear in first-seen order across the
// records. Keys missing from a record are null.
func FromRecords(records []Row) (*Table, error) {
	var names []string
	seen := make(map[string]int)
	for _, rec := range records {
		for _, name := range rec.ColNames {
			if _, ok := seen[name]; !ok {
				seen[name] = len(names)
				names = append(names, name)
			}
		}
	}

	values := make([][]any, len(names))
	for i := range values {
		values[i] = make([]any, len(records))
	}
	for r, rec := range records {
		for i, name := range rec.ColNames {
			values[seen[name]][r] = rec.ColVals[i]
		}
	}

	t := Empty(len(records))
	for i, name := range names {
		descriptor, vals := InferColumn(values[i])
		if err := t.AppendColumn(NewColumn(name, descriptor, vals)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// InferColumn picks a native descriptor for values: int64 when every non-null value
// is an integer, float64 for any mix of numbers, bool, datetime64[ns], else object.
// Integers in a float64 column are widened.
func InferColumn(values []any) (string, []any) {
	norm := make([]any, len(values))
	var ints, floats, bools, times, others int
	for i, v := range values {
		norm[i] = dtype.Normalize(v)
		switch norm[i].(type) {
		case nil:
		case int, int8, int16, int32, int64, uint8, uint16, uint32:
			ints++
		case float32, float64:
			if dtype.IsNull(v) {
				continue
			}
			floats++
		case bool:
			bools++
		case time.Time:
			times++
		default:
			others++
		}
	}

	switch {
	case others > 0 || ints+floats+bools+times == 0:
		return "object", norm
	case bools > 0 && ints+floats+times == 0:
		return "bool", norm
	case times > 0 && ints+floats+bools == 0:
		return "datetime64[ns]", norm
	case ints > 0 && floats+bools+times == 0:
		out := make([]any, len(values))
		for i, v := range norm {
			out[i] = dtype.CoerceOrNull(v, dtype.Int)
		}
		return "int64", out
	case bools+times == 0:
		out := make([]any, len(values))
		for i, v := range norm {
			out[i] = dtype.CoerceOrNull(v, dtype.Float)
		}
		return "float64", out
	}
	return "object", norm
}

// keyRank orders a flattened key by the position of the top-level key it came from.
func keyRank(key string, order []string) int {
	for i, top := range order {
		if key == top {
			return i
		}
	}
	for i, top := range order {
		if strings.HasPrefix(key, top+".") {
			return i
		}
	}
	return len(order)
}

func topLevelKeys(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, ErrNotObject
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
