package parquet_export

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/danthegoodman1/dfgrid/dtype"
	"github.com/danthegoodman1/dfgrid/table"
)

type (
	// Schema describes a table as a parquet-go JSON schema.
	Schema struct {
		Fields []*Field
	}

	Field struct {
		// Column is the table column the field is read from
		Column string
		Type   dtype.Type
		Tag    SchemaTag
	}

	ParquetJSONSchema struct {
		Tag    string               `json:",omitempty"`
		Fields []*ParquetJSONSchema `json:",omitempty"`
	}

	SchemaTag struct {
		Name           string
		Type           string
		ConvertedType  string
		RepetitionType RepetitionType
		Encoding       string
	}

	RepetitionType string
)

var (
	Optional RepetitionType = "OPTIONAL"
	Required RepetitionType = "REQUIRED"
)

// BuildSchema maps every column to an optional parquet field. Field names are the
// column names reduced to identifier characters and made unique, since parquet-go
// derives struct field names from them.
func BuildSchema(t *table.Table) Schema {
	var s Schema
	taken := make(map[string]bool)
	for i := 0; i < t.NumCols(); i++ {
		col := t.ColumnAt(i)
		name := fieldName(col.Name, taken)
		s.Fields = append(s.Fields, &Field{
			Column: col.Name,
			Type:   col.Type(),
			Tag:    tagFor(name, col.Type()),
		})
	}
	return s
}

func tagFor(name string, t dtype.Type) SchemaTag {
	tag := SchemaTag{
		Name:           name,
		RepetitionType: Optional,
	}
	switch t {
	case dtype.Int:
		tag.Type = "INT64"
	case dtype.Float:
		tag.Type = "DOUBLE"
	case dtype.Bool:
		tag.Type = "BOOLEAN"
	case dtype.Datetime:
		tag.Type = "INT64"
		tag.ConvertedType = "TIMESTAMP_MILLIS"
	default:
		tag.Type = "BYTE_ARRAY"
		tag.ConvertedType = "UTF8"
		tag.Encoding = "PLAIN"
	}
	return tag
}

func fieldName(column string, taken map[string]bool) string {
	var b strings.Builder
	for _, r := range column {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "c_" + name
	}

	// parquet-go upper-cases the first letter, so uniqueness is case-insensitive there
	base := name
	for i := 2; taken[strings.ToLower(name)]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	taken[strings.ToLower(name)] = true
	return name
}

func (tag SchemaTag) String() string {
	var tagArr []string
	if tag.Type != "" {
		tagArr = append(tagArr, "type="+tag.Type)
	}
	if tag.ConvertedType != "" {
		tagArr = append(tagArr, "convertedtype="+tag.ConvertedType)
	}
	if tag.Encoding != "" {
		tagArr = append(tagArr, "encoding="+tag.Encoding)
	}
	if tag.Name != "" {
		tagArr = append(tagArr, "name="+tag.Name)
	}
	if string(tag.RepetitionType) != "" {
		tagArr = append(tagArr, "repetitiontype="+string(tag.RepetitionType))
	}
	return strings.Join(tagArr, ", ")
}

func (s Schema) ColumnNames() []string {
	cols := make([]string, len(s.Fields))
	for i, field := range s.Fields {
		cols[i] = field.Tag.Name
	}
	return cols
}

// String returns the JSON schema string parquet-go's JSON writer and reader take.
func (s Schema) String() (string, error) {
	var fields []*ParquetJSONSchema
	for _, field := range s.Fields {
		fields = append(fields, &ParquetJSONSchema{Tag: field.Tag.String()})
	}
	pjs := ParquetJSONSchema{
		Tag:    "name=parquet_go_root, repetitiontype=REQUIRED",
		Fields: fields,
	}

	b, err := json.Marshal(pjs)
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal: %w", err)
	}
	return string(b), nil
}
