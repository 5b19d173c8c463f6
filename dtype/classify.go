package dtype

import "strings"

// Classify maps a native descriptor such as "int32", "Int64", "datetime64[ns, UTC]"
// or "string[pyarrow]" to its canonical Type. Anything unrecognized is Object.
func Classify(descriptor string) Type {
	lower := strings.ToLower(descriptor)

	if strings.Contains(lower, "int") {
		return Int
	}
	if strings.Contains(lower, "float") {
		return Float
	}
	if descriptor == "bool" || descriptor == "boolean" {
		return Bool
	}
	if strings.Contains(lower, "datetime") || strings.Contains(lower, "timestamp") {
		return Datetime
	}
	if descriptor == "category" {
		return Category
	}
	switch descriptor {
	case "string", "string[python]", "string[pyarrow]":
		return String
	}
	return Object
}
