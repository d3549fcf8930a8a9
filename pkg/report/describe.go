package report

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"
)

// WriteStructFields inspects a struct and writes its exported fields to the strings.Builder.
//
// The `reg` tag names the register field (e.g. `reg:"PNM"`) and is appended to the
// field name. The `fmt` tag selects the rendering: "ascii" and "int" for byte
// slices, "hex" for unsigned integers. Values implementing fmt.Stringer are
// rendered with String(). Nil or empty byte slices are skipped.
//
// Lines are joined with newlines but no trailing newline is written. If the
// builder is not empty, a newline separates this block from previous content.
func WriteStructFields(sb *strings.Builder, prefix string, s interface{}) {
	val := reflect.ValueOf(s)

	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	var lines []string

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		if !fieldType.IsExported() {
			continue
		}

		if line := formatField(prefix, field, fieldType); line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.Join(lines, "\n"))
	}
}

func formatField(prefix string, field reflect.Value, fieldType reflect.StructField) string {
	name := fieldType.Name
	if regTag := fieldType.Tag.Get("reg"); regTag != "" {
		name = fmt.Sprintf("%s (%s)", name, regTag)
	}
	format := fieldType.Tag.Get("fmt")

	var display string
	switch {
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Uint8:
		if field.IsNil() || field.Len() == 0 {
			return ""
		}
		display = formatByteValue(field.Bytes(), format)
	case field.CanInterface() && implementsStringer(field):
		display = field.Interface().(fmt.Stringer).String()
	case isUnsigned(field.Kind()):
		display = formatUnsigned(field.Uint(), field.Type().Bits(), format)
	case field.Kind() == reflect.String:
		display = field.String()
	case field.Kind() == reflect.Bool:
		display = fmt.Sprintf("%t", field.Bool())
	default:
		return ""
	}

	return fmt.Sprintf("    - %s.%s: %s", prefix, name, display)
}

func implementsStringer(v reflect.Value) bool {
	_, ok := v.Interface().(fmt.Stringer)
	return ok
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func formatUnsigned(v uint64, bitSize int, format string) string {
	if format == "hex" {
		return fmt.Sprintf("0x%0*X", bitSize/4, v)
	}
	return fmt.Sprintf("%d", v)
}

func formatByteValue(data []byte, format string) string {
	switch format {
	case "ascii":
		return fmt.Sprintf("%X (%q)", data, MakeSafeASCII(data))
	case "int":
		var integer int
		for _, b := range data {
			integer = (integer << 8) | int(b)
		}
		return fmt.Sprintf("%X (Dec: %d)", data, integer)
	default:
		return strings.ToUpper(hex.EncodeToString(data))
	}
}
