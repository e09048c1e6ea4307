package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joshnavoa/zakeke/internal/domain"
)

const sampleMaxLen = 100

// ColumnInfo describes one column of a sample row
type ColumnInfo struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Sample string `json:"sample"`
	IsNull bool   `json:"isNull"`
}

// SchemaReport is what /schema and cmd/inspect-schema print
type SchemaReport struct {
	Table             string                  `json:"table"`
	TotalColumns      int                     `json:"totalColumns"`
	Columns           []ColumnInfo            `json:"columns"`
	SampleProduct     domain.Row              `json:"sampleProduct"`
	SuggestedMappings map[string]string       `json:"suggestedMappings"`
	Normalized        domain.CanonicalProduct `json:"normalized"`
}

// DescribeColumns lists the columns of row sorted by name
func DescribeColumns(row domain.Row) []ColumnInfo {
	out := make([]ColumnInfo, 0, len(row))
	for _, name := range sortedKeys(row) {
		val := row[name]
		info := ColumnInfo{Name: name, Type: jsonType(val), Sample: "null", IsNull: val == nil}
		if val != nil {
			info.Sample = truncate(fmt.Sprint(val), sampleMaxLen)
		}
		out = append(out, info)
	}
	return out
}

// SuggestMappings guesses which source column feeds each canonical field
func SuggestMappings(row domain.Row) map[string]string {
	cols := sortedKeys(row)
	out := make(map[string]string)
	pick := func(field string, match func(lower string) bool) {
		for _, c := range cols {
			if match(strings.ToLower(c)) {
				out[field] = c
				return
			}
		}
	}
	oneOf := func(names ...string) func(string) bool {
		return func(lower string) bool {
			for _, n := range names {
				if lower == n {
					return true
				}
			}
			return false
		}
	}

	pick("id", func(l string) bool { return strings.Contains(l, "id") && !strings.Contains(l, "product") })
	pick("name", oneOf("name", "title", "product_name"))
	pick("description", oneOf("description", "desc", "details"))
	pick("price", func(l string) bool {
		return oneOf("price", "amount", "cost")(l) && !strings.Contains(l, "cents")
	})
	pick("image", func(l string) bool {
		for _, term := range []string{"image", "photo", "thumbnail", "main_image", "image_url"} {
			if strings.Contains(l, term) {
				return true
			}
		}
		return false
	})
	pick("sku", oneOf("sku", "code", "product_sku"))
	pick("stock", oneOf("stock", "inventory", "quantity", "qty"))
	pick("created_at", oneOf("created_at", "created", "date_created"))
	return out
}

func sortedKeys(row domain.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func jsonType(val interface{}) string {
	switch val.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	default:
		return "number"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
