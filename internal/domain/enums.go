package domain

import "strings"

// SortDirection is the ordering applied to the sort column
type SortDirection string

const (
	SortAscending  SortDirection = "ASC"
	SortDescending SortDirection = "DESC"
)

// ParseSortDirection treats anything other than ASC (any case) as DESC
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(s), string(SortAscending)) {
		return SortAscending
	}
	return SortDescending
}

// ResponseShape is the collection layout the catalog caller parses
type ResponseShape string

const (
	// ResponseShapeArray emits a bare JSON array of products
	ResponseShapeArray ResponseShape = "array"
	// ResponseShapeWrapped emits {"products": [...], "pagination": {...}}
	ResponseShapeWrapped ResponseShape = "wrapped"
)

// IsValid checks if the response shape is known
func (s ResponseShape) IsValid() bool {
	return s == ResponseShapeArray || s == ResponseShapeWrapped
}

// CustomizableMode decides how the customizable flag is computed
type CustomizableMode string

const (
	// CustomizableAll marks every product customizable
	CustomizableAll CustomizableMode = "all"
	// CustomizableAllowlist marks only products in the customizable set
	CustomizableAllowlist CustomizableMode = "allowlist"
)

// IsValid checks if the customizable mode is known
func (m CustomizableMode) IsValid() bool {
	return m == CustomizableAll || m == CustomizableAllowlist
}

// StoreDriver selects the backing store implementation
type StoreDriver string

const (
	StoreDriverSupabase StoreDriver = "supabase"
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverMemory   StoreDriver = "memory"
	StoreDriverNone     StoreDriver = "none"
)

// IsValid checks if the store driver is known
func (d StoreDriver) IsValid() bool {
	switch d {
	case StoreDriverSupabase, StoreDriverPostgres, StoreDriverMemory, StoreDriverNone:
		return true
	}
	return false
}
