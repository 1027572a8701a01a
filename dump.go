package soci

import (
	"fmt"
	"strings"
	"time"
)

// formatBoundValue renders one bound host value for error messages and
// query logs.
func formatBoundValue(data any) string {
	switch v := data.(type) {
	case *Char:
		return fmt.Sprintf("'%c'", rune(*v))
	case *string:
		return `"` + strings.ReplaceAll(*v, `"`, `\"`) + `"`
	case *int8:
		return fmt.Sprintf("%d", *v)
	case *uint8:
		return fmt.Sprintf("%d", *v)
	case *int16:
		return fmt.Sprintf("%d", *v)
	case *uint16:
		return fmt.Sprintf("%d", *v)
	case *int32:
		return fmt.Sprintf("%d", *v)
	case *uint32:
		return fmt.Sprintf("%d", *v)
	case *int64:
		return fmt.Sprintf("%d", *v)
	case *uint64:
		return fmt.Sprintf("%d", *v)
	case *int:
		return fmt.Sprintf("%d", *v)
	case *uint:
		return fmt.Sprintf("%d", *v)
	case *float64:
		return fmt.Sprintf("%g", *v)
	case *time.Time:
		return v.Format("2006-01-02 15:04:05")
	case *[]byte:
		return "<blob>"
	case *Blob:
		return "<blob>"
	case *RowID:
		return "<rowid>"
	}
	return "<unknown>"
}
