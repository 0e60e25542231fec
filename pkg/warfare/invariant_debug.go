//go:build warfaredebug

package warfare

import "fmt"

func brokenInvariant(msg string, fields map[string]any) {
	panic(fmt.Sprintf("warfare: %s %v", msg, fields))
}
