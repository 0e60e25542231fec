//go:build !warfaredebug

package warfare

import "github.com/rs/zerolog/log"

// brokenInvariant reports internal state that Step repairs by skipping it.
// Build with -tags warfaredebug to panic instead.
func brokenInvariant(msg string, fields map[string]any) {
	log.Error().Fields(fields).Msg(msg)
}
