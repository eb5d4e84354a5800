package tasks

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/desertthunder/rbcopy/internal/models"
)

// SanitizeName keeps letters, digits, space, '-', '_' and '.', then trims surrounding whitespace.
func SanitizeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r):
			return r
		case r == ' ', r == '-', r == '_', r == '.':
			return r
		default:
			return -1
		}
	}, name)
	return strings.TrimSpace(cleaned)
}

// Extension returns the suffix of path's final element including the dot.
//
// A name without a dot, whose only dot is the first character, or that ends in a dot has no suffix.
func Extension(path string) string {
	base := filepath.Base(path)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	return base[i:]
}

// DestinationName builds the ordered filename for track at 1-based position.
func DestinationName(position int, track models.Track) string {
	return fmt.Sprintf("%03d - %s%s", position, SanitizeName(track.DisplayName()), Extension(track.Location))
}
