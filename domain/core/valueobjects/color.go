package valueobjects

import (
	"regexp"
	"strings"

	pkgerrors "notegraph/pkg/errors"
)

// DefaultColor is used for notes that never had a colour assigned
const DefaultColor = "#44aaff"

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// NormalizeColor validates a hex colour and lower-cases it.
// An empty string maps to DefaultColor.
func NormalizeColor(c string) (string, error) {
	c = strings.TrimSpace(c)
	if c == "" {
		return DefaultColor, nil
	}
	if !hexColorPattern.MatchString(c) {
		return "", pkgerrors.NewValidationError("color must be a hex value like #44aaff")
	}
	return strings.ToLower(c), nil
}
