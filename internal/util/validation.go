package util

import (
	"regexp"
)

// Item IDs end up in QR URLs and Redis channel names, so keep them to a
// lowercase slug.
var itemIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

func IsValidItemID(s string) bool {
	return itemIDRegex.MatchString(s)
}

func IsValidEnum(value string, validValues []string) bool {
	if value == "" {
		return true
	}
	for _, v := range validValues {
		if value == v {
			return true
		}
	}
	return false
}
