package core

import (
	"fmt"
	"strings"
	"time"
)

// SlugifyEventName strips whitespace and anything outside
// [A-Za-z0-9_-], truncating to 40 characters. An empty result falls
// back to "Event".
func SlugifyEventName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteByte(byte(r))
		}
	}
	slug := b.String()
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug == "" {
		return "Event"
	}
	return slug
}

// BuildOrderNumber derives a human-scannable order number from the
// event name and the sale timestamp: {slug}-{YY}{MM}{DD}-{HH}{MM}.
func BuildOrderNumber(eventName string, when time.Time) string {
	return fmt.Sprintf("%s-%s-%s",
		SlugifyEventName(eventName),
		when.Format("060102"),
		when.Format("1504"))
}
