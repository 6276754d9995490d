package core

import "strings"

// Slugify lowercases s and replaces every run of non-alphanumeric characters
// with a single hyphen. Example: "src/components/Hero.tsx" → "src-components-hero-tsx".
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, ch := range strings.ToLower(s) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(ch)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
