package engine

import (
	"strings"
)

// Normalize folds user text into the form used for command lookup.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var (
	cancelWords = set("cancel", "ยกเลิก")
	skipWords   = set("skip", "ข้าม")

	helpWords     = []string{"help", "menu", "ช่วยเหลือ", "เมนู"}
	hoursWords    = []string{"hours", "เวลาทำการ"}
	locationWords = []string{"location", "contact", "ที่อยู่", "ติดต่อ"}

	// closedAllowList is what still works while the shop is closed.
	closedAllowList = union(cancelWords, set(helpWords...), set(hoursWords...), set(locationWords...))
)

func union(sets ...map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range sets {
		for w := range s {
			out[w] = struct{}{}
		}
	}
	return out
}

// IsCancel reports whether normalized text is the global cancel command.
func IsCancel(norm string) bool {
	_, ok := cancelWords[norm]
	return ok
}

// IsSkip reports whether normalized text skips a photo step.
func IsSkip(norm string) bool {
	_, ok := skipWords[norm]
	return ok
}
