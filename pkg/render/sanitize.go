package render

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	messagePolicyOnce sync.Once
	messagePolicy     *bluemonday.Policy
)

// messageSanitizer strips all markup from server messages and help text. The
// result is HTML-escaped text, safe to emit unescaped.
func messageSanitizer() *bluemonday.Policy {
	messagePolicyOnce.Do(func() {
		messagePolicy = bluemonday.StrictPolicy()
	})
	return messagePolicy
}

func sanitizeMessages(policy *bluemonday.Policy, messages []string) []string {
	out := make([]string, 0, len(messages))
	for _, message := range messages {
		cleaned := strings.TrimSpace(policy.Sanitize(message))
		if cleaned == "" {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}
