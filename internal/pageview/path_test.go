package pageview_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saulo-duarte/course-progress-agent/internal/pageview"
)

func TestCanonicalPath(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		prefix string
		want   string
	}{
		{"FullURL", "https://course.example.com/2025AI/week1/intro.html?x=1#top", "/2025AI", "/week1/intro.html"},
		{"PathOnly", "/2025AI/week2/", "/2025AI", "/week2/"},
		{"PrefixRootIsHome", "https://course.example.com/2025AI", "/2025AI", "/"},
		{"PrefixRootSlashIsHome", "/2025AI/", "2025AI", "/"},
		{"Empty", "", "/2025AI", "/"},
		{"NoPrefixConfigured", "/2025AI/week1/", "", "/2025AI/week1/"},
		{"PrefixOnlyStrippedOnce", "/2025AI/2025AI/x", "/2025AI", "/2025AI/x"},
		{"LookalikePrefixKept", "/2025AIX/week1/", "/2025AI", "/2025AIX/week1/"},
		{"RelativeGetsSlash", "week3/notes", "/2025AI", "/week3/notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pageview.CanonicalPath(tt.raw, tt.prefix))
		})
	}
}
