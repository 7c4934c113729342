package resolver

import (
	"context"
	"regexp"
	"strings"

	"reelgrab/internal/domain"
)

// DirectFetcher is the leaf streaming download the mirror resolvers delegate
// to once they hold a direct media URL.
type DirectFetcher interface {
	Fetch(ctx context.Context, mediaURL string, platform domain.Platform) (*domain.ResolvedMedia, error)
}

// genericLinkPatterns match download anchors regardless of CDN. Patterns are
// tried in order; the first capture wins.
var genericLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)href="([^"]+)"[^>]*class="[^"]*download[^"]*"`),
	regexp.MustCompile(`(?i)<a[^>]+href="([^"]+)"[^>]*>\s*Download`),
}

// extractDownloadURL scans a mirror's HTML fragment for a direct media link.
// A candidate only counts when its host matches the platform allow-list,
// keeping us from chasing the mirror's own navigation links.
func extractDownloadURL(html string, extraPatterns []*regexp.Regexp, allowedHosts []string) (string, bool) {
	patterns := append(append([]*regexp.Regexp{}, genericLinkPatterns...), extraPatterns...)

	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(html)
		if len(match) < 2 {
			continue
		}
		candidate := match[1]
		for _, host := range allowedHosts {
			if strings.Contains(candidate, host) {
				return candidate, true
			}
		}
	}
	return "", false
}
