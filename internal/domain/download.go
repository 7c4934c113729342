package domain

import "strings"

// Platform identifies which social network a URL belongs to.
type Platform string

const (
	PlatformInstagram   Platform = "instagram"
	PlatformTikTok      Platform = "tiktok"
	PlatformUnsupported Platform = "unsupported"
)

// String returns the string representation of the Platform.
func (p Platform) String() string {
	return string(p)
}

// Referer returns the browser referer header the origin CDNs expect.
func (p Platform) Referer() string {
	switch p {
	case PlatformTikTok:
		return "https://www.tiktok.com/"
	default:
		return "https://www.instagram.com/"
	}
}

// DetectPlatform classifies a URL by domain substring. It is intentionally
// loose: anything containing the platform domain counts, short links included.
func DetectPlatform(url string) Platform {
	switch {
	case strings.Contains(url, "instagram.com"):
		return PlatformInstagram
	case strings.Contains(url, "tiktok.com"):
		return PlatformTikTok
	default:
		return PlatformUnsupported
	}
}

// Strategy records which resolution path produced a result.
type Strategy string

const (
	StrategyPrimary     Strategy = "primary"
	StrategyAlternative Strategy = "alternative"
)

// MinVideoBytes is the smallest file size accepted as a real video. Anything
// below this is an error page or truncated body and is deleted on sight.
const MinVideoBytes = 1000

// DownloadRequest is a classified download request. Immutable once built.
type DownloadRequest struct {
	URL      string
	Platform Platform
}

// NewDownloadRequest classifies a raw URL into a request.
func NewDownloadRequest(url string) DownloadRequest {
	return DownloadRequest{
		URL:      url,
		Platform: DetectPlatform(url),
	}
}

// ResolvedMedia is a successfully downloaded, size-validated local file.
// The file at LocalPath exists and holds at least MinVideoBytes at the
// moment of construction. Whoever delivers it owns its deletion.
type ResolvedMedia struct {
	LocalPath string
	ByteSize  int64
	Strategy  Strategy
}
