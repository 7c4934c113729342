package resolver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"reelgrab/internal/config"
	"reelgrab/internal/domain"
)

const defaultSnapInstaEndpoint = "https://snapinsta.app/api/ajaxSearch"

var instagramLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`href="(https://[^"]+\.cdninstagram\.com[^"]+)"`),
	regexp.MustCompile(`href="(https://scontent[^"]+)"`),
}

var instagramCDNHosts = []string{"cdninstagram", "scontent"}

// Instagram is the mirror-service fallback for Instagram page URLs. It asks
// SnapInsta to unshorten the page into a direct CDN link, then hands the link
// to the direct-fetch primitive.
type Instagram struct {
	client    *http.Client
	fetcher   DirectFetcher
	endpoint  string
	userAgent string
	logger    *slog.Logger
}

// NewInstagram creates the Instagram alternative resolver.
func NewInstagram(cfg config.DownloadConfig, fetcher DirectFetcher, logger *slog.Logger) *Instagram {
	return &Instagram{
		client:    &http.Client{Timeout: cfg.MirrorTimeout},
		fetcher:   fetcher,
		endpoint:  defaultSnapInstaEndpoint,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// snapInstaResponse is the mirror's JSON envelope; data carries an HTML
// fragment with the download anchors.
type snapInstaResponse struct {
	Status string `json:"status"`
	Data   string `json:"data"`
}

// Resolve turns an Instagram page URL into a downloaded file. Mirror errors
// are logged and collapsed into the generic alternative failure; the
// mirror's internals never reach the caller.
func (r *Instagram) Resolve(ctx context.Context, pageURL string) (*domain.ResolvedMedia, error) {
	r.logger.Info("trying instagram alternative", "url", pageURL)

	form := url.Values{
		"q":    {pageURL},
		"lang": {"en"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, r.failed("build mirror request", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, r.failed("mirror call failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("instagram mirror returned bad status", "status", resp.StatusCode)
		return nil, domain.NewFailure(domain.KindUnknown, domain.StrategyAlternative, domain.MsgAltFailed)
	}

	var body snapInstaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, r.failed("decode mirror response", err)
	}
	if body.Status != "ok" {
		r.logger.Warn("instagram mirror rejected request", "status", body.Status)
		return nil, domain.NewFailure(domain.KindUnknown, domain.StrategyAlternative, domain.MsgAltFailed)
	}

	directURL, ok := extractDownloadURL(body.Data, instagramLinkPatterns, instagramCDNHosts)
	if !ok {
		r.logger.Warn("instagram mirror response had no usable link")
		return nil, domain.NewFailure(domain.KindUnknown, domain.StrategyAlternative, domain.MsgAltFailed)
	}

	media, err := r.fetcher.Fetch(ctx, directURL, domain.PlatformInstagram)
	if err != nil {
		return nil, r.failed("direct fetch from mirror link failed", err)
	}
	return media, nil
}

func (r *Instagram) failed(msg string, err error) error {
	r.logger.Warn("instagram alternative failed", "reason", msg, "error", err)
	return domain.NewFailure(domain.KindUnknown, domain.StrategyAlternative, domain.MsgAltFailed).
		WithDetail(msg + ": " + err.Error())
}
