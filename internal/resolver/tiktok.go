package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"reelgrab/internal/config"
	"reelgrab/internal/domain"
)

const (
	defaultTikwmEndpoint   = "https://www.tikwm.com/api/"
	defaultSnapTikEndpoint = "https://snaptik.app/abc2.php"
)

var tiktokLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`href="(https://[^"]+\.tiktokcdn\.com[^"]+)"`),
}

var tiktokCDNHosts = []string{"tiktokcdn", "tiktok"}

// TikTok is the mirror-service fallback for TikTok page URLs. Two mirrors are
// tried in fixed order: TikWM's JSON API first (it returns direct play URLs,
// HD preferred), then SnapTik's HTML scraper. Whichever yields a playable
// link delegates to the direct-fetch primitive.
type TikTok struct {
	client          *http.Client
	fetcher         DirectFetcher
	tikwmEndpoint   string
	snaptikEndpoint string
	userAgent       string
	logger          *slog.Logger
}

// NewTikTok creates the TikTok alternative resolver.
func NewTikTok(cfg config.DownloadConfig, fetcher DirectFetcher, logger *slog.Logger) *TikTok {
	return &TikTok{
		client:          &http.Client{Timeout: cfg.MirrorTimeout},
		fetcher:         fetcher,
		tikwmEndpoint:   defaultTikwmEndpoint,
		snaptikEndpoint: defaultSnapTikEndpoint,
		userAgent:       cfg.UserAgent,
		logger:          logger,
	}
}

// tikwmResponse is TikWM's JSON envelope. hdplay is preferred over play when
// both are present.
type tikwmResponse struct {
	Code int `json:"code"`
	Data struct {
		HDPlay string `json:"hdplay"`
		Play   string `json:"play"`
	} `json:"data"`
}

// Resolve turns a TikTok page URL into a downloaded file, trying each mirror
// in order and collapsing all internal errors into the generic alternative
// failure.
func (r *TikTok) Resolve(ctx context.Context, pageURL string) (*domain.ResolvedMedia, error) {
	r.logger.Info("trying tiktok alternative", "url", pageURL)

	if media, err := r.tryTikwm(ctx, pageURL); err == nil {
		return media, nil
	} else {
		r.logger.Warn("tikwm mirror failed, trying snaptik", "error", err)
	}

	if media, err := r.trySnapTik(ctx, pageURL); err == nil {
		return media, nil
	} else {
		r.logger.Warn("snaptik mirror failed", "error", err)
	}

	return nil, domain.NewFailure(domain.KindUnknown, domain.StrategyAlternative, domain.MsgAltFailed)
}

func (r *TikTok) tryTikwm(ctx context.Context, pageURL string) (*domain.ResolvedMedia, error) {
	form := url.Values{
		"url": {pageURL},
		"hd":  {"1"},
	}

	body, status, err := r.postForm(ctx, r.tikwmEndpoint, form)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("tikwm status %d", status)
	}

	var parsed tikwmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode tikwm response: %w", err)
	}
	if parsed.Code != 0 {
		return nil, fmt.Errorf("tikwm error code %d", parsed.Code)
	}

	playURL := parsed.Data.HDPlay
	if playURL == "" {
		playURL = parsed.Data.Play
	}
	if playURL == "" {
		return nil, fmt.Errorf("tikwm response had no play URL")
	}

	r.logger.Info("found tiktok video via tikwm", "hd", parsed.Data.HDPlay != "")
	return r.fetcher.Fetch(ctx, playURL, domain.PlatformTikTok)
}

func (r *TikTok) trySnapTik(ctx context.Context, pageURL string) (*domain.ResolvedMedia, error) {
	form := url.Values{
		"url":  {pageURL},
		"lang": {"en"},
	}

	body, status, err := r.postForm(ctx, r.snaptikEndpoint, form)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("snaptik status %d", status)
	}

	directURL, ok := extractDownloadURL(string(body), tiktokLinkPatterns, tiktokCDNHosts)
	if !ok {
		return nil, fmt.Errorf("snaptik response had no usable link")
	}

	r.logger.Info("found tiktok video via snaptik")
	return r.fetcher.Fetch(ctx, directURL, domain.PlatformTikTok)
}

func (r *TikTok) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
