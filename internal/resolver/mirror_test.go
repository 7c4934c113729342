package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"reelgrab/internal/domain"
)

// fakeFetcher records delegated direct URLs instead of hitting the network.
type fakeFetcher struct {
	gotURLs      []string
	gotPlatforms []domain.Platform
	err          error
}

func (f *fakeFetcher) Fetch(_ context.Context, mediaURL string, platform domain.Platform) (*domain.ResolvedMedia, error) {
	f.gotURLs = append(f.gotURLs, mediaURL)
	f.gotPlatforms = append(f.gotPlatforms, platform)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ResolvedMedia{
		LocalPath: "/tmp/fake.mp4",
		ByteSize:  4096,
		Strategy:  domain.StrategyAlternative,
	}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func newTestInstagram(endpoint string, fetcher DirectFetcher) *Instagram {
	return &Instagram{
		client:    &http.Client{Timeout: 5 * time.Second},
		fetcher:   fetcher,
		endpoint:  endpoint,
		userAgent: "test-agent",
		logger:    testLogger(),
	}
}

func newTestTikTok(tikwm, snaptik string, fetcher DirectFetcher) *TikTok {
	return &TikTok{
		client:          &http.Client{Timeout: 5 * time.Second},
		fetcher:         fetcher,
		tikwmEndpoint:   tikwm,
		snaptikEndpoint: snaptik,
		userAgent:       "test-agent",
		logger:          testLogger(),
	}
}

func TestInstagram_Resolve_Success(t *testing.T) {
	cdnURL := "https://scontent-gru1-1.cdninstagram.com/v/t50/video.mp4?efg=abc"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if q := r.PostFormValue("q"); q != "https://www.instagram.com/reel/x/" {
			t.Errorf("q = %q", q)
		}
		if xr := r.Header.Get("X-Requested-With"); xr != "XMLHttpRequest" {
			t.Errorf("X-Requested-With = %q", xr)
		}
		data := fmt.Sprintf(`<div><a href="%s" class="abutton download">Download</a></div>`, cdnURL)
		json.NewEncoder(w).Encode(snapInstaResponse{Status: "ok", Data: data})
	}))
	defer server.Close()

	fetcher := &fakeFetcher{}
	r := newTestInstagram(server.URL, fetcher)

	media, err := r.Resolve(context.Background(), "https://www.instagram.com/reel/x/")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if media.Strategy != domain.StrategyAlternative {
		t.Errorf("Strategy = %q", media.Strategy)
	}
	if len(fetcher.gotURLs) != 1 || fetcher.gotURLs[0] != cdnURL {
		t.Errorf("fetcher got %v, want the extracted CDN URL", fetcher.gotURLs)
	}
	if fetcher.gotPlatforms[0] != domain.PlatformInstagram {
		t.Errorf("platform = %q", fetcher.gotPlatforms[0])
	}
}

func TestInstagram_Resolve_NonCDNLinkIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A download-looking anchor pointing at the mirror itself must not
		// be followed.
		fmt.Fprint(w, `{"status":"ok","data":"<a href=\"https://snapinsta.app/download/abc\" class=\"download\">Download</a>"}`)
	}))
	defer server.Close()

	fetcher := &fakeFetcher{}
	r := newTestInstagram(server.URL, fetcher)

	_, err := r.Resolve(context.Background(), "https://www.instagram.com/reel/x/")
	assertAltFailure(t, err)
	if len(fetcher.gotURLs) != 0 {
		t.Errorf("fetcher should not have been called, got %v", fetcher.gotURLs)
	}
}

func TestInstagram_Resolve_MirrorErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"bad status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>not json</html>")
		}},
		{"rejected", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"error","data":""}`)
		}},
		{"no pattern match", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"ok","data":"<div>nothing here</div>"}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			r := newTestInstagram(server.URL, &fakeFetcher{})
			_, err := r.Resolve(context.Background(), "https://www.instagram.com/reel/x/")
			assertAltFailure(t, err)
		})
	}
}

func TestInstagram_Resolve_FetchFailureCollapsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok","data":"<a href=\"https://v.cdninstagram.com/video.mp4\" class=\"download\">Download</a>"}`)
	}))
	defer server.Close()

	fetcher := &fakeFetcher{err: errors.New("stream broke")}
	r := newTestInstagram(server.URL, fetcher)

	_, err := r.Resolve(context.Background(), "https://www.instagram.com/reel/x/")
	f := assertAltFailure(t, err)
	// The raw reason stays in Detail for logs, never in the user message.
	if f.Message != domain.MsgAltFailed {
		t.Errorf("Message = %q", f.Message)
	}
}

func TestTikTok_Resolve_PrefersHDPlay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if hd := r.PostFormValue("hd"); hd != "1" {
			t.Errorf("hd = %q, want 1", hd)
		}
		fmt.Fprint(w, `{"code":0,"data":{"hdplay":"https://cdn/x.mp4","play":"https://cdn/low.mp4"}}`)
	}))
	defer server.Close()

	fetcher := &fakeFetcher{}
	r := newTestTikTok(server.URL, "http://127.0.0.1:1/", fetcher)

	media, err := r.Resolve(context.Background(), "https://www.tiktok.com/@user/video/123")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if media == nil {
		t.Fatal("media is nil")
	}
	if len(fetcher.gotURLs) != 1 || fetcher.gotURLs[0] != "https://cdn/x.mp4" {
		t.Errorf("fetcher got %v, want the hdplay URL exactly", fetcher.gotURLs)
	}
	if fetcher.gotPlatforms[0] != domain.PlatformTikTok {
		t.Errorf("platform = %q", fetcher.gotPlatforms[0])
	}
}

func TestTikTok_Resolve_FallsBackToPlay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"data":{"play":"https://cdn/std.mp4"}}`)
	}))
	defer server.Close()

	fetcher := &fakeFetcher{}
	r := newTestTikTok(server.URL, "http://127.0.0.1:1/", fetcher)

	if _, err := r.Resolve(context.Background(), "https://www.tiktok.com/@user/video/123"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(fetcher.gotURLs) != 1 || fetcher.gotURLs[0] != "https://cdn/std.mp4" {
		t.Errorf("fetcher got %v, want the play URL", fetcher.gotURLs)
	}
}

func TestTikTok_Resolve_SnapTikFallback(t *testing.T) {
	tikwm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":-1,"data":{}}`)
	}))
	defer tikwm.Close()

	cdnURL := "https://v16m.tiktokcdn.com/video.mp4?x=1"
	snaptik := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><a href=%q class="button download">Download</a></html>`, cdnURL)
	}))
	defer snaptik.Close()

	fetcher := &fakeFetcher{}
	r := newTestTikTok(tikwm.URL, snaptik.URL, fetcher)

	if _, err := r.Resolve(context.Background(), "https://www.tiktok.com/@user/video/123"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(fetcher.gotURLs) != 1 || fetcher.gotURLs[0] != cdnURL {
		t.Errorf("fetcher got %v, want the snaptik CDN URL", fetcher.gotURLs)
	}
}

func TestTikTok_Resolve_BothMirrorsFail(t *testing.T) {
	tikwm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer tikwm.Close()

	snaptik := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>no links</html>`)
	}))
	defer snaptik.Close()

	fetcher := &fakeFetcher{}
	r := newTestTikTok(tikwm.URL, snaptik.URL, fetcher)

	_, err := r.Resolve(context.Background(), "https://www.tiktok.com/@user/video/123")
	assertAltFailure(t, err)
	if len(fetcher.gotURLs) != 0 {
		t.Errorf("fetcher should never have been called, got %v", fetcher.gotURLs)
	}
}

func assertAltFailure(t *testing.T, err error) *domain.DownloadFailure {
	t.Helper()
	if err == nil {
		t.Fatal("expected a failure")
	}
	f, ok := domain.AsFailure(err)
	if !ok {
		t.Fatalf("error = %v, want DownloadFailure", err)
	}
	if f.Kind != domain.KindUnknown {
		t.Errorf("Kind = %q, want unknown", f.Kind)
	}
	if f.Message != domain.MsgAltFailed {
		t.Errorf("Message = %q, want the generic alternative failure", f.Message)
	}
	if f.Strategy != domain.StrategyAlternative {
		t.Errorf("Strategy = %q, want alternative", f.Strategy)
	}
	return f
}
