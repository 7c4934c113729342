package resolver

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelgrab/internal/domain"
)

// fakeRunner scripts yt-dlp behaviour per invocation.
type fakeRunner struct {
	calls   int
	results []fakeResult
	// onDownload runs right before the download invocation returns, so tests
	// can drop files into the working directory the way yt-dlp would.
	onDownload func(args []string)
	gotArgs    [][]string
	// one entry per invocation: whether its context carried a deadline.
	deadlines []bool
}

type fakeResult struct {
	stdout string
	stderr string
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, args ...string) (string, string, error) {
	_, hasDeadline := ctx.Deadline()
	f.deadlines = append(f.deadlines, hasDeadline)
	f.gotArgs = append(f.gotArgs, args)
	idx := f.calls
	f.calls++

	if idx >= len(f.results) {
		return "", "", errors.New("unexpected invocation")
	}
	res := f.results[idx]
	if idx == 1 && f.onDownload != nil {
		f.onDownload(args)
	}
	return res.stdout, res.stderr, res.err
}

func testPrimary(t *testing.T, runner Runner) *Primary {
	t.Helper()
	return &Primary{
		runner:        runner,
		classifier:    NewClassifier(),
		dir:           t.TempDir(),
		userAgent:     "test-agent",
		probeTimeout:  5 * time.Second,
		streamTimeout: 5 * time.Second,
		logger:        slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, bytes.Repeat([]byte("v"), size), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestPrimary_Resolve_UnsupportedPlatform(t *testing.T) {
	runner := &fakeRunner{}
	p := testPrimary(t, runner)

	_, err := p.Resolve(context.Background(), domain.NewDownloadRequest("https://example.com/video"))
	if err == nil {
		t.Fatal("expected unsupported failure")
	}
	f, ok := domain.AsFailure(err)
	if !ok || f.Kind != domain.KindUnsupported {
		t.Errorf("error = %v, want Unsupported failure", err)
	}
	if runner.calls != 0 {
		t.Errorf("runner invoked %d times for an unsupported URL, want 0", runner.calls)
	}
}

func TestPrimary_Resolve_Success(t *testing.T) {
	runner := &fakeRunner{
		results: []fakeResult{
			{stdout: `{"title":"a video"}`}, // probe
			{},                              // download
		},
	}
	p := testPrimary(t, runner)
	runner.onDownload = func(args []string) {
		// Recover the unique id from the -o template.
		tmpl := argAfter(args, "-o")
		id := strings.TrimSuffix(filepath.Base(tmpl), ".%(ext)s")
		writeFile(t, filepath.Join(p.dir, id+".mp4"), 5000)
	}

	media, err := p.Resolve(context.Background(), domain.NewDownloadRequest("https://www.tiktok.com/@u/video/1"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if media.Strategy != domain.StrategyPrimary {
		t.Errorf("Strategy = %q, want primary", media.Strategy)
	}
	if media.ByteSize != 5000 {
		t.Errorf("ByteSize = %d, want 5000", media.ByteSize)
	}
	if runner.calls != 2 {
		t.Errorf("runner calls = %d, want probe + download", runner.calls)
	}
}

func TestPrimary_Resolve_BothStagesDeadlined(t *testing.T) {
	runner := &fakeRunner{
		results: []fakeResult{{stdout: `{}`}, {}},
	}
	p := testPrimary(t, runner)
	runner.onDownload = func(args []string) {
		tmpl := argAfter(args, "-o")
		id := strings.TrimSuffix(filepath.Base(tmpl), ".%(ext)s")
		writeFile(t, filepath.Join(p.dir, id+".mp4"), 2000)
	}

	_, err := p.Resolve(context.Background(), domain.NewDownloadRequest("https://www.tiktok.com/@u/video/1"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(runner.deadlines) != 2 {
		t.Fatalf("runner invoked %d times, want probe + download", len(runner.deadlines))
	}
	if !runner.deadlines[0] {
		t.Error("probe invocation ran without a deadline")
	}
	if !runner.deadlines[1] {
		t.Error("download invocation ran without a deadline")
	}
}

func TestPrimary_Resolve_InstagramHeaders(t *testing.T) {
	runner := &fakeRunner{
		results: []fakeResult{{stdout: `{}`}, {}},
	}
	p := testPrimary(t, runner)
	runner.onDownload = func(args []string) {
		tmpl := argAfter(args, "-o")
		id := strings.TrimSuffix(filepath.Base(tmpl), ".%(ext)s")
		writeFile(t, filepath.Join(p.dir, id+".mp4"), 2000)
	}

	_, err := p.Resolve(context.Background(), domain.NewDownloadRequest("https://www.instagram.com/reel/x/"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	probeArgs := strings.Join(runner.gotArgs[0], " ")
	if !strings.Contains(probeArgs, "--referer https://www.instagram.com/") {
		t.Errorf("probe args missing instagram referer: %s", probeArgs)
	}
	if !strings.Contains(probeArgs, "Accept-Language: en-US,en;q=0.5") {
		t.Errorf("probe args missing Accept-Language header: %s", probeArgs)
	}
}

func TestPrimary_Resolve_EmptyProbe(t *testing.T) {
	runner := &fakeRunner{
		results: []fakeResult{{stdout: "  \n"}},
	}
	p := testPrimary(t, runner)

	_, err := p.Resolve(context.Background(), domain.NewDownloadRequest("https://www.tiktok.com/@u/video/1"))
	f, ok := domain.AsFailure(err)
	if !ok || f.Kind != domain.KindFileNotFound {
		t.Fatalf("error = %v, want FileNotFound failure", err)
	}
	if f.Message != domain.MsgNoInfo {
		t.Errorf("Message = %q, want the check-the-link message", f.Message)
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, probe failure must stop before download", runner.calls)
	}
}

func TestPrimary_Resolve_ProbeErrorClassified(t *testing.T) {
	runner := &fakeRunner{
		results: []fakeResult{
			{stderr: "ERROR: [Instagram] Private video", err: errors.New("exit status 1")},
		},
	}
	p := testPrimary(t, runner)

	_, err := p.Resolve(context.Background(), domain.NewDownloadRequest("https://www.instagram.com/reel/x/"))
	f, ok := domain.AsFailure(err)
	if !ok || f.Kind != domain.KindPrivate {
		t.Fatalf("error = %v, want Private failure", err)
	}
	if f.Strategy != domain.StrategyPrimary {
		t.Errorf("Strategy = %q, want primary", f.Strategy)
	}
}

func TestPrimary_Resolve_DownloadErrorClassified(t *testing.T) {
	runner := &fakeRunner{
		results: []fakeResult{
			{stdout: `{}`},
			{stderr: "ERROR: Sign in to continue", err: errors.New("exit status 1")},
		},
	}
	p := testPrimary(t, runner)

	_, err := p.Resolve(context.Background(), domain.NewDownloadRequest("https://www.tiktok.com/@u/video/1"))
	f, ok := domain.AsFailure(err)
	if !ok || f.Kind != domain.KindRequiresAuth {
		t.Fatalf("error = %v, want RequiresAuth failure", err)
	}
}

func TestPrimary_Resolve_FileMissingAfterDownload(t *testing.T) {
	runner := &fakeRunner{
		results: []fakeResult{{stdout: `{}`}, {}},
	}
	p := testPrimary(t, runner)

	_, err := p.Resolve(context.Background(), domain.NewDownloadRequest("https://www.tiktok.com/@u/video/1"))
	f, ok := domain.AsFailure(err)
	if !ok || f.Kind != domain.KindFileNotFound {
		t.Fatalf("error = %v, want FileNotFound failure", err)
	}
	if f.Message != domain.MsgFileNotFound {
		t.Errorf("Message = %q", f.Message)
	}
}

func TestPrimary_Resolve_DirScanFallback(t *testing.T) {
	runner := &fakeRunner{
		results: []fakeResult{{stdout: `{}`}, {}},
	}
	p := testPrimary(t, runner)
	runner.onDownload = func(args []string) {
		tmpl := argAfter(args, "-o")
		id := strings.TrimSuffix(filepath.Base(tmpl), ".%(ext)s")
		// An extension outside the fixed list forces the directory scan.
		writeFile(t, filepath.Join(p.dir, id+".f137.avi"), 3000)
	}

	media, err := p.Resolve(context.Background(), domain.NewDownloadRequest("https://www.tiktok.com/@u/video/1"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !strings.HasSuffix(media.LocalPath, ".avi") {
		t.Errorf("LocalPath = %q, directory scan should have found the .avi", media.LocalPath)
	}
}

func TestPrimary_Resolve_SmallFileDeleted(t *testing.T) {
	runner := &fakeRunner{
		results: []fakeResult{{stdout: `{}`}, {}},
	}
	p := testPrimary(t, runner)
	var downloaded string
	runner.onDownload = func(args []string) {
		tmpl := argAfter(args, "-o")
		id := strings.TrimSuffix(filepath.Base(tmpl), ".%(ext)s")
		downloaded = filepath.Join(p.dir, id+".mp4")
		writeFile(t, downloaded, domain.MinVideoBytes-1)
	}

	_, err := p.Resolve(context.Background(), domain.NewDownloadRequest("https://www.tiktok.com/@u/video/1"))
	f, ok := domain.AsFailure(err)
	if !ok || f.Kind != domain.KindFileTooSmall {
		t.Fatalf("error = %v, want FileTooSmall failure", err)
	}
	if _, statErr := os.Stat(downloaded); !os.IsNotExist(statErr) {
		t.Error("undersized file should have been deleted")
	}
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
