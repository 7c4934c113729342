package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelgrab/internal/config"
	"reelgrab/internal/domain"
)

// mediaExtensions are the container extensions yt-dlp plausibly produces,
// checked in order before falling back to a directory scan.
var mediaExtensions = []string{".mp4", ".webm", ".mkv", ".mov"}

// Primary resolves a page URL through the yt-dlp extraction engine. It probes
// metadata first to fail fast with a classified error, then downloads the
// best pre-encoded format into the working directory.
type Primary struct {
	runner        Runner
	classifier    *Classifier
	dir           string
	userAgent     string
	probeTimeout  time.Duration
	streamTimeout time.Duration
	logger        *slog.Logger
}

// NewPrimary creates the yt-dlp based resolver.
func NewPrimary(dlCfg config.DownloadConfig, stCfg config.StorageConfig, logger *slog.Logger) *Primary {
	return &Primary{
		runner:        NewExecRunner(dlCfg.YtDlpPath),
		classifier:    NewClassifier(),
		dir:           stCfg.DownloadDir,
		userAgent:     dlCfg.UserAgent,
		probeTimeout:  dlCfg.ProbeTimeout,
		streamTimeout: dlCfg.StreamTimeout,
		logger:        logger,
	}
}

// Resolve runs the probe-then-download flow for a classified request.
func (p *Primary) Resolve(ctx context.Context, req domain.DownloadRequest) (*domain.ResolvedMedia, error) {
	if req.Platform == domain.PlatformUnsupported {
		return nil, domain.NewFailure(domain.KindUnsupported, domain.StrategyPrimary, domain.MsgUnsupported)
	}

	if err := p.probe(ctx, req); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	id := uuid.New().String()
	args := append(p.headerArgs(req.Platform),
		"-f", "best",
		"--no-warnings",
		"--no-check-certificates",
		"-o", filepath.Join(p.dir, id+".%(ext)s"),
		req.URL,
	)

	p.logger.Info("starting primary download", "url", req.URL, "platform", req.Platform)

	// The transfer gets its own deadline; a hung engine process must not
	// hold a worker indefinitely.
	dlCtx, cancel := context.WithTimeout(ctx, p.streamTimeout)
	defer cancel()

	_, stderr, err := p.runner.Run(dlCtx, args...)
	if err != nil {
		return nil, p.classifier.Classify(engineError(stderr, err), domain.StrategyPrimary)
	}

	path, ok := p.locate(id)
	if !ok {
		return nil, domain.NewFailure(domain.KindFileNotFound, domain.StrategyPrimary, domain.MsgFileNotFound)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.NewFailure(domain.KindFileNotFound, domain.StrategyPrimary, domain.MsgFileNotFound)
	}

	if info.Size() < domain.MinVideoBytes {
		os.Remove(path)
		return nil, domain.NewFailure(domain.KindFileTooSmall, domain.StrategyPrimary, domain.MsgFileTooSmall)
	}

	p.logger.Info("primary download completed", "path", path, "bytes", info.Size())

	return &domain.ResolvedMedia{
		LocalPath: path,
		ByteSize:  info.Size(),
		Strategy:  domain.StrategyPrimary,
	}, nil
}

// probe extracts metadata without transferring media bytes. An empty result
// means the link is invalid or not public.
func (p *Primary) probe(ctx context.Context, req domain.DownloadRequest) error {
	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	args := append(p.headerArgs(req.Platform),
		"--dump-single-json",
		"--skip-download",
		"--no-warnings",
		req.URL,
	)

	stdout, stderr, err := p.runner.Run(probeCtx, args...)
	if err != nil {
		return p.classifier.Classify(engineError(stderr, err), domain.StrategyPrimary)
	}
	if strings.TrimSpace(stdout) == "" {
		return domain.NewFailure(domain.KindFileNotFound, domain.StrategyPrimary, domain.MsgNoInfo)
	}
	return nil
}

// headerArgs builds the platform-specific browser identity flags.
func (p *Primary) headerArgs(platform domain.Platform) []string {
	args := []string{
		"--user-agent", p.userAgent,
		"--referer", platform.Referer(),
	}
	if platform == domain.PlatformInstagram {
		args = append(args,
			"--add-header", "Accept: text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"--add-header", "Accept-Language: en-US,en;q=0.5",
		)
	}
	return args
}

// locate finds the downloaded file: fixed extensions against the expected
// stem first, then any file in the directory carrying the unique id.
func (p *Primary) locate(id string) (string, bool) {
	for _, ext := range mediaExtensions {
		path := filepath.Join(p.dir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.Contains(entry.Name(), id) {
			return filepath.Join(p.dir, entry.Name()), true
		}
	}
	return "", false
}

// engineError merges stderr with the exec error so the classifier sees the
// engine's own wording when it exists.
func engineError(stderr string, err error) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err.Error()
	}
	return stderr
}
