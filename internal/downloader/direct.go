package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"reelgrab/internal/config"
	"reelgrab/internal/domain"
)

// copyChunkSize is the streaming buffer size. Bodies are never held in
// memory whole.
const copyChunkSize = 8192

// Direct streams an already-resolved media URL into the local download
// directory. It is the leaf primitive shared by every resolution strategy.
type Direct struct {
	client    *http.Client
	dir       string
	userAgent string
	logger    *slog.Logger
}

// NewDirect creates the direct-fetch primitive.
func NewDirect(dlCfg config.DownloadConfig, stCfg config.StorageConfig, logger *slog.Logger) *Direct {
	return &Direct{
		client: &http.Client{
			Timeout: dlCfg.StreamTimeout,
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
		dir:       stCfg.DownloadDir,
		userAgent: dlCfg.UserAgent,
		logger:    logger,
	}
}

// Fetch downloads mediaURL into a uniquely named local file and validates its
// size. The platform hint selects the referer header; origin CDNs reject
// requests without a browser identity.
func (d *Direct) Fetch(ctx context.Context, mediaURL string, platform domain.Platform) (*domain.ResolvedMedia, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, domain.Failuref(domain.KindNetworkError, domain.StrategyAlternative,
			"Erro ao baixar do URL direto: %s", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Referer", platform.Referer())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, domain.Failuref(domain.KindNetworkError, domain.StrategyAlternative,
			"Erro ao baixar do URL direto: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.Failuref(domain.KindNetworkError, domain.StrategyAlternative,
			"Erro ao baixar do URL direto: status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	path := filepath.Join(d.dir, fmt.Sprintf("%s_%s.mp4", uuid.New().String(), platform))
	size, err := d.writeBody(path, resp.Body)
	if err != nil {
		os.Remove(path)
		return nil, domain.Failuref(domain.KindNetworkError, domain.StrategyAlternative,
			"Erro ao baixar do URL direto: %s", err)
	}

	if size < domain.MinVideoBytes {
		os.Remove(path)
		d.logger.Warn("direct fetch produced undersized file",
			"path", path,
			"bytes", size,
		)
		return nil, domain.NewFailure(domain.KindFileTooSmall, domain.StrategyAlternative, domain.MsgFileTooSmall)
	}

	d.logger.Info("direct fetch completed",
		"path", path,
		"bytes", size,
		"platform", platform,
	)

	return &domain.ResolvedMedia{
		LocalPath: path,
		ByteSize:  size,
		Strategy:  domain.StrategyAlternative,
	}, nil
}

func (d *Direct) writeBody(path string, body io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	buf := make([]byte, copyChunkSize)
	size, err := io.CopyBuffer(f, body, buf)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return size, err
}
