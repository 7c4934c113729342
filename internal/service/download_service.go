package service

import (
	"context"
	"log/slog"

	"reelgrab/internal/domain"
)

// PrimaryResolver is the extraction-engine strategy, tried first for every
// supported URL.
type PrimaryResolver interface {
	Resolve(ctx context.Context, req domain.DownloadRequest) (*domain.ResolvedMedia, error)
}

// AlternativeResolver is a platform-specific mirror-service fallback.
type AlternativeResolver interface {
	Resolve(ctx context.Context, pageURL string) (*domain.ResolvedMedia, error)
}

// DownloadService is the download orchestrator: it classifies the URL, runs
// the primary resolver, and falls back exactly once to the platform's
// alternative resolver. It is the only entry point collaborators use.
type DownloadService struct {
	primary   PrimaryResolver
	instagram AlternativeResolver
	tiktok    AlternativeResolver
	logger    *slog.Logger
}

// NewDownloadService wires the orchestrator.
func NewDownloadService(
	primary PrimaryResolver,
	instagram AlternativeResolver,
	tiktok AlternativeResolver,
	logger *slog.Logger,
) *DownloadService {
	return &DownloadService{
		primary:   primary,
		instagram: instagram,
		tiktok:    tiktok,
		logger:    logger,
	}
}

// Resolve downloads the video behind rawURL. Exactly one ResolvedMedia or one
// DownloadFailure comes out of every call.
//
// When both strategies fail, the PRIMARY failure is the one returned: it
// carries the more specific, user-actionable message. The alternative's
// failure is logged for diagnostics and then discarded — never merged,
// never surfaced.
func (s *DownloadService) Resolve(ctx context.Context, rawURL string) (*domain.ResolvedMedia, error) {
	return s.ResolveWithProgress(ctx, rawURL, nil)
}

// ResolveWithProgress is Resolve with a hook fired right before the
// alternative strategy starts, so callers can tell the user a fallback
// attempt is underway. A nil hook is allowed.
func (s *DownloadService) ResolveWithProgress(ctx context.Context, rawURL string, onFallback func()) (*domain.ResolvedMedia, error) {
	req := domain.NewDownloadRequest(rawURL)
	if req.Platform == domain.PlatformUnsupported {
		return nil, domain.NewFailure(domain.KindUnsupported, domain.StrategyPrimary, domain.MsgUnsupported)
	}

	media, primaryErr := s.primary.Resolve(ctx, req)
	if primaryErr == nil {
		return media, nil
	}

	s.logger.Warn("primary resolver failed, trying alternative",
		"url", rawURL,
		"platform", req.Platform,
		"error", primaryErr,
	)

	alt := s.alternativeFor(req.Platform)
	if alt == nil {
		return nil, primaryErr
	}

	if onFallback != nil {
		onFallback()
	}

	altMedia, altErr := alt.Resolve(ctx, rawURL)
	if altErr != nil {
		s.logger.Warn("alternative resolver also failed, surfacing primary failure",
			"url", rawURL,
			"primary_error", primaryErr,
			"alternative_error", altErr,
		)
		return nil, primaryErr
	}

	altMedia.Strategy = domain.StrategyAlternative
	return altMedia, nil
}

// ResolveInstagramAlternative runs the Instagram mirror fallback directly,
// bypassing the primary strategy.
func (s *DownloadService) ResolveInstagramAlternative(ctx context.Context, pageURL string) (*domain.ResolvedMedia, error) {
	return s.instagram.Resolve(ctx, pageURL)
}

// ResolveTikTokAlternative runs the TikTok mirror fallback directly,
// bypassing the primary strategy.
func (s *DownloadService) ResolveTikTokAlternative(ctx context.Context, pageURL string) (*domain.ResolvedMedia, error) {
	return s.tiktok.Resolve(ctx, pageURL)
}

func (s *DownloadService) alternativeFor(platform domain.Platform) AlternativeResolver {
	switch platform {
	case domain.PlatformInstagram:
		return s.instagram
	case domain.PlatformTikTok:
		return s.tiktok
	default:
		return nil
	}
}
