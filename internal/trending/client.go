package trending

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"reelgrab/internal/config"
	"reelgrab/internal/domain"
)

const (
	feedPath   = "/api/feed/list"
	searchPath = "/api/feed/search"
	postsPath  = "/api/user/posts"

	// The API caps page sizes, so we over-fetch and filter locally.
	feedRequestCount   = 200
	searchRequestCount = 100

	requestTimeout = 30 * time.Second
)

// SortKey selects the ordering of search results.
type SortKey string

const (
	SortByLikes SortKey = "likes"
	SortByViews SortKey = "views"
	SortByDate  SortKey = "date"
)

// FeedQuery filters the trending feed.
type FeedQuery struct {
	Region string
	Days   int
	Limit  int
}

// SearchQuery filters a hashtag search.
type SearchQuery struct {
	Hashtag string
	Region  string
	Limit   int
	SortBy  SortKey
}

// Client talks to the TikWM aggregation API. Every operation returns an
// ordered slice; failures of any kind (transport, bad status, rejected
// request, malformed payload) are logged and collapse to an empty result —
// absence of data is the only failure signal callers see.
type Client struct {
	baseURL   string
	client    *http.Client
	userAgent string
	region    string
	logger    *slog.Logger
}

// NewClient builds a trending client from configuration.
func NewClient(cfg config.TrendingConfig, userAgent string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		client:    &http.Client{Timeout: requestTimeout},
		userAgent: userAgent,
		region:    cfg.DefaultRegion,
		logger:    logger.With("component", "trending"),
	}
}

// Upstream record schemas. Every field is optional; missing or malformed
// values resolve to defaults during conversion instead of failing the call.

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type videoRecord struct {
	VideoID    string       `json:"video_id"`
	Title      string       `json:"title"`
	Cover      string       `json:"cover"`
	PlayCount  int64        `json:"play_count"`
	DiggCount  int64        `json:"digg_count"`
	CreateTime int64        `json:"create_time"`
	Author     authorRecord `json:"author"`
	Music      musicRecord  `json:"music_info"`
}

type authorRecord struct {
	UniqueID string `json:"unique_id"`
	Nickname string `json:"nickname"`
}

type musicRecord struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Play     string `json:"play"`
	Cover    string `json:"cover"`
	Duration int    `json:"duration"`
}

type videoList struct {
	Videos []videoRecord `json:"videos"`
}

func (v videoRecord) toDomain() domain.TrendingVideo {
	title := v.Title
	if title == "" {
		title = "Sem título"
	}
	author := v.Author.Nickname
	if author == "" {
		author = "Desconhecido"
	}
	authorID := v.Author.UniqueID
	if authorID == "" {
		authorID = "user"
	}

	out := domain.TrendingVideo{
		Title:    title,
		Author:   author,
		AuthorID: authorID,
		URL:      "https://www.tiktok.com/@" + authorID + "/video/" + v.VideoID,
		CoverURL: v.Cover,
		Views:    v.PlayCount,
		Likes:    v.DiggCount,
	}
	if v.CreateTime > 0 {
		out.CreatedAt = time.Unix(v.CreateTime, 0)
	}
	return out
}

// Feed returns the trending feed for a region, keeping only videos newer than
// q.Days and sorting by likes. When the date filter leaves fewer than q.Limit
// videos, the unfiltered feed is used instead so the command never comes back
// thin just because the feed is stale.
func (c *Client) Feed(ctx context.Context, q FeedQuery) []domain.TrendingVideo {
	region := q.Region
	if region == "" {
		region = c.region
	}

	data, ok := c.postForm(ctx, feedPath, url.Values{
		"region": {region},
		"count":  {strconv.Itoa(feedRequestCount)},
	})
	if !ok {
		return nil
	}

	var records []videoRecord
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Error("decoding feed payload", "error", err)
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -q.Days)

	var recent, all []domain.TrendingVideo
	for _, r := range records {
		v := r.toDomain()
		all = append(all, v)
		if !v.CreatedAt.Before(cutoff) {
			recent = append(recent, v)
		}
	}

	sortVideos(recent, SortByLikes)
	sortVideos(all, SortByLikes)

	if len(recent) < q.Limit {
		c.logger.Warn("too few recent trending videos, using the full feed",
			"recent", len(recent), "days", q.Days)
		return clip(all, q.Limit)
	}
	return clip(recent, q.Limit)
}

// Search returns videos matching a hashtag, sorted per q.SortBy.
func (c *Client) Search(ctx context.Context, q SearchQuery) []domain.TrendingVideo {
	region := q.Region
	if region == "" {
		region = c.region
	}
	hashtag := strings.TrimPrefix(strings.TrimSpace(q.Hashtag), "#")

	data, ok := c.postForm(ctx, searchPath, url.Values{
		"keywords": {"#" + hashtag},
		"count":    {strconv.Itoa(searchRequestCount)},
		"region":   {region},
	})
	if !ok {
		return nil
	}

	var list videoList
	if err := json.Unmarshal(data, &list); err != nil {
		c.logger.Error("decoding search payload", "error", err)
		return nil
	}
	if len(list.Videos) == 0 {
		c.logger.Warn("no videos found for hashtag", "hashtag", hashtag)
		return nil
	}

	videos := make([]domain.TrendingVideo, 0, len(list.Videos))
	for _, r := range list.Videos {
		videos = append(videos, r.toDomain())
	}
	sortVideos(videos, q.SortBy)
	return clip(videos, q.Limit)
}

// CreatorPosts returns a creator's recent posts, newest first.
func (c *Client) CreatorPosts(ctx context.Context, username string, limit int) []domain.TrendingVideo {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")

	data, ok := c.postForm(ctx, postsPath, url.Values{
		"unique_id": {username},
		"count":     {strconv.Itoa(searchRequestCount)},
	})
	if !ok {
		return nil
	}

	var list videoList
	if err := json.Unmarshal(data, &list); err != nil {
		c.logger.Error("decoding creator posts payload", "error", err)
		return nil
	}

	videos := make([]domain.TrendingVideo, 0, len(list.Videos))
	for _, r := range list.Videos {
		videos = append(videos, r.toDomain())
	}
	sortVideos(videos, SortByDate)
	return clip(videos, limit)
}

// Sounds derives the trending audio tracks from the trending feed: every feed
// record carries its music, so grouping by track and counting appearances
// ranks the sounds without a second upstream endpoint.
func (c *Client) Sounds(ctx context.Context, region string, limit int) []domain.TrendingSound {
	if region == "" {
		region = c.region
	}

	data, ok := c.postForm(ctx, feedPath, url.Values{
		"region": {region},
		"count":  {strconv.Itoa(feedRequestCount)},
	})
	if !ok {
		return nil
	}

	var records []videoRecord
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Error("decoding feed payload", "error", err)
		return nil
	}

	byTrack := make(map[string]*domain.TrendingSound)
	var order []string
	for _, r := range records {
		m := r.Music
		if m.Play == "" {
			continue
		}
		if s, seen := byTrack[m.Play]; seen {
			s.UseCount++
			continue
		}
		title := m.Title
		if title == "" {
			title = "Sem título"
		}
		author := m.Author
		if author == "" {
			author = "Desconhecido"
		}
		byTrack[m.Play] = &domain.TrendingSound{
			Title:    title,
			Author:   author,
			URL:      m.Play,
			CoverURL: m.Cover,
			Duration: m.Duration,
			UseCount: 1,
		}
		order = append(order, m.Play)
	}

	sounds := make([]domain.TrendingSound, 0, len(order))
	for _, key := range order {
		sounds = append(sounds, *byTrack[key])
	}
	sort.SliceStable(sounds, func(i, j int) bool {
		return sounds[i].UseCount > sounds[j].UseCount
	})
	if limit > 0 && len(sounds) > limit {
		sounds = sounds[:limit]
	}
	return sounds
}

// postForm sends one form POST and unwraps the API envelope. The bool result
// is the only error signal.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) (json.RawMessage, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		c.logger.Error("building request", "path", path, "error", err)
		return nil, false
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("calling trending API", "path", path, "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("trending API returned bad status", "path", path, "status", resp.StatusCode)
		return nil, false
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.logger.Error("decoding trending API response", "path", path, "error", err)
		return nil, false
	}
	if env.Code != 0 {
		c.logger.Error("trending API rejected request", "path", path, "code", env.Code, "msg", env.Msg)
		return nil, false
	}
	return env.Data, true
}

func sortVideos(videos []domain.TrendingVideo, key SortKey) {
	sort.SliceStable(videos, func(i, j int) bool {
		switch key {
		case SortByViews:
			return videos[i].Views > videos[j].Views
		case SortByDate:
			return videos[i].CreatedAt.After(videos[j].CreatedAt)
		default:
			return videos[i].Likes > videos[j].Likes
		}
	})
}

func clip(videos []domain.TrendingVideo, limit int) []domain.TrendingVideo {
	if limit > 0 && len(videos) > limit {
		return videos[:limit]
	}
	return videos
}
