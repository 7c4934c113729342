package bot

import (
	"strings"
	"testing"

	"reelgrab/internal/domain"
)

func TestFormatTrendingList(t *testing.T) {
	videos := []domain.TrendingVideo{
		{Title: "dance clip", Author: "Ana", Views: 1500000, Likes: 32000},
		{Title: "cooking", Author: "Bia", Views: 900, Likes: 12},
	}

	out := formatTrendingList("🔥 *Vídeos em alta (BR):*", videos)

	for _, want := range []string{"*1.*", "*2.*", "dance clip", "Ana", "1,500,000", "32,000"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTrendingList_EscapesMarkdown(t *testing.T) {
	videos := []domain.TrendingVideo{
		{Title: "my_video *wow*", Author: "Ana"},
	}

	out := formatTrendingList("header", videos)
	if !strings.Contains(out, `my\_video \*wow\*`) {
		t.Errorf("title not escaped:\n%s", out)
	}
}

func TestFormatDownloadError(t *testing.T) {
	out := formatDownloadError(domain.MsgPrivate)

	if !strings.Contains(out, domain.MsgPrivate) {
		t.Error("error text missing from the message")
	}
	if !strings.Contains(out, "Dicas") {
		t.Error("tips block missing from the message")
	}
}

func TestFormatCreatorStats(t *testing.T) {
	top := domain.TrendingVideo{Title: "viral", Views: 2000000}
	stats := domain.CreatorStats{
		Username:       "ana",
		PostCount:      30,
		TotalViews:     5000000,
		TotalLikes:     250000,
		AvgViews:       166666,
		AvgLikes:       8333,
		EngagementRate: 0.05,
		TopVideo:       &top,
	}

	out := formatCreatorStats(stats)

	for _, want := range []string{"@ana", "30", "5,000,000", "5.0%", "viral"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCreatorStats_NoPosts(t *testing.T) {
	out := formatCreatorStats(domain.CreatorStats{Username: "ana"})
	if !strings.Contains(out, "@ana") || !strings.Contains(out, "Não encontrei") {
		t.Errorf("empty-sample message wrong:\n%s", out)
	}
}

func TestFormatHashtagComparison(t *testing.T) {
	insights := []domain.HashtagInsight{
		{Hashtag: "niche", VideoCount: 2, AvgViews: 1500000, EngagementRate: 0.25, IsContentGap: true},
		{Hashtag: "crowded", VideoCount: 40, AvgViews: 800, EngagementRate: 0.01},
	}

	out := formatHashtagComparison(insights)

	for _, want := range []string{"#niche", "#crowded", "1,500,000", "25.0%", "Oportunidade"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "Oportunidade") != 1 {
		t.Errorf("only the gap hashtag should be flagged:\n%s", out)
	}
}

func TestFormatHashtagComparison_NothingSampled(t *testing.T) {
	insights := []domain.HashtagInsight{
		{Hashtag: "ghost"},
		{Hashtag: "empty"},
	}
	if out := formatHashtagComparison(insights); out != msgNoComparison {
		t.Errorf("output = %q, want the no-results notice", out)
	}
}

func TestFormatSoundsList(t *testing.T) {
	sounds := []domain.TrendingSound{
		{Title: "Track A", Author: "DJ A", UseCount: 12},
	}

	out := formatSoundsList(sounds)
	for _, want := range []string{"Track A", "DJ A", "12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data   string
		wantID string
		wantOK bool
	}{
		{"dl:0123456789abcdef", "0123456789abcdef", true},
		{"dl:", "", false},
		{"other:abc", "", false},
		{"", "", false},
		{"0123456789abcdef", "", false},
	}

	for _, tt := range tests {
		id, ok := parseCallback(tt.data)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("parseCallback(%q) = %q, %v; want %q, %v", tt.data, id, ok, tt.wantID, tt.wantOK)
		}
	}
}
