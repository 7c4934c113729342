package trending

import (
	"sort"

	"reelgrab/internal/domain"
)

// SummarizeCreator aggregates a creator's posts into the stats shown by the
// analytics command. An empty sample yields zeroed stats with no top video.
func SummarizeCreator(username string, posts []domain.TrendingVideo) domain.CreatorStats {
	stats := domain.CreatorStats{
		Username:  username,
		PostCount: len(posts),
	}
	if len(posts) == 0 {
		return stats
	}

	var top *domain.TrendingVideo
	for i := range posts {
		p := &posts[i]
		stats.TotalViews += p.Views
		stats.TotalLikes += p.Likes
		if top == nil || p.Views > top.Views {
			top = p
		}
	}

	n := int64(len(posts))
	stats.AvgViews = stats.TotalViews / n
	stats.AvgLikes = stats.TotalLikes / n
	if stats.TotalViews > 0 {
		stats.EngagementRate = float64(stats.TotalLikes) / float64(stats.TotalViews)
	}

	topCopy := *top
	stats.TopVideo = &topCopy
	return stats
}

// FindContentGaps compares hashtag samples against each other and marks the
// ones with above-average engagement but below-average competition. Results
// come back ordered by engagement, strongest first.
func FindContentGaps(byHashtag map[string][]domain.TrendingVideo) []domain.HashtagInsight {
	if len(byHashtag) == 0 {
		return nil
	}

	insights := make([]domain.HashtagInsight, 0, len(byHashtag))
	for hashtag, videos := range byHashtag {
		insight := domain.HashtagInsight{
			Hashtag:    hashtag,
			VideoCount: len(videos),
		}
		var views, likes int64
		for _, v := range videos {
			views += v.Views
			likes += v.Likes
		}
		if len(videos) > 0 {
			insight.AvgViews = views / int64(len(videos))
		}
		if views > 0 {
			insight.EngagementRate = float64(likes) / float64(views)
		}
		insights = append(insights, insight)
	}

	var engagementSum float64
	var countSum int
	for _, in := range insights {
		engagementSum += in.EngagementRate
		countSum += in.VideoCount
	}
	avgEngagement := engagementSum / float64(len(insights))
	avgCount := float64(countSum) / float64(len(insights))

	for i := range insights {
		in := &insights[i]
		in.IsContentGap = in.EngagementRate > avgEngagement && float64(in.VideoCount) < avgCount
	}

	sort.SliceStable(insights, func(i, j int) bool {
		if insights[i].EngagementRate != insights[j].EngagementRate {
			return insights[i].EngagementRate > insights[j].EngagementRate
		}
		return insights[i].Hashtag < insights[j].Hashtag
	})
	return insights
}
