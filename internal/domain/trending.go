package domain

import "time"

// TrendingVideo is a flat record describing one video from the trending or
// search feeds. Missing upstream fields resolve to documented defaults:
// Title "Sem título", Author "Desconhecido", counters zero.
type TrendingVideo struct {
	Title     string
	Author    string
	AuthorID  string
	URL       string
	CoverURL  string
	Views     int64
	Likes     int64
	CreatedAt time.Time
}

// TrendingSound is a flat record describing one trending audio track.
type TrendingSound struct {
	Title    string
	Author   string
	URL      string
	CoverURL string
	Duration int
	UseCount int64
}

// CreatorStats summarizes a creator's recent posts for the analytics command.
type CreatorStats struct {
	Username       string
	PostCount      int
	TotalViews     int64
	TotalLikes     int64
	AvgViews       int64
	AvgLikes       int64
	EngagementRate float64 // likes per view across the sample, 0..1
	TopVideo       *TrendingVideo
}

// HashtagInsight carries aggregate engagement figures for one hashtag,
// used to spot content gaps.
type HashtagInsight struct {
	Hashtag        string
	VideoCount     int
	AvgViews       int64
	EngagementRate float64
	IsContentGap   bool
}
