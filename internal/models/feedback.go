package models

import "time"

// Feedback is an anonymous page rating. Append-only.
type Feedback struct {
	ID        string
	Rating    int
	Message   string
	Page      string
	CreatedAt time.Time
}

// FeedbackStats is the computed analytics view over all feedback.
type FeedbackStats struct {
	Total         int64
	AverageRating float64
	Distribution  map[int]int64
	PageBreakdown []PageFeedbackStats
}

// PageFeedbackStats is the per-page slice of the analytics.
type PageFeedbackStats struct {
	Page          string
	Count         int64
	AverageRating float64
}
