package models

// Statistics summarizes a user's collection
type Statistics struct {
	Total            int            `json:"total"`
	Due              int            `json:"due"`
	WithProgress     int            `json:"with_progress"` // correct_streak > 0
	ReviewsLast7Days int            `json:"reviews_last_7_days"`
	RememberedLast7  int            `json:"remembered_last_7_days"`
	ByTopic          map[string]int `json:"by_topic"`
}

// SuccessRate returns the share of remembered reviews over the last 7 days, in percent
func (s *Statistics) SuccessRate() float64 {
	if s.ReviewsLast7Days == 0 {
		return 0
	}
	return float64(s.RememberedLast7) / float64(s.ReviewsLast7Days) * 100
}
