package domain

// LeaderboardEntry is one submitted score. Entries carry no identity: the
// same name may appear any number of times, once per submission.
type LeaderboardEntry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}
