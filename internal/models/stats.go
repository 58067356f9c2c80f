package models

// DashboardStats is the server-computed aggregate the dashboard charts
// render. All buckets are derived from the user's interview and coding
// session records.
type DashboardStats struct {
	TotalInterviews     int             `json:"total_interviews"`
	TotalCodingSessions int             `json:"total_coding_sessions"`
	TypeDistribution    []TypeCount     `json:"type_distribution"`
	MonthlyActivity     []MonthActivity `json:"monthly_activity"` // last six months, oldest first
	DurationRanges      []DurationCount `json:"duration_ranges"`
}

type TypeCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type MonthActivity struct {
	Month      string `json:"month"` // "Jan", "Feb", ...
	Interviews int    `json:"interviews"`
	Coding     int    `json:"coding"`
}

type DurationCount struct {
	Range string `json:"range"` // "0-15 min", ...
	Count int    `json:"count"`
}
