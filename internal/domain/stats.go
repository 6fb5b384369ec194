package domain

// Stats aggregates figures for the admin dashboard.
type Stats struct {
	UserCount  int64
	PlantCount int64
	Timeline   []DailySignups
	Popular    []PlantPopularity
}

// DailySignups counts users created on a calendar day (YYYY-MM-DD).
type DailySignups struct {
	Date  string
	Users int64
}

// PlantPopularity counts saved plants per common name.
type PlantPopularity struct {
	Name  string
	Count int64
}
