package dto

import "github.com/spec-kit/plantpal-service/internal/domain"

// StatsResponse feeds the admin dashboard charts.
type StatsResponse struct {
	Counts   StatsCounts      `json:"counts"`
	Timeline []TimelineEntry  `json:"timeline"`
	Popular  []PopularityItem `json:"popular"`
}

type StatsCounts struct {
	Users  int64 `json:"users"`
	Plants int64 `json:"plants"`
}

type TimelineEntry struct {
	Date  string `json:"date"`
	Users int64  `json:"users"`
}

type PopularityItem struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

func NewStatsResponse(s *domain.Stats) StatsResponse {
	resp := StatsResponse{
		Counts:   StatsCounts{Users: s.UserCount, Plants: s.PlantCount},
		Timeline: make([]TimelineEntry, 0, len(s.Timeline)),
		Popular:  make([]PopularityItem, 0, len(s.Popular)),
	}
	for _, t := range s.Timeline {
		resp.Timeline = append(resp.Timeline, TimelineEntry{Date: t.Date, Users: t.Users})
	}
	for _, p := range s.Popular {
		resp.Popular = append(resp.Popular, PopularityItem{Name: p.Name, Count: p.Count})
	}
	return resp
}
