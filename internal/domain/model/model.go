// Package model contains domain values passed between layers.
package model

import "time"

// HistoryEntry is one analysis record in a user's history log. Entries are
// immutable once created.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Item       string    `json:"item"`
	Score      float64   `json:"score"`
	XPGained   int       `json:"xpGained"`
	AnalyzedAt time.Time `json:"analyzedAt"`
}

// User is the per-user progression ledger.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"passwordHash,omitempty"`
	XP            int       `json:"xp"`
	Level         int       `json:"level"`
	TotalAnalyses int       `json:"totalAnalyses"`
	CurrentStreak int       `json:"currentStreak"`
	BestStreak    int       `json:"bestStreak"`
	JoinDate      time.Time `json:"joinDate"`
}

// StageImpact describes one lifecycle stage of an analyzed item.
type StageImpact struct {
	Score  float64 `json:"score"`
	Impact string  `json:"impact"`
}

// Analysis is a validated environmental-impact result from the analysis
// provider. SustainabilityScore is on a 0-10 scale where lower is better.
type Analysis struct {
	Item                string                 `json:"item"`
	SustainabilityScore float64                `json:"sustainabilityScore"`
	XPGained            int                    `json:"xpGained"`
	CarbonFootprint     float64                `json:"carbonFootprint"`
	WaterUsage          float64                `json:"waterUsage"`
	LandfillTime        float64                `json:"landfillTime"`
	Recyclability       float64                `json:"recyclability"`
	Stages              map[string]StageImpact `json:"stages,omitempty"`
	Description         string                 `json:"description"`
	Confidence          string                 `json:"confidence"`
	DataSources         string                 `json:"dataSources"`
}

// Notification is the tagged XP outcome of an analysis; how it is rendered
// (toast, banner, nothing) is the caller's decision.
type Notification struct {
	XPGained  int  `json:"xpGained"`
	LeveledUp bool `json:"leveledUp"`
	NewLevel  int  `json:"newLevel,omitempty"`
}

// LeaderboardEntry is a derived, ephemeral ranking row. It is recomputed
// from ledgers and history logs on each query, never persisted.
type LeaderboardEntry struct {
	UserID        string `json:"id"`
	Name          string `json:"name"`
	Level         int    `json:"level"`
	XP            int    `json:"xp"`
	WeeklyXP      int    `json:"weeklyXP"`
	Rank          int    `json:"rank"`
	IsCurrentUser bool   `json:"isCurrentUser"`
}
