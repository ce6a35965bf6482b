package model

// Category groups modules by the cognitive skill they exercise.
type Category string

const (
	CategoryMemory     Category = "memory"
	CategoryLogic      Category = "logic"
	CategoryAttention  Category = "attention"
	CategoryVerbal     Category = "verbal"
	CategorySpeed      Category = "speed"
	CategoryPerception Category = "perception"
	CategorySocial     Category = "social"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryMemory,
	CategoryLogic,
	CategoryAttention,
	CategoryVerbal,
	CategorySpeed,
	CategoryPerception,
	CategorySocial,
}

// Module is one timed exercise in the catalog.
type Module struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Link      string   `json:"link"`
	SkillCode string   `json:"skill_code"`
	Category  Category `json:"category"`
	TimeLimit int      `json:"time_limit"` // nominal seconds
	Active    bool     `json:"active"`
}

// ExamMode fixes how many modules a session contains.
type ExamMode struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	ModuleCount      int    `json:"module_count"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

// DifficultyProfile describes how a level scales a module.
type DifficultyProfile struct {
	Level               int     `json:"level"`
	Name                string  `json:"name"`
	TimeMultiplier      float64 `json:"time_multiplier"`
	ItemCountMultiplier float64 `json:"item_count_multiplier"`
}

// Assignment is what the module runner needs to present the current module.
type Assignment struct {
	ModuleID            string            `json:"module_id"`
	Title               string            `json:"title"`
	Link                string            `json:"link"`
	Category            Category          `json:"category"`
	Level               int               `json:"level"`
	Profile             DifficultyProfile `json:"profile"`
	TimeLimitSeconds    int               `json:"time_limit_seconds"`
	ItemCountMultiplier float64           `json:"item_count_multiplier"`
	Position            int               `json:"position"`
	Total               int               `json:"total"`
}
