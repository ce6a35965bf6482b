package catalog

import "github.com/stemsi/exsim-backend/internal/model"

// DefaultModeID is used whenever a requested mode is unknown.
const DefaultModeID = "standard"

var modes = []model.ExamMode{
	{ID: "quick", Title: "Quick", ModuleCount: 5, EstimatedMinutes: 12},
	{ID: "standard", Title: "Standard", ModuleCount: 10, EstimatedMinutes: 25},
	{ID: "full", Title: "Full", ModuleCount: 20, EstimatedMinutes: 45},
}

// Modes returns a copy of the mode catalog.
func Modes() []model.ExamMode {
	return append([]model.ExamMode(nil), modes...)
}

// ResolveMode finds id in table. An unknown id resolves to the default mode
// of the table, or the first entry when the default is missing.
func ResolveMode(table []model.ExamMode, id string) model.ExamMode {
	var fallback *model.ExamMode
	for i := range table {
		if table[i].ID == id {
			return table[i]
		}
		if table[i].ID == DefaultModeID {
			fallback = &table[i]
		}
	}
	if fallback != nil {
		return *fallback
	}
	if len(table) > 0 {
		return table[0]
	}
	return model.ExamMode{ID: DefaultModeID, Title: "Standard", ModuleCount: 10, EstimatedMinutes: 25}
}
