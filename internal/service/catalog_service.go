package service

import (
	"github.com/stemsi/exsim-backend/internal/catalog"
	"github.com/stemsi/exsim-backend/internal/difficulty"
	"github.com/stemsi/exsim-backend/internal/model"
)

// CatalogService exposes the module, mode and difficulty tables.
type CatalogService struct {
	modules []model.Module
	modes   []model.ExamMode
}

// NewCatalogService creates a CatalogService over the built-in tables.
func NewCatalogService() *CatalogService {
	return &CatalogService{
		modules: catalog.Modules(),
		modes:   catalog.Modes(),
	}
}

// CatalogView is the module listing shown to clients.
type CatalogView struct {
	Modules         []model.Module         `json:"modules"`
	ActiveCount     int                    `json:"active_count"`
	CountByCategory map[model.Category]int `json:"count_by_category"`
}

// Modules returns the catalog with per-category counts of active modules.
func (s *CatalogService) Modules() CatalogView {
	return CatalogView{
		Modules:         append([]model.Module(nil), s.modules...),
		ActiveCount:     len(catalog.Active(s.modules)),
		CountByCategory: catalog.CountByCategory(s.modules),
	}
}

// Modes returns the exam modes.
func (s *CatalogService) Modes() []model.ExamMode {
	return append([]model.ExamMode(nil), s.modes...)
}

// DifficultyProfiles returns the difficulty profiles, easiest first.
func (s *CatalogService) DifficultyProfiles() []model.DifficultyProfile {
	return difficulty.Profiles()
}

// ModuleTable returns the module table sessions select from.
func (s *CatalogService) ModuleTable() []model.Module { return s.modules }

// ModeTable returns the mode table sessions resolve against.
func (s *CatalogService) ModeTable() []model.ExamMode { return s.modes }
