package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exsim-backend/internal/response"
	"github.com/stemsi/exsim-backend/internal/service"
)

// CatalogHandler serves the static module, mode and difficulty catalogs.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListModules godoc
// GET /api/v1/catalog/modules
func (h *CatalogHandler) ListModules(c *gin.Context) {
	response.Success(c, http.StatusOK, h.catalogService.Modules())
}

// ListModes godoc
// GET /api/v1/catalog/modes
func (h *CatalogHandler) ListModes(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"modes": h.catalogService.Modes()})
}

// ListDifficultyProfiles godoc
// GET /api/v1/catalog/difficulty
func (h *CatalogHandler) ListDifficultyProfiles(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"profiles": h.catalogService.DifficultyProfiles()})
}
