package handlers

import (
	"slices"

	"github.com/gin-gonic/gin"

	"portraits/internal/core/apperror"
	"portraits/internal/domain/classify"
	"portraits/internal/domain/directory"
	"portraits/internal/infrastructure/http/v1/dto"
)

// DirectoryHandler serves university and organization lookups.
type DirectoryHandler struct {
	*BaseHandler
	classifier *classify.Classifier
}

// NewDirectoryHandler creates a new directory handler.
func NewDirectoryHandler(base *BaseHandler, c *classify.Classifier) *DirectoryHandler {
	return &DirectoryHandler{BaseHandler: base, classifier: c}
}

// ListUniversities returns every university, or only the named ones. An
// unknown name fails the request with UNKNOWN_UNIVERSITY.
// GET /api/v1/universities?name=
func (h *DirectoryHandler) ListUniversities(c *gin.Context) {
	store, ok := h.Store(c)
	if !ok {
		return
	}

	names := h.QueryList(c, "name")
	if len(names) == 0 {
		h.OK(c, dto.NewList(slices.Collect(store.Universities())))
		return
	}

	univs, err := store.FindUniversityIDs(names)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewList(univs))
}

// GetUniversity returns one university by its 4-digit ID.
// GET /api/v1/universities/:id
func (h *DirectoryHandler) GetUniversity(c *gin.Context) {
	store, ok := h.Store(c)
	if !ok {
		return
	}
	u, found := store.FindUniversityByID(c.Param("id"))
	if !found {
		h.Error(c, apperror.NewNotFound("university", c.Param("id")))
		return
	}
	h.OK(c, u)
}

// ListOrganizations returns the organizations of each named university,
// keyed by university name. graduate=true keeps graduate schools only.
// GET /api/v1/organizations?university=
func (h *DirectoryHandler) ListOrganizations(c *gin.Context) {
	universities, ok := h.RequireList(c, "university")
	if !ok {
		return
	}
	store, ok := h.Store(c)
	if !ok {
		return
	}

	graduate := c.Query("graduate") == "true"
	out := make(map[string][]dto.Organization, len(universities))
	for name, orgs := range store.FindOrganizationsByUniversity(universities) {
		if graduate {
			orgs = directory.GraduateOnly(orgs)
		}
		out[name] = dto.NewOrganizations(h.classifier, orgs)
	}
	h.OK(c, out)
}

// SearchOrganizations filters one university's organizations by a name
// fragment. An empty fragment matches every organization.
// GET /api/v1/organizations/search?university=&q=
func (h *DirectoryHandler) SearchOrganizations(c *gin.Context) {
	university := c.Query("university")
	if university == "" {
		h.Error(c, apperror.NewValidation("missing query parameter").WithDetail("parameter", "university"))
		return
	}
	store, ok := h.Store(c)
	if !ok {
		return
	}

	orgs := store.SearchOrganizationsByNameFragment(university, c.Query("q"))
	h.OK(c, dto.NewList(dto.NewOrganizations(h.classifier, orgs)))
}
