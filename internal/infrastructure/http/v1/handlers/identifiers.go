package handlers

import (
	"github.com/gin-gonic/gin"

	"portraits/internal/domain/classify"
	"portraits/internal/domain/orgid"
	"portraits/internal/infrastructure/http/v1/dto"
)

// IdentifierHandler parses and classifies raw organization IDs.
type IdentifierHandler struct {
	*BaseHandler
	classifier *classify.Classifier
}

// NewIdentifierHandler creates a new identifier handler.
func NewIdentifierHandler(base *BaseHandler, c *classify.Classifier) *IdentifierHandler {
	return &IdentifierHandler{BaseHandler: base, classifier: c}
}

// Get returns the segments, pattern and classification of an identifier,
// plus the owning university when the directory knows it. A malformed ID
// yields 400 MALFORMED_IDENTIFIER.
// GET /api/v1/identifiers/:id
func (h *IdentifierHandler) Get(c *gin.Context) {
	id, err := orgid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	out := dto.Identifier{
		Identifier:     id,
		Pattern:        id.Pattern(),
		Classification: h.classifier.Classify(id),
	}
	if store, err := h.directory.Get(c.Request.Context()); err == nil {
		if u, ok := store.FindUniversityByID(id.UniversityCode); ok {
			out.University = &u
		}
	}
	h.OK(c, out)
}
