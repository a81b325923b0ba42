package handlers

import (
	"github.com/gin-gonic/gin"

	"portraits/internal/domain/analysis"
)

// AnalysisHandler serves identifier-structure analysis.
type AnalysisHandler struct {
	*BaseHandler
	analyzer *analysis.Analyzer
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(base *BaseHandler, a *analysis.Analyzer) *AnalysisHandler {
	return &AnalysisHandler{BaseHandler: base, analyzer: a}
}

// Clusters analyzes the organizations of the named universities: pattern
// clusters, field clusters, shared patterns and matching proposals.
// GET /api/v1/clusters?university=
func (h *AnalysisHandler) Clusters(c *gin.Context) {
	universities, ok := h.RequireList(c, "university")
	if !ok {
		return
	}
	store, ok := h.Store(c)
	if !ok {
		return
	}

	report, err := h.analyzer.Analyze(c.Request.Context(), store, universities)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
