package handlers

import (
	"github.com/gin-gonic/gin"

	"portraits/internal/domain/reports"
	"portraits/internal/infrastructure/http/v1/dto"
)

// SnapshotHandler reads stored report snapshots.
type SnapshotHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(base *BaseHandler, service *reports.Service) *SnapshotHandler {
	return &SnapshotHandler{BaseHandler: base, service: service}
}

// List returns snapshot headers newest first, without payloads.
// GET /api/v1/snapshots?kind=&year=&limit=
func (h *SnapshotHandler) List(c *gin.Context) {
	snaps, err := h.service.List(c.Request.Context(), reports.SnapshotFilter{
		Kind:  reports.SnapshotKind(c.Query("kind")),
		Year:  h.ParseIntQuery(c, "year", 0),
		Limit: h.ParseIntQuery(c, "limit", 0),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	for i := range snaps {
		snaps[i].Payload = nil
	}
	h.OK(c, dto.NewList(snaps))
}

// Latest returns the newest snapshot of a kind with its payload.
// GET /api/v1/snapshots/:kind/latest
func (h *SnapshotHandler) Latest(c *gin.Context) {
	snap, err := h.service.Latest(c.Request.Context(), reports.SnapshotKind(c.Param("kind")))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, snap)
}
