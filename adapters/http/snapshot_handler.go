package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	snapshotUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/snapshot"
	"github.com/khoahotran/talent-portfolio/internal/domain/snapshot"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type SnapshotHandler struct {
	createUseCase *snapshotUC.CreateSnapshotUseCase
	viewUseCase   *snapshotUC.GetSnapshotViewUseCase
	listUseCase   *snapshotUC.ListSnapshotsUseCase
	logger        logger.Logger
}

func NewSnapshotHandler(
	createUC *snapshotUC.CreateSnapshotUseCase,
	viewUC *snapshotUC.GetSnapshotViewUseCase,
	listUC *snapshotUC.ListSnapshotsUseCase,
	log logger.Logger,
) *SnapshotHandler {
	return &SnapshotHandler{
		createUseCase: createUC,
		viewUseCase:   viewUC,
		listUseCase:   listUC,
		logger:        log,
	}
}

// Publish freezes the owner's current public view of a template.
func (h *SnapshotHandler) Publish(c *gin.Context) {
	ownerID, ok := mustSubject(c)
	if !ok {
		return
	}

	var req CreateSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid JSON body for snapshot", err))
		return
	}

	output, err := h.createUseCase.Execute(c.Request.Context(), snapshotUC.CreateSnapshotInput{
		OwnerID:    ownerID,
		Scope:      snapshot.ScopePublic,
		TemplateID: req.TemplateID,
		Trigger:    snapshot.TriggerTemplatePublished,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ToSnapshotSummaryDTO(output.Snapshot))
}

func (h *SnapshotHandler) ListOwn(c *gin.Context) {
	ownerID, ok := mustSubject(c)
	if !ok {
		return
	}
	h.list(c, snapshotUC.ListSnapshotsInput{ViewerID: ownerID, AsOwner: true})
}

// ListReceived lists snapshots addressed to the caller, plus the public ones
// of ?owner_id= when given.
func (h *SnapshotHandler) ListReceived(c *gin.Context) {
	viewerID, ok := mustSubject(c)
	if !ok {
		return
	}
	input := snapshotUC.ListSnapshotsInput{ViewerID: viewerID}
	if raw := c.Query("owner_id"); raw != "" {
		ownerID, err := uuid.Parse(raw)
		if err != nil {
			c.Error(apperror.NewInvalidInput("invalid owner_id", err))
			return
		}
		input.OwnerID = &ownerID
	}
	h.list(c, input)
}

func (h *SnapshotHandler) list(c *gin.Context, input snapshotUC.ListSnapshotsInput) {
	input.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	input.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	output, err := h.listUseCase.Execute(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}
	dtos := make([]SnapshotSummaryDTO, len(output.Snapshots))
	for i, s := range output.Snapshots {
		dtos[i] = ToSnapshotSummaryDTO(s)
	}
	c.JSON(http.StatusOK, dtos)
}

func (h *SnapshotHandler) View(c *gin.Context) {
	snapshotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewNotFound("snapshot", c.Param("id")))
		return
	}

	input := snapshotUC.GetSnapshotViewInput{SnapshotID: snapshotID}
	if viewerID, ok := GetSubjectIDFromGinContext(c); ok {
		input.ViewerID = &viewerID
	}

	output, err := h.viewUseCase.Execute(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}
	placeholders := output.Placeholders
	if placeholders == nil {
		placeholders = []string{}
	}
	c.JSON(http.StatusOK, SnapshotViewDTO{
		Snapshot:     ToSnapshotSummaryDTO(output.Snapshot),
		Document:     json.RawMessage(output.Snapshot.Payload),
		URLs:         output.URLs,
		Placeholders: placeholders,
	})
}

// RejectWrite answers every write on a snapshot.
func (h *SnapshotHandler) RejectWrite(c *gin.Context) {
	c.Error(apperror.NewImmutable("snapshot", c.Param("id")))
}
