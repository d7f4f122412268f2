package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	composeUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/compose"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type PreviewHandler struct {
	previewUseCase *composeUC.PreviewUseCase
	logger         logger.Logger
}

func NewPreviewHandler(uc *composeUC.PreviewUseCase, log logger.Logger) *PreviewHandler {
	return &PreviewHandler{previewUseCase: uc, logger: log}
}

func (h *PreviewHandler) Preview(c *gin.Context) {
	ownerID, ok := mustSubject(c)
	if !ok {
		return
	}

	templateID := c.Query("template_id")
	if templateID == "" {
		c.Error(apperror.NewInvalidInput("template_id is required", nil))
		return
	}
	as := c.DefaultQuery("as", "owner")
	if as != "owner" && as != "recipient" {
		c.Error(apperror.NewInvalidInput("as must be owner or recipient", nil))
		return
	}

	output, err := h.previewUseCase.Execute(c.Request.Context(), composeUC.PreviewInput{
		OwnerID:     ownerID,
		TemplateID:  templateID,
		AsRecipient: as == "recipient",
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, PreviewDTO{Document: output.Document, URLs: output.URLs})
}
