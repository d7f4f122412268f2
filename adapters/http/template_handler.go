package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	tmplUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/templatestate"
	tmpl "github.com/khoahotran/talent-portfolio/internal/domain/template"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type TemplateHandler struct {
	stateUseCase *tmplUC.TemplateStateUseCase
	logger       logger.Logger
}

func NewTemplateHandler(uc *tmplUC.TemplateStateUseCase, log logger.Logger) *TemplateHandler {
	return &TemplateHandler{stateUseCase: uc, logger: log}
}

// ListTemplates returns the registry, optionally filtered by ?category=.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	if cat := c.Query("category"); cat != "" {
		c.JSON(http.StatusOK, tmpl.ByCategory(tmpl.Category(cat)))
		return
	}
	c.JSON(http.StatusOK, tmpl.All())
}

func (h *TemplateHandler) GetState(c *gin.Context) {
	ownerID, ok := mustSubject(c)
	if !ok {
		return
	}

	output, err := h.stateUseCase.ExecuteGet(c.Request.Context(), tmplUC.GetTemplateStateInput{
		OwnerID:    ownerID,
		TemplateID: c.Param("template_id"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, TemplateStateDTO{Template: output.Template, State: output.State})
}

func (h *TemplateHandler) SaveState(c *gin.Context) {
	ownerID, ok := mustSubject(c)
	if !ok {
		return
	}

	var req SaveTemplateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid JSON body for template state", err))
		return
	}

	output, err := h.stateUseCase.ExecuteSave(c.Request.Context(), tmplUC.SaveTemplateStateInput{
		OwnerID:           ownerID,
		TemplateID:        c.Param("template_id"),
		IncludedSections:  req.IncludedSections,
		SelectedItems:     req.SelectedItems,
		SectionOrder:      req.SectionOrder,
		IncludeAvatar:     req.IncludeAvatar,
		IncludeBanner:     req.IncludeBanner,
		IncludeIntroVideo: req.IncludeIntroVideo,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, TemplateStateDTO{Template: output.Template, State: output.State})
}
