package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	sharingUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/sharing"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

const maxShareBody = 16 << 10

type ShareHandler struct {
	shareUseCase *sharingUC.ShareConfigUseCase
	logger       logger.Logger
}

func NewShareHandler(uc *sharingUC.ShareConfigUseCase, log logger.Logger) *ShareHandler {
	return &ShareHandler{shareUseCase: uc, logger: log}
}

func (h *ShareHandler) GetShareConfig(c *gin.Context) {
	ownerID, ok := mustSubject(c)
	if !ok {
		return
	}

	output, err := h.shareUseCase.ExecuteGet(c.Request.Context(), sharingUC.GetShareConfigInput{OwnerID: ownerID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ShareConfigDTO{Configuration: output.Config, State: string(output.Status)})
}

func (h *ShareHandler) UpdateShareConfig(c *gin.Context) {
	ownerID, ok := mustSubject(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxShareBody))
	if err != nil {
		c.Error(apperror.NewInvalidInput("cannot read request body", err))
		return
	}
	patch, err := ParseSharePatch(body)
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid JSON body for share configuration", err))
		return
	}

	output, err := h.shareUseCase.ExecuteUpdate(c.Request.Context(), sharingUC.UpdateShareConfigInput{
		OwnerID: ownerID,
		Patch:   patch,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ShareConfigDTO{Configuration: output.Config, State: string(output.Status)})
}
