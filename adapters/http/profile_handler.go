package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	profileUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/profile"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type ProfileHandler struct {
	profileUseCase *profileUC.ProfileUseCase
	logger         logger.Logger
}

func NewProfileHandler(uc *profileUC.ProfileUseCase, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: uc,
		logger:         log,
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	ownerID, ok := mustSubject(c)
	if !ok {
		return
	}

	output, err := h.profileUseCase.ExecuteGetProfile(c.Request.Context(), profileUC.GetProfileInput{OwnerID: ownerID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(output.Profile))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	ownerID, ok := mustSubject(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid JSON body for profile update", err))
		return
	}

	input := profileUC.UpdateProfileInput{
		OwnerID:      ownerID,
		Name:         req.Name,
		Title:        req.Title,
		Bio:          req.Bio,
		Sections:     req.Sections,
		SocialLinks:  req.SocialLinks,
		LegacySocial: req.LegacySocial,
		Media:        req.Media,
		SectionOrder: req.SectionOrder,
	}
	output, err := h.profileUseCase.ExecuteUpdateProfile(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(output.Profile))
}
