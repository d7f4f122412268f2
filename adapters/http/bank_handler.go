package http

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	bankUC "github.com/khoahotran/talent-portfolio/internal/application/usecase/bank"
	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

const maxUploadSize = 50 << 20

type BankHandler struct {
	uploadUseCase *bankUC.UploadItemUseCase
	listUseCase   *bankUC.ListItemsUseCase
	logger        logger.Logger
}

func NewBankHandler(uploadUC *bankUC.UploadItemUseCase, listUC *bankUC.ListItemsUseCase, log logger.Logger) *BankHandler {
	return &BankHandler{uploadUseCase: uploadUC, listUseCase: listUC, logger: log}
}

func (h *BankHandler) Upload(c *gin.Context) {
	ownerID, ok := mustSubject(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperror.NewInvalidInput("file is required", err))
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.Error(apperror.NewInvalidInput("file is too large", nil))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInvalidInput("cannot open file", err))
		return
	}
	defer file.Close()

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
	}

	output, err := h.uploadUseCase.Execute(c.Request.Context(), bankUC.UploadItemInput{
		OwnerID:     ownerID,
		File:        file,
		Size:        fileHeader.Size,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		ItemType:    bank.ItemType(c.DefaultPostForm("item_type", string(bank.TypeOther))),
		Title:       title,
		Metadata:    map[string]any{"original_filename": fileHeader.Filename},
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, output.Item)
}

func (h *BankHandler) List(c *gin.Context) {
	ownerID, ok := mustSubject(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	output, err := h.listUseCase.Execute(c.Request.Context(), bankUC.ListItemsInput{
		OwnerID: ownerID,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, output.Items)
}
