package handler

import (
	"mime/multipart"
	"net/http"

	"anoa.com/skorprestasi/internal/modules/attachment/service"
	"anoa.com/skorprestasi/pkg/response"
	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	service service.AttachmentService
}

func NewAttachmentHandler(service service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

// UploadAttachments accepts multipart uploads under "files" (repeated) or a
// single "file" field.
func (h *AttachmentHandler) UploadAttachments(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form is required"})
		return
	}

	var files []*multipart.FileHeader
	files = append(files, form.File["files"]...)
	files = append(files, form.File["file"]...)

	results, err := h.service.UploadAttachments(c.Request.Context(), userID, files)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": results})
}
