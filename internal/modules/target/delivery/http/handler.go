package handler

import (
	"net/http"

	"anoa.com/skorprestasi/internal/modules/target/dto"
	"anoa.com/skorprestasi/internal/modules/target/service"
	"anoa.com/skorprestasi/pkg/pagination"
	"anoa.com/skorprestasi/pkg/response"
	"anoa.com/skorprestasi/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TargetHandler struct {
	service service.TargetService
}

func NewTargetHandler(service service.TargetService) *TargetHandler {
	return &TargetHandler{service: service}
}

// List shows the caller the active targets for their role, with progress.
func (h *TargetHandler) List(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	rows, err := h.service.ListForUser(c.Request.Context(), userID, response.GetUserRole(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *TargetHandler) Claim(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target id"})
		return
	}

	if err := h.service.Claim(c.Request.Context(), userID, response.GetUserRole(c), targetID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "hadiah berhasil diklaim"})
}

// Admin endpoints.

func (h *TargetHandler) ListAll(c *gin.Context) {
	params, err := pagination.Bind(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	env, err := h.service.ListAll(c.Request.Context(), params)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, env)
}

func (h *TargetHandler) Create(c *gin.Context) {
	var input dto.CreateTargetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	target, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": target})
}

func (h *TargetHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target id"})
		return
	}

	var input dto.UpdateTargetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	target, err := h.service.Update(c.Request.Context(), id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": target})
}

func (h *TargetHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "target berhasil dihapus"})
}
