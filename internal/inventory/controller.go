package inventory

import (
	"net/http"

	"ticketing/internal/shared/middleware"
	"ticketing/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// STRUCTURES

func (c *Controller) CreateStructure(ctx *gin.Context) {
	actor, _ := middleware.GetActor(ctx)

	var req CreateStructureRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	structure, err := c.service.CreateStructure(ctx.Request.Context(), actor, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Structure created successfully", structure, nil)
}

func (c *Controller) GetStructure(ctx *gin.Context) {
	id, ok := response.ParamUUID(ctx, "id")
	if !ok {
		return
	}

	structure, err := c.service.GetStructure(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Structure retrieved successfully", structure, nil)
}

func (c *Controller) ListStructures(ctx *gin.Context) {
	var filters StructureFilters
	if err := ctx.ShouldBindQuery(&filters); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	page, err := c.service.ListStructures(ctx.Request.Context(), filters)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Structures retrieved successfully", page, nil)
}

func (c *Controller) UpdateStructure(ctx *gin.Context) {
	actor, _ := middleware.GetActor(ctx)
	id, ok := response.ParamUUID(ctx, "id")
	if !ok {
		return
	}

	var req UpdateStructureRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	structure, err := c.service.UpdateStructure(ctx.Request.Context(), actor, id, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Structure updated successfully", structure, nil)
}

// AREAS

func (c *Controller) CreateArea(ctx *gin.Context) {
	actor, _ := middleware.GetActor(ctx)
	structureID, ok := response.ParamUUID(ctx, "id")
	if !ok {
		return
	}

	var req CreateAreaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	area, err := c.service.CreateArea(ctx.Request.Context(), actor, structureID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Area created successfully", area, nil)
}

func (c *Controller) ListAreas(ctx *gin.Context) {
	structureID, ok := response.ParamUUID(ctx, "id")
	if !ok {
		return
	}

	areas, err := c.service.ListAreas(ctx.Request.Context(), structureID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Areas retrieved successfully", areas, nil)
}

func (c *Controller) GetArea(ctx *gin.Context) {
	id, ok := response.ParamUUID(ctx, "id")
	if !ok {
		return
	}

	area, err := c.service.GetArea(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Area retrieved successfully", area, nil)
}

func (c *Controller) UpdateArea(ctx *gin.Context) {
	actor, _ := middleware.GetActor(ctx)
	id, ok := response.ParamUUID(ctx, "id")
	if !ok {
		return
	}

	var req UpdateAreaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	area, err := c.service.UpdateArea(ctx.Request.Context(), actor, id, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Area updated successfully", area, nil)
}

func (c *Controller) DeleteArea(ctx *gin.Context) {
	actor, _ := middleware.GetActor(ctx)
	id, ok := response.ParamUUID(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.DeleteArea(ctx.Request.Context(), actor, id); err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Area deleted successfully", nil, nil)
}

// ZONE TEMPLATES

func (c *Controller) CreateTemplate(ctx *gin.Context) {
	actor, _ := middleware.GetActor(ctx)
	areaID, ok := response.ParamUUID(ctx, "id")
	if !ok {
		return
	}

	var req CreateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	template, err := c.service.CreateTemplate(ctx.Request.Context(), actor, areaID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Zone template created successfully", template, nil)
}

func (c *Controller) ListTemplates(ctx *gin.Context) {
	areaID, ok := response.ParamUUID(ctx, "id")
	if !ok {
		return
	}

	templates, err := c.service.ListTemplates(ctx.Request.Context(), areaID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Zone templates retrieved successfully", templates, nil)
}

func (c *Controller) UpdateTemplate(ctx *gin.Context) {
	actor, _ := middleware.GetActor(ctx)
	id, ok := response.ParamUUID(ctx, "id")
	if !ok {
		return
	}

	var req UpdateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	template, err := c.service.UpdateTemplate(ctx.Request.Context(), actor, id, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Zone template updated successfully", template, nil)
}

func (c *Controller) DeleteTemplate(ctx *gin.Context) {
	actor, _ := middleware.GetActor(ctx)
	id, ok := response.ParamUUID(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.DeleteTemplate(ctx.Request.Context(), actor, id); err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Zone template deleted successfully", nil, nil)
}
