package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/afhamha/afhamha/internal/app/models/dto"
	"github.com/afhamha/afhamha/internal/app/services"
	"github.com/afhamha/afhamha/internal/middleware"
	"github.com/afhamha/afhamha/internal/pkg/helpers"
)

// ExplanationController exposes the AI explanation workflow
type ExplanationController struct {
	explanationService *services.ExplanationService
	logger             zerolog.Logger
}

// NewExplanationController creates a new ExplanationController
func NewExplanationController(explanationService *services.ExplanationService, logger zerolog.Logger) *ExplanationController {
	return &ExplanationController{
		explanationService: explanationService,
		logger:             logger,
	}
}

// Explain asks the AI to explain a question and charges the user's credits
func (c *ExplanationController) Explain(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.ExplainRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.explanationService.Explain(ctx.Request.Context(), userID, &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("userID", userID).Str("subject", req.Subject).Msg("Explanation request failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// List returns the user's explanations, newest first
func (c *ExplanationController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	resp, err := c.explanationService.List(ctx.Request.Context(), userID, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Get returns one of the user's explanations
func (c *ExplanationController) Get(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.explanationService.Get(ctx.Request.Context(), userID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Delete removes one of the user's explanations
func (c *ExplanationController) Delete(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.explanationService.Delete(ctx.Request.Context(), userID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Explanation deleted"}))
}
