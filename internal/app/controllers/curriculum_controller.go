package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afhamha/afhamha/internal/app/models/dto"
	"github.com/afhamha/afhamha/internal/app/services"
	"github.com/afhamha/afhamha/internal/middleware"
)

// CurriculumController serves the public curriculum and lesson catalog
type CurriculumController struct {
	curriculumService *services.CurriculumService
}

// NewCurriculumController creates a new CurriculumController
func NewCurriculumController(curriculumService *services.CurriculumService) *CurriculumController {
	return &CurriculumController{curriculumService: curriculumService}
}

// GetYears lists the study years
func (c *CurriculumController) GetYears(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(c.curriculumService.Years()))
}

// GetSubjects lists the subjects of a study year
func (c *CurriculumController) GetSubjects(ctx *gin.Context) {
	subjects, err := c.curriculumService.Subjects(ctx.Param("year"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(subjects))
}

// GetReferences lists the reference books of a study year
func (c *CurriculumController) GetReferences(ctx *gin.Context) {
	refs, err := c.curriculumService.References(ctx.Param("year"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(refs))
}

// GetLessons lists catalog lessons filtered by ?year= and ?subject=
func (c *CurriculumController) GetLessons(ctx *gin.Context) {
	var filter dto.LessonFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}

	lessons, err := c.curriculumService.Lessons(ctx.Request.Context(), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(lessons))
}
