package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lamngo/formflow/internal/dto"
	"github.com/lamngo/formflow/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminActivityController struct {
	adminActivityService service.AdminActivityService
	responseService      service.ResponseService
}

func NewAdminActivityController(adminActivityService service.AdminActivityService, responseService service.ResponseService) *AdminActivityController {
	return &AdminActivityController{
		adminActivityService: adminActivityService,
		responseService:      responseService,
	}
}

// CreateActivity godoc
// @Summary (Admin) Create an activity with its questionnaire
// @Description Creates the activity, questionnaire, sections and questions in one transactional request.
// @Tags Admin - Activities
// @Accept json
// @Produce json
// @Param activity_data body dto.ActivityCreateDTO true "Activity and questionnaire definition"
// @Success 201 {object} dto.ActivityCreatedDTO "Activity created"
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/activities [post]
func (c *AdminActivityController) CreateActivity(ctx *gin.Context) {
	var req dto.ActivityCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateActivity: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	created, err := c.adminActivityService.CreateActivity(ctx.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("Admin CreateActivity: Service error")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create activity", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

// ListActivityResponses godoc
// @Summary (Admin) List responses for an activity
// @Description Summary rows for every response against the activity, for reporting consumers.
// @Tags Admin - Activities
// @Produce json
// @Param activity_id path int true "Activity ID"
// @Success 200 {array} dto.ResponseSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Activity ID format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/activities/{activity_id}/responses [get]
func (c *AdminActivityController) ListActivityResponses(ctx *gin.Context) {
	activityID, err := strconv.ParseUint(ctx.Param("activity_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Activity ID format"})
		return
	}

	summaries, err := c.responseService.GetResponsesForActivity(uint(activityID))
	if err != nil {
		log.Error().Err(err).Uint64("activityID", activityID).Msg("Admin ListActivityResponses: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to list responses", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, summaries)
}
