package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lamngo/formflow/internal/apperr"
	"github.com/lamngo/formflow/internal/dto"
	"github.com/lamngo/formflow/internal/service"
	"github.com/rs/zerolog/log"
)

type ActivityController struct {
	activityService service.ActivityService
}

func NewActivityController(activityService service.ActivityService) *ActivityController {
	return &ActivityController{activityService: activityService}
}

// GetActivities godoc
// @Summary List open activities
// @Description Activities currently accepting responses.
// @Tags Activities
// @Produce json
// @Success 200 {array} dto.ActivitySummaryDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /activities [get]
func (c *ActivityController) GetActivities(ctx *gin.Context) {
	activities, err := c.activityService.GetActiveActivities()
	if err != nil {
		log.Error().Err(err).Msg("GetActivities: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve activities", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, activities)
}

// GetActivityDetails godoc
// @Summary Get an activity with its questionnaire
// @Description Full participant-facing view: sections and questions, without correct-answer metadata.
// @Tags Activities
// @Produce json
// @Param activity_id path int true "Activity ID"
// @Success 200 {object} dto.ActivityDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Activity ID format"
// @Failure 404 {object} dto.ErrorResponse "Activity not found"
// @Router /activities/{activity_id} [get]
func (c *ActivityController) GetActivityDetails(ctx *gin.Context) {
	activityID, err := strconv.ParseUint(ctx.Param("activity_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Activity ID format"})
		return
	}

	detail, err := c.activityService.GetActivityDetails(uint(activityID))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Activity not found"})
			return
		}
		log.Error().Err(err).Uint64("activityID", activityID).Msg("GetActivityDetails: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve activity", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, detail)
}
