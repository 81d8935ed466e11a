package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lamngo/formflow/internal/apperr"
	"github.com/lamngo/formflow/internal/dto"
	"github.com/lamngo/formflow/internal/repository"
	"github.com/lamngo/formflow/internal/service"
	"github.com/rs/zerolog/log"
)

type ResponseController struct {
	responseService service.ResponseService
}

func NewResponseController(responseService service.ResponseService) *ResponseController {
	return &ResponseController{responseService: responseService}
}

// StartOrResume godoc
// @Summary Start or resume a response
// @Description Finds or creates the participant's draft response for the activity. A submitted non-preview response is returned with already_submitted=true and accepts no further writes.
// @Tags Responses
// @Accept json
// @Produce json
// @Param activity_id path int true "Activity ID"
// @Param start_data body dto.StartOrResumeRequest true "Participant or guest identity, preview flag"
// @Success 200 {object} dto.StartOrResumeResult
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 403 {object} dto.ErrorResponse "Not authorized or activity closed"
// @Failure 404 {object} dto.ErrorResponse "Activity not found"
// @Router /activities/{activity_id}/responses [post]
func (c *ResponseController) StartOrResume(ctx *gin.Context) {
	activityID, err := strconv.ParseUint(ctx.Param("activity_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Activity ID format"})
		return
	}

	var req dto.StartOrResumeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("StartOrResume: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	result, err := c.responseService.StartOrResume(ctx.Request.Context(), uint(activityID), req)
	if err != nil {
		respondServiceError(ctx, err, "Failed to start response")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// SaveProgress godoc
// @Summary Autosave answers
// @Description Upserts the submitted answers into the draft response and recomputes completion. Safe to retry; later writes for the same question win.
// @Tags Responses
// @Accept json
// @Produce json
// @Param response_id path int true "Response ID"
// @Param answers body dto.SaveProgressRequest true "Raw answers in either supported shape"
// @Success 200 {object} dto.SaveProgressResult
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 404 {object} dto.ErrorResponse "Response not found"
// @Failure 409 {object} dto.ErrorResponse "Response already submitted"
// @Router /responses/{response_id}/answers [put]
func (c *ResponseController) SaveProgress(ctx *gin.Context) {
	responseID, err := strconv.ParseUint(ctx.Param("response_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Response ID format"})
		return
	}

	var req dto.SaveProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("SaveProgress: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	result, err := c.responseService.SaveProgress(ctx.Request.Context(), uint(responseID), req.Answers)
	if err != nil {
		respondServiceError(ctx, err, "Failed to save progress")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// Finalize godoc
// @Summary Submit a response
// @Description Merges any last-moment answers, validates required questions, flips the response to submitted exactly once, and scores assessment activities. Duplicate submits return the stored result unchanged.
// @Tags Responses
// @Accept json
// @Produce json
// @Param response_id path int true "Response ID"
// @Param finalize_data body dto.FinalizeRequest true "Final answers and auto-submit flag"
// @Success 200 {object} dto.ResponseDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 403 {object} dto.ErrorResponse "Not authorized or activity closed"
// @Failure 404 {object} dto.ErrorResponse "Response not found"
// @Failure 422 {object} dto.MissingRequiredResponse "Required questions unanswered"
// @Router /responses/{response_id}/submit [post]
func (c *ResponseController) Finalize(ctx *gin.Context) {
	responseID, err := strconv.ParseUint(ctx.Param("response_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Response ID format"})
		return
	}

	var req dto.FinalizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Finalize: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	detail, err := c.responseService.Finalize(ctx.Request.Context(), uint(responseID), req)
	if err != nil {
		if missing, ok := apperr.IsMissingRequired(err); ok {
			ctx.JSON(http.StatusUnprocessableEntity, dto.MissingRequiredResponse{
				Message:            "Required questions are not answered",
				MissingQuestionIDs: missing.MissingQuestionIDs,
			})
			return
		}
		respondServiceError(ctx, err, "Failed to submit response")
		return
	}
	ctx.JSON(http.StatusOK, detail)
}

// LoadProgress godoc
// @Summary Load saved progress
// @Description Reports whether the participant has a resumable draft for the activity and returns its answers.
// @Tags Responses
// @Produce json
// @Param activity_id path int true "Activity ID"
// @Param participant_id query int false "Participant ID"
// @Param guest_identifier query string false "Guest identifier"
// @Success 200 {object} dto.LoadProgressResult
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Router /activities/{activity_id}/progress [get]
func (c *ResponseController) LoadProgress(ctx *gin.Context) {
	activityID, err := strconv.ParseUint(ctx.Param("activity_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Activity ID format"})
		return
	}

	key := repository.ParticipantKey{}
	if raw := ctx.Query("participant_id"); raw != "" {
		val, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Participant ID format"})
			return
		}
		participantID := uint(val)
		key.ParticipantID = &participantID
	} else if guest := ctx.Query("guest_identifier"); guest != "" {
		key.GuestIdentifier = &guest
	} else {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "participant_id or guest_identifier is required"})
		return
	}

	result, err := c.responseService.LoadProgress(ctx.Request.Context(), uint(activityID), key)
	if err != nil {
		respondServiceError(ctx, err, "Failed to load progress")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetResponse godoc
// @Summary Get response details
// @Description Full response view including answers and, for submitted assessments, the score block.
// @Tags Responses
// @Produce json
// @Param response_id path int true "Response ID"
// @Success 200 {object} dto.ResponseDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Response ID format"
// @Failure 404 {object} dto.ErrorResponse "Response not found"
// @Router /responses/{response_id} [get]
func (c *ResponseController) GetResponse(ctx *gin.Context) {
	responseID, err := strconv.ParseUint(ctx.Param("response_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Response ID format"})
		return
	}

	detail, err := c.responseService.GetResponseDetails(uint(responseID))
	if err != nil {
		respondServiceError(ctx, err, "Failed to retrieve response")
		return
	}
	ctx.JSON(http.StatusOK, detail)
}

// respondServiceError maps the domain error taxonomy onto HTTP statuses.
func respondServiceError(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Not found"})
	case errors.Is(err, apperr.ErrAlreadySubmitted):
		ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: "Response already submitted"})
	case errors.Is(err, apperr.ErrNotAuthorized):
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Message: "Not authorized for this activity"})
	case errors.Is(err, apperr.ErrActivityClosed):
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Message: "Activity is not open for responses"})
	default:
		log.Error().Err(err).Msg(message)
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: message, Details: []string{err.Error()}})
	}
}
