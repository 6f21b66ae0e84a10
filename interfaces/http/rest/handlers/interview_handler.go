package handlers

import (
	"net/http"
	"strconv"

	"ideaforge/application/commands"
	"ideaforge/application/commands/bus"
	"ideaforge/application/queries"
	querybus "ideaforge/application/queries/bus"
	"ideaforge/pkg/common"
	"ideaforge/pkg/errors"
	"ideaforge/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies. The longest legal answer is 10000
// runes, which fits comfortably inside 1 MiB even as 4-byte UTF-8.
const maxBodyBytes = 1 << 20

// InterviewHandler handles interview session HTTP requests
type InterviewHandler struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *errors.ErrorHandler
	logger       *zap.Logger
}

// NewInterviewHandler creates a new interview handler
func NewInterviewHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *InterviewHandler {
	return &InterviewHandler{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// SubmitAnswerRequest represents the request body for answering the pending question
type SubmitAnswerRequest struct {
	Answer string `json:"answer" validate:"required,max=10000"`
}

// EditAnswerRequest represents the request body for revising an earlier answer
type EditAnswerRequest struct {
	Answer string `json:"answer" validate:"required,max=10000"`
}

// StartInterview handles POST /api/v1/interviews
func (h *InterviewHandler) StartInterview(w http.ResponseWriter, r *http.Request) {
	result, err := h.commandBus.Send(r.Context(), commands.StartInterviewCommand{})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, result)
}

// SubmitAnswer handles POST /api/v1/interviews/{sessionID}/answers
func (h *InterviewHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.pathID(w, r, "sessionID")
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.SubmitAnswerCommand{
		SessionID: sessionID,
		Answer:    req.Answer,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// SkipQuestion handles POST /api/v1/interviews/{sessionID}/skip
func (h *InterviewHandler) SkipQuestion(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.pathID(w, r, "sessionID")
	if !ok {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.SkipQuestionCommand{
		SessionID: sessionID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// EditAnswer handles PUT /api/v1/interviews/{sessionID}/answers/{messageID}.
// A missing or non-editable message is reported through the Updated flag
// in the result, not as an error status. Only an unknown session is a 404.
func (h *InterviewHandler) EditAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.pathID(w, r, "sessionID")
	if !ok {
		return
	}
	messageID, ok := h.pathID(w, r, "messageID")
	if !ok {
		return
	}

	var req EditAnswerRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.EditAnswerCommand{
		SessionID: sessionID,
		MessageID: messageID,
		NewAnswer: req.Answer,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetHistory handles GET /api/v1/interviews/{sessionID}/history
func (h *InterviewHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.pathID(w, r, "sessionID")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	order := r.URL.Query().Get("order")
	if order != "" && order != "asc" && order != "desc" {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest,
			"order must be asc or desc")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetHistoryQuery{
		SessionID: sessionID,
		Page:      page,
		PageSize:  pageSize,
		Order:     order,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetStatus handles GET /api/v1/interviews/{sessionID}/status
func (h *InterviewHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.pathID(w, r, "sessionID")
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetStatusQuery{
		SessionID: sessionID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// pathID extracts a UUID path parameter, rejecting malformed values
// before they reach the command bus.
func (h *InterviewHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, name)
	if id == "" {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest,
			name+" is required")
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest,
			"invalid "+name+" format")
		return "", false
	}
	return id, true
}

// decode parses and validates a JSON request body
func (h *InterviewHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.ParseJSONBody(r, v, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest,
			"invalid request body: "+err.Error())
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError,
			err.Error())
		return false
	}
	return true
}
