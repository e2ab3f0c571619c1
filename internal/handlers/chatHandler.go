package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/avasseur/bdnb-rag/internal/adapter"
	"github.com/avasseur/bdnb-rag/internal/api"
	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
	"github.com/avasseur/bdnb-rag/internal/rag"
	"github.com/avasseur/bdnb-rag/pkg/logger_i"
)

var (
	handlerInstance *chatHandler //private singleton
	once            sync.Once
	logRH           *logger_i.Logger
)

type chatHandler struct {
	service rag.Service
}

func InitChatHandler(service rag.Service) {
	once.Do(func() {
		handlerInstance = &chatHandler{service: service}
		logRH = logger_i.NewLogger("RequestHandler")
		logRH.Info("Starting chat handler")
	})
}

// ChatHandler godoc
// @Summary      Ask a question about the building stock
// @Description  Classifies the question, answers counting questions from the feature store and descriptive ones through retrieval and generation. Answers are cached.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest  true  "Question, in French or English"
// @Success      200      {object}  api.ChatResponse "The grounded answer"
// @Failure      400      {object}  api.ErrorResponse "Empty or malformed question"
// @Failure      502      {object}  api.ErrorResponse "An upstream model or store is unavailable"
// @Router       /chat [post]
func ChatHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		logRH.Warn("Invalid Context by request ", request.RemoteAddr)
		return
	}

	var requestData api.ChatRequest
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logRH.Error("Couldn't close the Chat handler reader :", err)
		}
	}(request.Body)

	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || strings.TrimSpace(requestData.Message) == "" {
		logRH.Warn("Bad Chat Request: ", "error:", err, "request data:", requestData)
		WriteErrorResponse(w, http.StatusBadRequest, "Bad Request")
		return
	}

	queryCtx, cancel := context.WithTimeout(request.Context(), config.QueryTimeout)
	defer cancel()

	answer, err := handlerInstance.service.Answer(queryCtx, requestData.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToChatResponse(answer))
}

// HealthHandler godoc
// @Summary      Liveness and dependency check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Failure      503  {object}  api.ErrorResponse
// @Router       /healthz [get]
func HealthHandler(w http.ResponseWriter, request *http.Request) {
	if err := handlerInstance.service.Health(request.Context()); err != nil {
		logRH.Error("Health check failed", "error", err)
		WriteErrorResponse(w, http.StatusServiceUnavailable, "A dependency is unavailable")
		return
	}
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, buildingModel.ErrUpstreamService):
		logRH.Error("Upstream failure answering question", "error", err)
		WriteErrorResponse(w, http.StatusBadGateway, "An upstream service is unavailable, try again later")
	case errors.Is(err, context.DeadlineExceeded):
		logRH.Error("Question timed out", "error", err)
		WriteErrorResponse(w, http.StatusGatewayTimeout, "The question took too long to answer")
	default:
		logRH.Error("Unexpected failure answering question", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
