// Package handler provides HTTP handlers for the resume QA service.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/resume-qa/internal/qa/biz"
	"github.com/kart-io/resume-qa/internal/qa/metrics"
	"github.com/kart-io/resume-qa/pkg/infra/middleware"
	qaerrors "github.com/kart-io/resume-qa/pkg/utils/errors"
	"github.com/kart-io/resume-qa/pkg/utils/response"
	"github.com/kart-io/resume-qa/pkg/validator"
)

// Pipeline answers one question.
type Pipeline interface {
	Execute(ctx context.Context, req biz.Request) (string, error)
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question    string      `json:"question" validate:"required,notblank"`
	ConvHistory biz.History `json:"conv_history"`
}

// AskResponse is the body of a successful POST /ask.
type AskResponse struct {
	Answer string `json:"answer"`
}

// AskHandler handles question answering requests.
type AskHandler struct {
	pipeline Pipeline
	metrics  *metrics.QAMetrics
}

// NewAskHandler creates a new AskHandler. m may be nil.
func NewAskHandler(pipeline Pipeline, m *metrics.QAMetrics) *AskHandler {
	return &AskHandler{
		pipeline: pipeline,
		metrics:  m,
	}
}

// Ask answers a question about the resume.
func (h *AskHandler) Ask(c *gin.Context) {
	requestID := middleware.GetRequestID(c.Request.Context())

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, requestID, err, "invalid request body: "+err.Error())
		return
	}
	if verrs := validator.StructWithLang(&req, c.GetHeader("Accept-Language")); verrs != nil {
		h.reject(c, requestID, verrs, verrs.First())
		return
	}

	logger.Infow("Received question",
		"request_id", requestID,
		"question_len", len(req.Question),
		"history_turns", len(req.ConvHistory),
	)
	logger.Debugw("Question content",
		"request_id", requestID,
		"question", req.Question,
		"conv_history", req.ConvHistory,
	)

	start := time.Now()
	answer, err := h.pipeline.Execute(c.Request.Context(), biz.Request{
		Question: req.Question,
		History:  req.ConvHistory,
	})
	h.record(err)
	if err != nil {
		e := biz.Classify(err)
		logger.Errorw("Failed to answer question",
			"request_id", requestID,
			"kind", biz.KindName(err),
			"code", e.Code,
			"node", string(biz.FailedNode(err)),
			"latency", time.Since(start).String(),
			"error", err.Error(),
		)
		response.Fail(c, e)
		return
	}

	logger.Infow("Answered question",
		"request_id", requestID,
		"answer_len", len(answer),
		"latency", time.Since(start).String(),
	)
	logger.Debugw("Answer content", "request_id", requestID, "answer", answer)
	response.OK(c, AskResponse{Answer: answer})
}

// reject answers 400 before the pipeline runs.
func (h *AskHandler) reject(c *gin.Context, requestID string, cause error, msg string) {
	err := fmt.Errorf("%w: %w", biz.ErrValidation, cause)
	h.record(err)
	logger.Warnw("Rejected question",
		"request_id", requestID,
		"kind", biz.KindName(err),
		"error", cause.Error(),
	)
	response.Fail(c, qaerrors.ErrQAInvalidRequest.WithMessage(msg).WithCause(err))
}

func (h *AskHandler) record(err error) {
	if h.metrics != nil {
		h.metrics.RecordAsk(err)
	}
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
