package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/formsight/formflow/internal/forms"
	"github.com/formsight/formflow/internal/lifecycle"
	"github.com/formsight/formflow/internal/submissions"
	"github.com/formsight/formflow/internal/validation"
)

// Lifecycle is the controller surface the HTTP layer needs.
type Lifecycle interface {
	Accept(ctx context.Context, sub forms.Submission) (*lifecycle.AcceptResult, error)
	Query(ctx context.Context, submissionID string) (*submissions.Record, error)
	Amend(ctx context.Context, submissionID, variant, text, reason string) error
}

// HandlerConfig groups dependencies for the pipeline routes.
type HandlerConfig struct {
	Controller Lifecycle
	Logger     *zap.Logger
}

// resultsResponse is the viewer-facing record shape.
type resultsResponse struct {
	SubmissionID  string            `json:"submission_id"`
	Status        string            `json:"status"`
	Results       map[string]string `json:"results"`
	UserResponses string            `json:"user_responses,omitempty"`
	Note          string            `json:"note,omitempty"`
}

// RegisterRoutes registers the webhook and results routes.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r.POST("/webhook", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.WebhookPayload
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		res, err := cfg.Controller.Accept(ctx, req.Submission())
		if err != nil {
			// 5xx so the upstream form system redelivers; the conditional
			// insert makes redelivery safe.
			logger.Error("webhook accept failed",
				zap.String("submission_id", req.EventID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "accept_failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"submission_id": req.EventID,
			"status":        res.Status,
			"outcome":       string(res.Outcome),
		})
	})

	r.GET("/results/:id", func(c *gin.Context) {
		id := c.Param("id")

		rec, err := cfg.Controller.Query(c.Request.Context(), id)
		if err != nil {
			logger.Error("results read failed", zap.String("submission_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read_failed"})
			return
		}
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "submission_id": id})
			return
		}

		c.JSON(http.StatusOK, resultsResponse{
			SubmissionID:  rec.SubmissionID,
			Status:        rec.Status,
			Results:       rec.Results,
			UserResponses: rec.UserResponses,
			Note:          rec.Note,
		})
	})

	r.PUT("/results/:id", func(c *gin.Context) {
		id := c.Param("id")

		var req validation.UpdateResultPayload
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		err := cfg.Controller.Amend(c.Request.Context(), id, req.Variant, req.NewResult, req.Reason)
		switch {
		case errors.Is(err, lifecycle.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "submission_id": id})
		case errors.Is(err, lifecycle.ErrInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "still_processing", "submission_id": id})
		case errors.Is(err, lifecycle.ErrUnknownVariant):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_variant", "variant": req.Variant})
		case err != nil:
			logger.Error("amend failed", zap.String("submission_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "amend_failed"})
		default:
			c.JSON(http.StatusOK, gin.H{"submission_id": id, "variant": req.Variant, "updated": true})
		}
	})
}
