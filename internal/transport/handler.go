package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-defect-analyzer/internal/config"
	"go-defect-analyzer/internal/decision"
	apperrors "go-defect-analyzer/internal/errors"
	"go-defect-analyzer/internal/logger"
	"go-defect-analyzer/internal/observer"
	"go-defect-analyzer/internal/settings"
	"go-defect-analyzer/internal/storage"
	"go-defect-analyzer/pkg/models"
	"go-defect-analyzer/pkg/validation"
)

// AnalyzeRequest is the body of POST /analyze. Exactly one of image_url and
// image_base64 must be set.
type AnalyzeRequest struct {
	ImageURL    string `json:"image_url,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	PhotoType   string `json:"photo_type,omitempty"`
}

// AnalyzeResponse is the structured reply for POST /analyze. Callers can
// distinguish "no defect found" (a source ran and returned empty candidates)
// from "could not determine" (final_detection.source is null with a reason).
type AnalyzeResponse struct {
	Success        bool                    `json:"success"`
	RequestID      string                  `json:"request_id"`
	Mode           string                  `json:"mode"`
	Provider       string                  `json:"provider,omitempty"`
	Responses      []models.AnalysisResult `json:"responses"`
	FinalDetection models.FinalDecision    `json:"final_detection"`
	Settings       settings.Settings       `json:"settings"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler wires the HTTP API: analysis, settings administration, health
// and metrics.
func NewHandler(engine *decision.Engine, store settings.Store, fetcher storage.ImageFetcher, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.GET("/metrics", reportMetrics(metrics))
	r.POST("/analyze", analyzeImage(engine, store, fetcher, cfg))
	r.GET("/settings", getSettings(store))
	r.PUT("/settings", putSettings(store))

	return r
}

func analyzeImage(engine *decision.Engine, store settings.Store, fetcher storage.ImageFetcher, cfg *config.Config) gin.HandlerFunc {
	urlValidator := validation.NewURLValidator()

	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing defect analysis request")

		var req AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		imageData, err := resolveImage(ctx, req, urlValidator, fetcher)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "could not obtain image", err)
			return
		}

		outcome, err := engine.Analyze(ctx, imageData, req.PhotoType)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "analysis failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id":         outcome.RequestID,
			"mode":               outcome.Mode,
			"final_source":       finalSource(outcome.Final),
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Defect analysis completed")

		c.JSON(http.StatusOK, AnalyzeResponse{
			Success:        true,
			RequestID:      outcome.RequestID,
			Mode:           outcome.Mode,
			Provider:       outcome.Provider,
			Responses:      outcome.Responses,
			FinalDetection: outcome.Final,
			Settings:       store.Get(ctx),
		})
	}
}

// resolveImage turns the request into raw image bytes, fetching over the
// configured storage when a URL is given.
func resolveImage(ctx context.Context, req AnalyzeRequest, urlValidator *validation.URLValidator, fetcher storage.ImageFetcher) ([]byte, error) {
	switch {
	case req.ImageURL != "" && req.ImageBase64 != "":
		return nil, apperrors.NewValidationError("provide image_url or image_base64, not both", nil)
	case req.ImageBase64 != "":
		data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			return nil, apperrors.NewValidationError("image_base64 is not valid base64", err)
		}
		return data, nil
	case req.ImageURL != "":
		if err := urlValidator.ValidateImageURL(req.ImageURL); err != nil {
			return nil, err
		}
		data, err := fetcher.FetchImage(ctx, req.ImageURL)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, apperrors.NewTimeoutError("image fetch timeout", err)
			}
			return nil, apperrors.NewNetworkError("failed to fetch image", err)
		}
		return data, nil
	default:
		return nil, apperrors.NewValidationError("either image_url or image_base64 is required", nil)
	}
}

func getSettings(store settings.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, store.Get(c.Request.Context()))
	}
}

func putSettings(store settings.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch settings.Patch
		if err := c.ShouldBindJSON(&patch); err != nil {
			respondError(c, http.StatusBadRequest, "invalid settings patch", err)
			return
		}

		updated, err := store.Upsert(c.Request.Context(), patch)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "settings update failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"mode":     updated.Mode,
			"provider": updated.ActiveProvider,
		}).Info("Settings updated")
		c.JSON(http.StatusOK, updated)
	}
}

func reportMetrics(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func finalSource(final models.FinalDecision) string {
	if final.Source == nil {
		return "none"
	}
	return string(*final.Source)
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
