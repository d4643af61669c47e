package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ============================================================================
// Handler 辅助函数
// ============================================================================

// respondAppError 把 AppError 映射为合适的 HTTP 状态码
func (s *Server) respondAppError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case ErrCodeInvalidConfig:
		status = http.StatusBadRequest
	case ErrCodeNoKeysConfigured:
		status = http.StatusServiceUnavailable
	case ErrCodeGenerationFailed:
		status = http.StatusServiceUnavailable
	case ErrCodeUpstreamAPI:
		status = http.StatusBadGateway
	case ErrCodeRenderTimeout:
		status = http.StatusGatewayTimeout
	}

	c.JSON(status, gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}

// jobToEvent 把任务当前状态转换为 SSE 事件
func jobToEvent(job *Job) JobEvent {
	step := 0
	message := "Queued"

	switch job.Status {
	case JobStatusEnhancing:
		step, message = 1, "Enhancing prompt"
	case JobStatusGenerating:
		step, message = 2, "Generating animation code"
	case JobStatusRendering:
		step, message = 3, "Rendering video"
	case JobStatusSucceeded:
		step, message = 4, "Video ready"
	case JobStatusFailed:
		step = 4
		message = "Generation failed"
		if job.Error != nil {
			message = job.Error.Message
		}
	}

	return JobEvent{
		JobID:   job.ID,
		Status:  job.Status,
		Step:    step,
		Steps:   4,
		Message: message,
	}
}
