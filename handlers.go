package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ============================================================================
// HTTP Handlers
// ============================================================================

// showIndexPage 显示前端页面
func showIndexPage(c *gin.Context) {
	c.File(StaticIndexPath)
}

// healthCheck 健康检查端点
func (s *Server) healthCheck(c *gin.Context) {
	status := s.checker.Check(c.Request.Context())

	httpStatus := http.StatusOK
	health := "healthy"
	if !status.Ready {
		health = "degraded"
	}

	c.JSON(httpStatus, gin.H{
		"status":         health,
		"service":        "manimate",
		"timestamp":      time.Now().Format(TimeFormatDateTime),
		"keys":           s.keyManager.GetKeyCount(),
		"available_keys": s.keyManager.GetAvailableCount(),
		"queue_depth":    s.jobManager.QueueDepth(),
		"jobs":           s.jobManager.JobCount(),
		"system":         status,
	})
}

// getStatsData 获取统计数据
func (s *Server) getStatsData(c *gin.Context) {
	snapshot := s.statsService.Snapshot()

	stats24h := s.statsService.GetPeriodStats(24)
	stats7d := s.statsService.GetPeriodStats(24 * 7)
	stats30d := s.statsService.GetPeriodStats(24 * 30)

	c.JSON(http.StatusOK, gin.H{
		"currentTime":     time.Now().Format(TimeFormatDateTime),
		"currentQPS":      fmt.Sprintf("%.3f", s.metrics.GetQPS()),
		"totalRequests":   snapshot.TotalRequests,
		"successful":      snapshot.SuccessfulRequests,
		"failed":          snapshot.FailedRequests,
		"totalRenderTime": snapshot.TotalRenderTime,
		"qualityUsage":    snapshot.QualityUsage,
		"errorCounts":     snapshot.ErrorCounts,
		"stats24h":        stats24h,
		"stats7d":         stats7d,
		"stats30d":        stats30d,
		"performance":     s.metrics.Snapshot(),
	})
}

// createGeneration 提交视频生成任务
// 立即返回 202 和任务 ID，生成过程通过 events 端点跟踪
func (s *Server) createGeneration(c *gin.Context) {
	var req GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	job, err := s.jobManager.Submit(&req)
	if err != nil {
		s.respondAppError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// getGeneration 查询任务状态
func (s *Server) getGeneration(c *gin.Context) {
	job, ok := s.jobManager.GetJob(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Generation not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// getGenerationVideo 下载渲染完成的视频
func (s *Server) getGenerationVideo(c *gin.Context) {
	id := c.Param("id")

	job, ok := s.jobManager.GetJob(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Generation not found"})
		return
	}

	videoPath, ok := s.jobManager.VideoPath(id)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Video not ready",
			"status": job.Status,
		})
		return
	}

	c.Header(HeaderContentType, ContentTypeMP4)
	c.FileAttachment(videoPath, id+VideoExtension)
}

// streamGenerationEvents SSE 推送任务进度
func (s *Server) streamGenerationEvents(c *gin.Context) {
	id := c.Param("id")

	if _, ok := s.jobManager.GetJob(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Generation not found"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming unsupported"})
		return
	}

	c.Header(HeaderContentType, ContentTypeEventStream)
	c.Header(HeaderCacheControl, CacheControlNoCache)
	c.Header(HeaderConnection, ConnectionKeepAlive)

	// 连接专用的消息通道，handler 负责订阅与取消
	msgCh := make(chan []byte, 16)
	s.hub.Subscribe(msgCh, id)
	defer s.hub.Unsubscribe(msgCh, id)

	// 状态必须在订阅之后读取：任务若在订阅前一刻结束，
	// 终态事件已经发过了，只能从注册表里补拿
	job, ok := s.jobManager.GetJob(id)
	if !ok {
		return
	}

	// 先推送当前状态，客户端中途连接也能拿到进度
	if data, err := marshalJSON(jobToEvent(job)); err == nil {
		fmt.Fprintf(c.Writer, "%s%s\n\n", StreamChunkPrefix, data)
		flusher.Flush()
	}

	if job.Status == JobStatusSucceeded || job.Status == JobStatusFailed {
		writeStreamDone(c, flusher)
		return
	}

	notify := c.Request.Context().Done()
	for {
		select {
		case <-notify:
			return
		case msg := <-msgCh:
			fmt.Fprintf(c.Writer, "%s%s\n\n", StreamChunkPrefix, msg)
			flusher.Flush()

			var event JobEvent
			if err := unmarshalJSON(msg, &event); err == nil {
				if event.Status == JobStatusSucceeded || event.Status == JobStatusFailed {
					writeStreamDone(c, flusher)
					return
				}
			}
		}
	}
}

// writeStreamDone 发送结束哨兵，客户端据此关闭 EventSource
func writeStreamDone(c *gin.Context, flusher http.Flusher) {
	fmt.Fprintf(c.Writer, "%s%s\n\n", StreamChunkPrefix, StreamChunkDoneMessage)
	flusher.Flush()
}

// listModels 返回支持的模型列表（OpenAI /v1/models 格式）
func (s *Server) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, ModelList{
		Object: ModelListObjectType,
		Data:   s.modelsData.Data,
	})
}

// listQualities 返回可用的渲染质量档位
func (s *Server) listQualities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default": QualityMedium,
		"data":    ListQualityPresets(),
	})
}

// listExamples 返回按类别整理的示例提示词
func (s *Server) listExamples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": GetAllCategories(),
		"examples":   ExamplePrompts,
	})
}
