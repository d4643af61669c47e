package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ==================== 渲染结果 ====================

// RenderResult 单次渲染的结果
type RenderResult struct {
	VideoPath  string        // 最终视频文件路径
	Duration   time.Duration // 渲染耗时
	Complexity string        // 代码复杂度评估
	Stdout     string        // manim 标准输出（截断）
	Stderr     string        // manim 标准错误（截断）
}

// ==================== ManimRenderer ====================

// ManimRenderer 调用 manim CLI 渲染场景代码
// 每次渲染在独立临时目录中执行，完成后把视频移动到目标路径
type ManimRenderer struct {
	manimBin       string
	timeout        time.Duration
	keepFailedTemp bool
	logger         Logger
}

// RendererConfig 渲染器配置
type RendererConfig struct {
	ManimBin string
	Timeout  time.Duration
	// KeepFailedTemp 渲染失败时保留临时目录，便于排查 manim 报错
	KeepFailedTemp bool
	Logger         Logger
}

// NewManimRenderer 创建渲染器
func NewManimRenderer(config RendererConfig) *ManimRenderer {
	manimBin := config.ManimBin
	if manimBin == "" {
		manimBin = DefaultManimBin
	}
	timeout := config.Timeout
	if timeout < MinRenderTimeout {
		timeout = DefaultRenderTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = &NopLogger{}
	}

	return &ManimRenderer{
		manimBin:       manimBin,
		timeout:        timeout,
		keepFailedTemp: config.KeepFailedTemp,
		logger:         logger,
	}
}

// Render 渲染代码并把视频写到 outputPath
// 失败时返回带分类信息的错误，stderr 内容会进入错误详情
func (r *ManimRenderer) Render(ctx context.Context, code, quality, outputPath string) (*RenderResult, error) {
	start := time.Now()

	preset := GetQualityPreset(quality)
	complexity := AnalyzeCodeComplexity(code)
	code = OptimizeCodeForPerformance(code)

	tempDir, err := os.MkdirTemp("", TempDirPrefix)
	if err != nil {
		return nil, ErrRenderFailed(fmt.Errorf("create temp dir: %w", err))
	}
	renderFailed := false
	defer func() {
		if renderFailed && r.keepFailedTemp {
			r.logger.Warn("Keeping render temp dir for inspection: %s", tempDir)
			return
		}
		os.RemoveAll(tempDir)
	}()

	scenePath := filepath.Join(tempDir, SceneFileName)
	if err := os.WriteFile(scenePath, []byte(code), 0644); err != nil {
		return nil, ErrRenderFailed(fmt.Errorf("write scene file: %w", err))
	}

	mediaDir := filepath.Join(tempDir, "media")

	renderCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(renderCtx, r.manimBin,
		preset.Flag,
		scenePath,
		SceneClassName,
		"--output_file", OutputFileName,
		"--media_dir", mediaDir,
	)
	cmd.Dir = tempDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("Rendering scene (quality=%s complexity=%s timeout=%s)", preset.Name, complexity, r.timeout)

	runErr := cmd.Run()
	elapsed := time.Since(start)

	result := &RenderResult{
		Duration:   elapsed,
		Complexity: complexity,
		Stdout:     truncateString(stdout.String(), 0, 4000, "... "),
		Stderr:     truncateString(stderr.String(), 0, 4000, "... "),
	}

	if runErr != nil {
		renderFailed = true
		if renderCtx.Err() == context.DeadlineExceeded {
			r.logger.Error("Render timed out after %s", r.timeout)
			return result, ErrRenderTimeout(r.timeout.String())
		}
		combined := stderr.String()
		if combined == "" {
			combined = stdout.String()
		}
		r.logger.Error("Manim render failed after %s: %v", elapsed.Round(time.Millisecond), runErr)
		return result, ErrRenderFailed(fmt.Errorf("%s: %w", truncateString(combined, 0, 2000, "... "), runErr))
	}

	videoPath, err := findRenderedVideo(mediaDir)
	if err != nil {
		renderFailed = true
		return result, ErrRenderFailed(err)
	}

	if err := validateVideoFile(videoPath); err != nil {
		renderFailed = true
		return result, ErrRenderFailed(err)
	}

	if err := moveFile(videoPath, outputPath); err != nil {
		return result, ErrRenderFailed(fmt.Errorf("move video: %w", err))
	}

	result.VideoPath = outputPath
	r.logger.Info("Render completed in %s (quality=%s)", elapsed.Round(time.Millisecond), preset.Name)
	return result, nil
}

// findRenderedVideo 在 media 目录中查找生成的 mp4
// manim 的输出路径包含质量子目录，直接递归扫描更稳妥
func findRenderedVideo(mediaDir string) (string, error) {
	var found string
	err := filepath.WalkDir(mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == VideoExtension {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil && !errors.Is(err, filepath.SkipAll) {
		return "", fmt.Errorf("scan media dir: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("no %s file produced in %s", VideoExtension, mediaDir)
	}
	return found, nil
}

// moveFile 跨文件系统安全的移动
// 临时目录和目标目录可能不在同一分区，rename 失败时回退到复制
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), DirPermissionDefault); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
