package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ==================== 运行环境检测 ====================

// DependencyStatus 单个外部依赖的检测结果
type DependencyStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SystemStatus 运行环境整体状态
type SystemStatus struct {
	Ready            bool               `json:"ready"`
	Dependencies     []DependencyStatus `json:"dependencies"`
	MediaDirWritable bool               `json:"media_dir_writable"`
}

// SystemChecker 检测 manim/ffmpeg 等外部依赖是否可用
type SystemChecker struct {
	manimBin string
	mediaDir string
	logger   Logger
}

// NewSystemChecker 创建环境检测器
func NewSystemChecker(manimBin, mediaDir string, logger Logger) *SystemChecker {
	if manimBin == "" {
		manimBin = DefaultManimBin
	}
	if mediaDir == "" {
		mediaDir = DefaultMediaDir
	}
	if logger == nil {
		logger = &NopLogger{}
	}
	return &SystemChecker{
		manimBin: manimBin,
		mediaDir: mediaDir,
		logger:   logger,
	}
}

// Check 执行全部检测
// 渲染依赖缺失不会阻止服务启动，但 health 端点会如实上报
func (c *SystemChecker) Check(ctx context.Context) SystemStatus {
	status := SystemStatus{
		Dependencies: []DependencyStatus{
			c.checkBinary(ctx, "manim", c.manimBin),
			c.checkBinary(ctx, "ffmpeg", "ffmpeg"),
		},
		MediaDirWritable: c.checkMediaDir(),
	}

	status.Ready = status.MediaDirWritable
	for _, dep := range status.Dependencies {
		if !dep.Available {
			status.Ready = false
		}
	}

	if !status.Ready {
		c.logger.Warn("System check failed, rendering may not work")
	}

	return status
}

// checkBinary 检测可执行文件并读取版本号
func (c *SystemChecker) checkBinary(ctx context.Context, name, bin string) DependencyStatus {
	status := DependencyStatus{Name: name}

	path, err := exec.LookPath(bin)
	if err != nil {
		status.Error = "not found in PATH"
		return status
	}
	status.Path = path

	versionCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(versionCtx, bin, "--version").CombinedOutput()
	if err != nil {
		status.Error = "failed to get version: " + err.Error()
		return status
	}

	status.Available = true
	status.Version = firstLine(string(out))
	return status
}

// checkMediaDir 确认视频输出目录存在且可写
func (c *SystemChecker) checkMediaDir() bool {
	if err := os.MkdirAll(c.mediaDir, DirPermissionDefault); err != nil {
		c.logger.Error("Media dir %s not usable: %v", c.mediaDir, err)
		return false
	}

	probe := filepath.Join(c.mediaDir, ".write_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		c.logger.Error("Media dir %s not writable: %v", c.mediaDir, err)
		return false
	}
	os.Remove(probe)
	return true
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
