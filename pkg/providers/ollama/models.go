package ollama

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// DefaultCommand 模型列表命令
const DefaultCommand = "ollama"

// ModelLister 通过 `<command> list` 获取本地模型
type ModelLister struct {
	Command string
	logger  *zap.Logger
}

// NewModelLister 创建模型列表获取器
func NewModelLister(command string, logger *zap.Logger) *ModelLister {
	if command == "" {
		command = DefaultCommand
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelLister{Command: command, logger: logger}
}

// List 尽力获取模型列表，任何失败都返回空列表
func (l *ModelLister) List(ctx context.Context) []string {
	cmd := exec.CommandContext(ctx, l.Command, "list")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		l.logger.Error("failed to list models",
			zap.String("command", l.Command),
			zap.String("stderr", strings.TrimSpace(stderr.String())),
			zap.Error(err))
		return []string{}
	}

	models := ParseModelList(stdout.String())
	if len(models) == 0 {
		l.logger.Warn("model list is empty", zap.String("command", l.Command))
	}
	l.logger.Info("models found", zap.Int("count", len(models)))
	return models
}

// ParseModelList 解析表格输出：跳过标题行，取每个非空行的第一列
func ParseModelList(output string) []string {
	output = strings.TrimSpace(output)
	models := []string{}
	if output == "" {
		return models
	}

	lines := strings.Split(output, "\n")
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		models = append(models, fields[0])
	}
	return models
}
