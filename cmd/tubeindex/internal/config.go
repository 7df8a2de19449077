package internal

import (
	"fmt"
	"os"

	"github.com/DreamCats/tubeindex/internal/config"
)

// LoadConfig 从指定路径读取并解析 YAML 配置文件。
// 路径为空时按默认顺序查找，返回填充后的 *config.Config 或解析错误。
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// InitConfigPath 返回 init 子命令应写入的配置文件路径。
// 未指定 -config 时使用当前目录下的 tubeindex.yaml。
func InitConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultFileName
}

// PrintConfigExample 向 stderr 打印一份精简的 YAML 配置示例。
// 供用户快速创建自定义配置文件。
func PrintConfigExample() {
	defaultPath, _ := config.DefaultPath()

	fmt.Fprintf(os.Stderr, `Create a configuration file at ./%s or %s:

channel:
  url: https://www.youtube.com/@yourchannel/videos
  days_limit: 365
  languages: [ko]

embedding:
  # Provider: "local" | "openai"
  provider: local
  local:
    model_path: models/ko-sbert-multitask/model.onnx
    tokenizer_path: models/ko-sbert-multitask/tokenizer.json
    dimensions: 768

# For the hosted API, use:
# embedding:
#   provider: openai
#   openai:
#     api_key: your-openai-api-key
#     model: text-embedding-3-large

Usage:
  1. Run: tubeindex init
  2. Edit channel.url in the generated file
  3. Run: tubeindex collect && tubeindex subtitles && tubeindex chunk && tubeindex build
  4. Search: tubeindex search "your question"
`, config.DefaultFileName, defaultPath)
}
