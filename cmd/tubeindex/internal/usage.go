package internal

import (
	"fmt"
	"os"
	"strings"
)

const Version = "0.3.0"

// PrintUsage 向 stderr 输出 tubeindex 的用法与可用子命令列表。
// 无返回值。
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `tubeindex - Semantic Search over YouTube Channel Subtitles

Version: %s

USAGE:
    tubeindex [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>
        Path to config file (default: ./tubeindex.yaml, then ~/.tubeindex/config/tubeindex.yaml)

    -v, -version
        Show version information

    -h, -help
        Show this help message

COMMANDS:
    init
        Write a default configuration file

    collect
        List the channel's videos into videos_metadata.json

    subtitles
        Download one transcript per video

    chunk
        Split transcripts into time-window chunks

    build
        Embed chunks and rebuild the vector collection

    search
        Search the indexed subtitles

    eval
        Run the configured evaluation queries

    serve
        Run the web search UI

    mcp
        Run MCP stdio server (tools: tubeindex_search, tubeindex_status)

    stats
        Show index statistics

EXAMPLES:
    # Create ./tubeindex.yaml
    tubeindex init

    # Run the ingestion pipeline
    tubeindex collect
    tubeindex subtitles
    tubeindex chunk
    tubeindex build

    # Search from the terminal
    tubeindex search "ISA 만기되면 연금으로 전환하는 게 좋을까요?"

    # Serve the web UI on :8501
    tubeindex serve

For detailed help on each command, use:
    tubeindex <command> -help
`, Version)
}

// StringList is a flag.Value that collects multiple strings
type StringList []string

// String 返回 StringList 的逗号连接形式。
// 满足 fmt.Stringer 与 flag.Value 接口要求。
func (s *StringList) String() string {
	return strings.Join(*s, ",")
}

// Set 将逗号分隔的字符串追加到 StringList，始终返回 nil。
// 允许多次传入同一 flag。
func (s *StringList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}
