package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/DreamCats/tubeindex/cmd/tubeindex/internal"
	"github.com/DreamCats/tubeindex/internal/config"
)

// main 启动 tubeindex 命令行工具，解析参数并执行对应子命令。
// 若参数无效或缺少子命令则打印用法并退出。
func main() {
	if len(os.Args) < 2 {
		internal.PrintUsage()
		os.Exit(1)
	}

	configPath := ""
	args := os.Args[1:]

	validSubcommands := map[string]bool{
		"init":      true,
		"collect":   true,
		"subtitles": true,
		"chunk":     true,
		"build":     true,
		"search":    true,
		"eval":      true,
		"serve":     true,
		"mcp":       true,
		"stats":     true,
		"version":   true,
	}

	// The subcommand is the first non-flag argument that names one
	subcommandIndex := -1
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && validSubcommands[arg] {
			subcommandIndex = i
			break
		}
	}

	globalFlags := args
	if subcommandIndex >= 0 {
		globalFlags = args[:subcommandIndex]
	}
	for i := 0; i < len(globalFlags); i++ {
		flag := globalFlags[i]
		switch {
		case flag == "-config" || flag == "--config":
			if i+1 < len(globalFlags) {
				configPath = globalFlags[i+1]
				i++
			}
		case strings.HasPrefix(flag, "-config=") || strings.HasPrefix(flag, "--config="):
			configPath = flag[strings.Index(flag, "=")+1:]
		case flag == "-h" || flag == "-help" || flag == "--help":
			internal.PrintUsage()
			os.Exit(0)
		case flag == "-v" || flag == "-version" || flag == "--version":
			fmt.Printf("tubeindex version %s\n", internal.Version)
			os.Exit(0)
		case strings.HasPrefix(flag, "-"):
			fmt.Fprintf(os.Stderr, "Error: Unknown global flag: %s\n\n", flag)
			internal.PrintUsage()
			os.Exit(1)
		}
	}

	if subcommandIndex == -1 {
		fmt.Fprintf(os.Stderr, "Error: No subcommand specified\n\n")
		internal.PrintUsage()
		os.Exit(1)
	}

	subcommand := args[subcommandIndex]
	subcommandArgs := args[subcommandIndex+1:]

	switch subcommand {
	case "version":
		fmt.Printf("tubeindex version %s\n", internal.Version)
		return
	case "init":
		handleInit(internal.InitConfigPath(configPath), subcommandArgs)
		return
	}

	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		if config.IsConfigNotFound(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			internal.PrintConfigExample()
			os.Exit(1)
		}
		log.Fatalf("Failed to load config: %v\n", err)
	}

	if err := internal.SetupLogging(subcommand); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize log file: %v\n", err)
	}

	switch subcommand {
	case "collect":
		handleCollect(cfg, subcommandArgs)
	case "subtitles":
		handleSubtitles(cfg, subcommandArgs)
	case "chunk":
		handleChunk(cfg, subcommandArgs)
	case "build":
		handleBuild(cfg, subcommandArgs)
	case "search":
		handleSearch(cfg, subcommandArgs)
	case "eval":
		handleEval(cfg, subcommandArgs)
	case "serve":
		handleServe(cfg, subcommandArgs)
	case "mcp":
		handleMCP(cfg, subcommandArgs)
	case "stats":
		handleStats(cfg, subcommandArgs)
	default:
		fmt.Printf("Unknown subcommand: %s\n\n", subcommand)
		internal.PrintUsage()
		os.Exit(1)
	}
}
