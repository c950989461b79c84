package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/nerdneilsfield/go-doc-translator/internal/cli"
)

// Version information
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "错误: %v\n", err)
		fmt.Fprintln(os.Stderr, "使用 doctranslator --help 查看用法")
		os.Exit(1)
	}
}
