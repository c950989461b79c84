package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers/ollama"
	"github.com/spf13/cobra"
)

// maxSuggestions 模型名称建议的数量上限
const maxSuggestions = 3

func newModelsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "列出本地 Ollama 模型",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models := ollama.NewModelLister(a.cfg.Ollama.Command, a.log).List(cmd.Context())
			if len(models) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "没有找到模型，请确认 %q 可以执行\n", a.cfg.Ollama.Command)
				return nil
			}
			renderModels(cmd.OutOrStdout(), models)
			return nil
		},
	}
}

// renderModels 以表格输出模型列表
func renderModels(w io.Writer, models []string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"#", "模型"})
	for i, m := range models {
		tw.AppendRow(table.Row{i + 1, m})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("共 %d 个", len(models))})
	tw.SetStyle(table.StyleLight)
	tw.Render()
}

// suggestModels 按模糊匹配距离返回最接近的模型名
func suggestModels(name string, models []string) []string {
	ranks := fuzzy.RankFindFold(name, models)
	if len(ranks) == 0 {
		// 把输入当作目标再试一次，例如 "qwen2.5" 对 "qwen"
		for _, m := range models {
			if fuzzy.MatchFold(m, name) {
				ranks = append(ranks, fuzzy.Rank{Source: m, Target: m, Distance: len(name) - len(m)})
			}
		}
	}
	sort.Sort(ranks)

	suggestions := make([]string, 0, maxSuggestions)
	for _, r := range ranks {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, r.Target)
	}
	return suggestions
}
