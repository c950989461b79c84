package translation

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// BuildPrompt 整篇分块翻译使用的提示词
func BuildPrompt(sourceLang, targetLang, chunk string) string {
	return fmt.Sprintf(
		"Please translate the following text from %s to %s. Maintain any special formatting or technical terms:\n\n%s",
		LanguageName(sourceLang), LanguageName(targetLang), chunk)
}

// BuildTextPrompt 单段文本翻译使用的提示词，强调保留格式和段落结构
func BuildTextPrompt(sourceLang, targetLang, text string) string {
	return fmt.Sprintf(
		"请将以下文本从%s翻译成%s。\n保持原文的格式和段落结构，只翻译文本内容。\n原文：\n%s",
		LanguageName(sourceLang), LanguageName(targetLang), text)
}

// LanguageName 把 zh、en-US 这样的语言代码展开为英文名称，其他输入原样返回
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if len(code) > 3 && !strings.Contains(code, "-") && !strings.Contains(code, "_") {
		return code
	}

	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return code
	}
	return name
}
