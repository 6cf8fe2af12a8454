package service

import (
	"fmt"
	"regexp"
	"strings"
)

var templateVarPattern = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// RenderPlaceholders 替换 {{token}} 占位符，未提供的变量替换为空字符串，不会失败
func RenderPlaceholders(template string, variables map[string]string) string {
	if template == "" || !strings.Contains(template, "{{") {
		return template
	}
	return templateVarPattern.ReplaceAllStringFunc(template, func(matched string) string {
		submatch := templateVarPattern.FindStringSubmatch(matched)
		if len(submatch) != 2 {
			return ""
		}
		return variables[submatch[1]]
	})
}

// TemplateVariables 模板变量集合
type TemplateVariables map[string]string

// Set 写入变量，值会被格式化为字符串
func (v TemplateVariables) Set(key string, value interface{}) TemplateVariables {
	if value == nil {
		v[key] = ""
		return v
	}
	v[key] = strings.TrimSpace(fmt.Sprintf("%v", value))
	return v
}
