package invoke

import "strings"

// shellQuote wraps a value in single quotes so the shell treats it as one
// argument. Embedded single quotes are replaced with the sequence that
// closes the quoting, escapes the quote, and reopens it ('\''), so values
// containing quotes or shell metacharacters cannot break out of their
// argument position.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// RenderCommand substitutes {key} placeholders in a command template.
// Every value is individually shell-quoted before substitution.
func RenderCommand(template string, vars map[string]string) string {
	rendered := template
	for key, value := range vars {
		rendered = strings.ReplaceAll(rendered, "{"+key+"}", shellQuote(value))
	}
	return rendered
}
