package invoke

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Field-name aliases searched for the response text and the session id.
// Order matters: earlier names win.
var (
	textKeys    = []string{"text", "response", "message", "content", "output", "result", "answer", "body"}
	sessionKeys = []string{"session_id", "sessionId", "session", "conversation_id", "thread_id", "id"}
)

// Regex fallbacks for session ids embedded in unstructured output,
// e.g. "session_id: abc-123" in a CLI banner line.
var (
	sessionIDPattern = regexp.MustCompile(`(?i)session[_-]?id["'` + "`" + `:\s=]+"?([A-Za-z0-9._-]+)`)
	genericIDPattern = regexp.MustCompile(`(?i)\bid["':\s=]+"?([A-Za-z0-9._-]+)`)
)

// Extract normalizes raw agent stdout into {text, sessionID}.
//
// It attempts to parse stdout as JSON: the whole text first, then each line
// from the bottom up (CLIs that stream NDJSON put their final result last).
// Field extraction searches the alias lists recursively through the parsed
// structure. When no structured field is found, the text falls back to the
// raw trimmed stdout and the session id to a regex scan. Either value may
// be empty; the caller decides whether a missing session id is fatal.
func Extract(stdout string) (text, sessionID string) {
	for _, doc := range parseDocuments(stdout) {
		if text == "" {
			if s, ok := findString(doc, textKeys); ok {
				text = s
			}
		}
		if sessionID == "" {
			if s, ok := findString(doc, sessionKeys); ok {
				sessionID = s
			}
		}
		if text != "" && sessionID != "" {
			break
		}
	}

	if text == "" {
		text = strings.TrimSpace(stdout)
	}
	if sessionID == "" {
		sessionID = scanSessionID(stdout)
	}
	return text, sessionID
}

// parseDocuments returns candidate JSON documents from stdout: the whole
// text if it parses, otherwise each parseable line from the bottom up.
func parseDocuments(stdout string) []any {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return nil
	}

	var whole any
	if err := json.Unmarshal([]byte(trimmed), &whole); err == nil {
		if _, isString := whole.(string); !isString {
			return []any{whole}
		}
		return nil
	}

	lines := strings.Split(trimmed, "\n")
	var docs []any
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var doc any
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			continue
		}
		if _, isString := doc.(string); isString {
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

// findString searches a parsed JSON tree for the first non-empty string
// value under any of the given keys, trying keys in priority order.
// Returns ("", false) rather than failing when nothing matches.
func findString(doc any, keys []string) (string, bool) {
	for _, key := range keys {
		if s, ok := findKey(doc, key); ok {
			return s, true
		}
	}
	return "", false
}

// findKey recursively searches objects and arrays for a non-empty string
// value under the given key. Direct hits on an object win before its
// children are searched.
func findKey(doc any, key string) (string, bool) {
	switch v := doc.(type) {
	case map[string]any:
		if raw, ok := v[key]; ok {
			if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
				return s, true
			}
		}
		for _, child := range v {
			if s, ok := findKey(child, key); ok {
				return s, true
			}
		}
	case []any:
		for _, child := range v {
			if s, ok := findKey(child, key); ok {
				return s, true
			}
		}
	}
	return "", false
}

// scanSessionID scans raw output for a session id with the regex fallbacks.
// The explicit session-id pattern is tried before the generic id pattern.
func scanSessionID(raw string) string {
	if m := sessionIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if m := genericIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}
