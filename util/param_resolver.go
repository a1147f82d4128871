package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
)

var tokenPattern = regexp.MustCompile("{(.*?)}")

// ResolvePayload substitutes {$.path} tokens in string values with values looked
// up in data. A string made of a single token keeps the looked-up value's type.
// Tokens that do not resolve are left untouched.
func ResolvePayload(data map[string]any, payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	output := make(map[string]any, len(payload))
	resolveParams(data, payload, output)
	return output
}

func resolveParams(data map[string]any, params map[string]any, output map[string]any) {
	for k, v := range params {
		output[k] = resolveValue(data, v)
	}
}

func resolveValue(data map[string]any, v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		resolveParams(data, val, out)
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, e := range val {
			out = append(out, resolveValue(data, e))
		}
		return out
	case string:
		return resolveString(data, val)
	default:
		return v
	}
}

func resolveString(data map[string]any, s string) any {
	tokens := tokenPattern.FindAllString(s, -1)
	if len(tokens) == 0 {
		return s
	}
	if len(tokens) == 1 && tokens[0] == s {
		if value, ok := lookup(data, s); ok {
			return value
		}
		return s
	}
	newStr := s
	for _, token := range tokens {
		if value, ok := lookup(data, token); ok {
			newStr = strings.ReplaceAll(newStr, token, fmt.Sprintf("%v", value))
		}
	}
	return newStr
}

func lookup(data map[string]any, token string) (any, bool) {
	path := strings.TrimSuffix(strings.TrimPrefix(token, "{"), "}")
	if !strings.HasPrefix(path, "$") {
		return nil, false
	}
	value, err := jsonpath.JsonPathLookup(data, path)
	if err != nil {
		return nil, false
	}
	return value, true
}

// JsonPathExpression reports whether expr is a single {$.path} token and
// returns the path.
func JsonPathExpression(expr string) (string, bool) {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "{") || !strings.HasSuffix(expr, "}") {
		return "", false
	}
	path := strings.TrimSpace(expr[1 : len(expr)-1])
	if !strings.HasPrefix(path, "$") {
		return "", false
	}
	return path, true
}
