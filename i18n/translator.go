package i18n

import "strings"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected", "field" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":   "invalid type, expected {expected}",
		"required":       "required field {field} is missing",
		"unknown_key":    "unknown key {key}",
		"duplicate_key":  "duplicate key {key}",
		"invalid_enum":   "value is not one of {allowed}",
		"invalid_format": "invalid {format} value",
		"parse_error":    "parse error",
		"truncated":      "truncated",
		"timeout":        "timed out",
	},
	"ja": {
		"invalid_type":   "型が不正です（期待: {expected}）",
		"required":       "必須フィールド {field} がありません",
		"unknown_key":    "未知のキーです: {key}",
		"duplicate_key":  "キー {key} が重複しています",
		"invalid_enum":   "{allowed} のいずれでもありません",
		"invalid_format": "{format} の形式が不正です",
		"parse_error":    "解析エラー",
		"truncated":      "打ち切られました",
		"timeout":        "タイムアウトしました",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	return expand(msg, data)
}

// expand substitutes {name} placeholders. A placeholder without data is
// removed together with the text that introduces it.
func expand(msg string, data map[string]string) string {
	// placeholders are resolved left to right; substituted text is never rescanned
	from := 0
	for {
		open := strings.IndexByte(msg[from:], '{')
		if open < 0 {
			return msg
		}
		open += from
		end := strings.IndexByte(msg[open:], '}')
		if end < 0 {
			return msg
		}
		end += open
		key := msg[open+1 : end]
		if v, ok := data[key]; ok && v != "" {
			msg = msg[:open] + v + msg[end+1:]
			from = open + len(v)
			continue
		}
		trimmed := trimPlaceholder(msg, open, end)
		from = len(trimmed) - len(msg[end+1:])
		if from < 0 {
			from = 0
		}
		msg = trimmed
	}
}

func trimPlaceholder(msg string, open, end int) string {
	before, after := msg[:open], msg[end+1:]
	// "invalid type, expected {expected}" -> "invalid type"
	if i := strings.LastIndex(before, ", "); i >= 0 && strings.TrimSpace(after) == "" {
		return before[:i]
	}
	if i := strings.LastIndex(before, "（"); i >= 0 && strings.HasPrefix(after, "）") {
		return before[:i] + strings.TrimPrefix(after, "）")
	}
	before = strings.TrimSuffix(before, ": ")
	return strings.Join(strings.Fields(before+" "+after), " ")
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := dictionaries[lang]; !ok {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
