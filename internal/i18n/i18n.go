package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const (
	LocaleRU = "ru"
	LocaleEN = "en"
)

// DefaultLocale 默认语言
const DefaultLocale = LocaleRU

var supported = []language.Tag{language.Russian, language.English}

var matcher = language.NewMatcher(supported)

// ResolveLocale 解析请求语言：?lang= > X-Locale > Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if locale, ok := normalize(c.Query("lang")); ok {
		return locale
	}
	if locale, ok := normalize(c.GetHeader("X-Locale")); ok {
		return locale
	}
	return MatchAcceptLanguage(c.GetHeader("Accept-Language"))
}

// MatchAcceptLanguage 按 Accept-Language 匹配支持的语言
func MatchAcceptLanguage(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// T 获取翻译，缺失时回退默认语言，再回退 key
func T(locale, key string) string {
	if msg, ok := lookup(locale, key); ok {
		return msg
	}
	if msg, ok := lookup(DefaultLocale, key); ok {
		return msg
	}
	return key
}

// Sprintf 获取翻译并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

// Has 是否存在该 key
func Has(key string) bool {
	_, ok := lookup(DefaultLocale, key)
	return ok
}

func lookup(locale, key string) (string, bool) {
	table, ok := messages[locale]
	if !ok {
		return "", false
	}
	msg, ok := table[key]
	return msg, ok
}

func normalize(raw string) (string, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", false
	}
	if idx := strings.IndexAny(raw, "-_"); idx > 0 {
		raw = raw[:idx]
	}
	if _, ok := messages[raw]; ok {
		return raw, true
	}
	return "", false
}
