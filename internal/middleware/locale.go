package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/pkg/i18n"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

const (
	// CultureCookie holds an explicit culture choice.
	CultureCookie = "culture"

	formatterKey = "i18n.formatter"
)

// Locale resolves the request culture from the culture cookie or
// Accept-Language and exposes it as meta.locale and meta.dir.
func Locale(resolver *i18n.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var preferred []string
		if culture, err := c.Cookie(CultureCookie); err == nil && culture != "" {
			preferred = append(preferred, culture)
		}
		if accept := c.GetHeader("Accept-Language"); accept != "" {
			preferred = append(preferred, accept)
		}
		formatter := resolver.Resolve(preferred...)
		c.Set(formatterKey, formatter)
		response.SetMeta(c, "locale", formatter.Culture())
		response.SetMeta(c, "dir", string(formatter.Direction()))
		c.Header("Content-Language", formatter.Culture())
		c.Next()
	}
}

// Formatter returns the request formatter or nil when Locale did not run.
func Formatter(c *gin.Context) *i18n.Formatter {
	value, ok := c.Get(formatterKey)
	if !ok {
		return nil
	}
	f, _ := value.(*i18n.Formatter)
	return f
}
