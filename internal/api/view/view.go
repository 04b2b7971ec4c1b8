package view

import (
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// FuncMap 模板辅助函数
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"timesince": func(t time.Time) string {
			return humanize.Time(t)
		},
		"datetime": func(t time.Time) string {
			return t.UTC().Format("Jan 2, 2006 15:04 UTC")
		},
		"isodate": func(t time.Time) string {
			return t.UTC().Format(time.RFC3339)
		},
		"comma": func(n int64) string {
			return humanize.Comma(n)
		},
		"initial": func(name string) string {
			if name == "" {
				return "?"
			}
			return strings.ToUpper(name[:1])
		},
	}
}

// Templates 解析全部内嵌模板
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
}

// Load 为 Gin 设置页面模板
func Load(r *gin.Engine) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)
	return nil
}
