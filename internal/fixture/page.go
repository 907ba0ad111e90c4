package fixture

import (
	"embed"
	"html/template"
	"io"
)

// DownloadLabel is the visible label of a finished task's download button.
const DownloadLabel = "下载输出"

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"downloadLabel": func() string { return DownloadLabel },
}).ParseFS(templatesFS, "templates/index.html"))

// RenderPage writes the task list page for tasks.
func RenderPage(w io.Writer, tasks []Task) error {
	return pageTemplate.Execute(w, struct {
		Tasks []Task
	}{Tasks: tasks})
}
