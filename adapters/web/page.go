package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed static/index.html
var files embed.FS

// PageData is rendered into the page template.
type PageData struct {
	Title       string
	SessionPath string
	SocketPath  string
}

// Page serves the single page UI.
type Page struct {
	body []byte
}

func NewPage(data PageData) (*Page, error) {
	tmpl, err := template.ParseFS(files, "static/index.html")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return &Page{body: buf.Bytes()}, nil
}

func (p *Page) Handler(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, p.body)
}
