// Package view renders list fragments for clients that swap table bodies in
// place instead of building markup from JSON.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
)

//go:embed fragments/*.html
var fragmentsFS embed.FS

// Renderer executes the embedded fragment templates.
type Renderer struct {
	templates *template.Template
}

// New parses the embedded fragments.
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v)
		},
	}
	tmpl, err := template.New("fragments").Funcs(funcs).ParseFS(fragmentsFS, "fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse fragments: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// MustNew is New for process startup.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// WalletRows renders wallet table rows.
func (r *Renderer) WalletRows(rows []service.WalletView) ([]byte, error) {
	return r.render("wallet_rows", rows)
}

// ExamList renders the student exam list.
func (r *Renderer) ExamList(items []service.ExamListItem) ([]byte, error) {
	return r.render("exam_list", items)
}

// EmployeeRows renders employee table rows.
func (r *Renderer) EmployeeRows(rows []models.Employee) ([]byte, error) {
	return r.render("employee_rows", rows)
}

func (r *Renderer) render(name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
