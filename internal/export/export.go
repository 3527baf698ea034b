package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mfenderov/taryag/internal/storage"
	"github.com/mfenderov/taryag/pkg/models"
	"golang.org/x/net/html"
)

// Format is an export file format.
type Format string

const (
	JSON     Format = "json"
	Text     Format = "txt"
	Markdown Format = "md"
)

// ExportsDir is where exported files are written.
const ExportsDir = "exports"

// ErrUnsupportedFormat is returned for any format other than json, txt or md.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat accepts exactly "json", "txt" or "md".
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case JSON, Text, Markdown:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q (use json, txt or md)", ErrUnsupportedFormat, s)
}

// FileName returns the artifact name of an exported record, e.g. "exports/mitzvah_007.md".
func FileName(id int, format Format) string {
	return path.Join(ExportsDir, fmt.Sprintf("mitzvah_%03d.%s", id, format))
}

// Render turns a record into the requested format.
func Render(record models.Record, format Format) ([]byte, error) {
	switch format {
	case JSON:
		return json.MarshalIndent(record, "", "  ")
	case Text:
		return []byte(renderText(record)), nil
	case Markdown:
		md, err := renderMarkdown(record)
		if err != nil {
			return nil, err
		}
		return []byte(md), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Write renders a record and stores it under ExportsDir. Nothing is written
// when the format is unsupported or rendering fails.
func Write(ctx context.Context, backend storage.Backend, record models.Record, format Format) (string, error) {
	data, err := Render(record, format)
	if err != nil {
		return "", err
	}
	name := FileName(record.ID, format)
	if err := backend.Put(ctx, name, data); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return name, nil
}

func renderText(r models.Record) string {
	var b strings.Builder
	b.WriteString(r.DisplayTitle() + "\n")
	if r.HebrewTitle != "" {
		b.WriteString(r.HebrewTitle + "\n")
	}
	if len(r.Categories) > 0 {
		b.WriteString("Categories: " + strings.Join(r.Categories, " > ") + "\n")
	}

	if r.HasEnglish() {
		b.WriteString("\nEnglish:\n")
		for _, p := range r.EnglishText {
			b.WriteString(StripTags(p) + "\n\n")
		}
	}
	if r.HasHebrew() {
		b.WriteString("\nHebrew:\n")
		for _, p := range r.HebrewText {
			b.WriteString(StripTags(p) + "\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderMarkdown(r models.Record) (string, error) {
	var b strings.Builder
	b.WriteString("# " + r.DisplayTitle() + "\n\n")
	if r.HebrewTitle != "" {
		b.WriteString("## " + r.HebrewTitle + "\n\n")
	}
	if len(r.Categories) > 0 {
		b.WriteString("**Categories:** " + strings.Join(r.Categories, " > ") + "\n\n")
	}

	sections := []struct {
		heading string
		text    models.Paragraphs
	}{
		{"English", r.EnglishText},
		{"Hebrew", r.HebrewText},
	}
	for _, s := range sections {
		if s.text.Empty() {
			continue
		}
		b.WriteString("## " + s.heading + "\n\n")
		for _, p := range s.text {
			md, err := Convert(p)
			if err != nil {
				return "", fmt.Errorf("failed to convert %s paragraph: %w", strings.ToLower(s.heading), err)
			}
			if md != "" {
				b.WriteString(md + "\n\n")
			}
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

// Convert transforms a paragraph that may carry inline HTML into Markdown.
func Convert(htmlContent string) (string, error) {
	if htmlContent == "" {
		return "", nil
	}

	markdown, err := htmltomarkdown.ConvertString(htmlContent)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(markdown), nil
}

// StripTags returns the text content of an HTML fragment, turning <br> into
// line breaks.
func StripTags(htmlContent string) string {
	if !strings.ContainsAny(htmlContent, "<&") {
		return htmlContent
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(b.String())
}
