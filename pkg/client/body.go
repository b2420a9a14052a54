package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Body is a request payload. Encode is called once per attempt so retried
// requests carry identical bytes.
type Body interface {
	Encode() (io.Reader, string, error)
}

type jsonBody struct {
	value any
}

// JSON returns a body that serialises v as application/json.
func JSON(v any) Body {
	return jsonBody{value: v}
}

func (b jsonBody) Encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.value)
	if err != nil {
		return nil, "", fmt.Errorf("client: encode json body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

type multipartEntry struct {
	name        string
	value       string
	filename    string
	contentType string
	content     []byte
	file        bool
}

// Multipart is a multipart/form-data body. The boundary, and therefore the
// Content-Type header, comes from the writer at encode time.
type Multipart struct {
	entries []multipartEntry
}

// NewMultipart returns an empty multipart body.
func NewMultipart() *Multipart {
	return &Multipart{}
}

// Add appends a text entry. Repeated names produce repeated entries.
func (m *Multipart) Add(name, value string) *Multipart {
	m.entries = append(m.entries, multipartEntry{name: name, value: value})
	return m
}

// AddFile appends a file entry.
func (m *Multipart) AddFile(name, filename, contentType string, content []byte) *Multipart {
	m.entries = append(m.entries, multipartEntry{
		name:        name,
		filename:    filename,
		contentType: contentType,
		content:     content,
		file:        true,
	})
	return m
}

// Values returns the text values recorded under name.
func (m *Multipart) Values(name string) []string {
	var out []string
	for _, e := range m.entries {
		if !e.file && e.name == name {
			out = append(out, e.value)
		}
	}
	return out
}

// Files returns the names of the file entries, in order.
func (m *Multipart) Files() []string {
	var out []string
	for _, e := range m.entries {
		if e.file {
			out = append(out, e.name)
		}
	}
	return out
}

// Len reports the number of entries.
func (m *Multipart) Len() int {
	return len(m.entries)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (m *Multipart) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, e := range m.entries {
		if !e.file {
			if err := w.WriteField(e.name, e.value); err != nil {
				return nil, "", fmt.Errorf("client: write field %s: %w", e.name, err)
			}
			continue
		}
		var (
			part io.Writer
			err  error
		)
		if e.contentType == "" {
			part, err = w.CreateFormFile(e.name, e.filename)
		} else {
			header := make(textproto.MIMEHeader)
			header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
				quoteEscaper.Replace(e.name), quoteEscaper.Replace(e.filename)))
			header.Set("Content-Type", e.contentType)
			part, err = w.CreatePart(header)
		}
		if err != nil {
			return nil, "", fmt.Errorf("client: create file part %s: %w", e.name, err)
		}
		if _, err := part.Write(e.content); err != nil {
			return nil, "", fmt.Errorf("client: write file part %s: %w", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("client: close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
