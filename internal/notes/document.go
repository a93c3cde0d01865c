package notes

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a parsed markdown note.
type Document struct {
	Path  string
	Title string
	Tags  []string
	Body  string
}

type frontMatter struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

var fence = []byte("---")

// ParseFile reads and parses the note at path.
func ParseFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read note: %w", err)
	}
	return Parse(path, data)
}

// Parse splits optional YAML front matter from the body and derives a
// title from the front matter or the first level-one heading.
func Parse(path string, data []byte) (Document, error) {
	doc := Document{Path: path}
	body := data
	if meta, rest, ok := splitFrontMatter(data); ok {
		var fm frontMatter
		if err := yaml.Unmarshal(meta, &fm); err != nil {
			return Document{}, fmt.Errorf("front matter in %s: %w", path, err)
		}
		doc.Title = strings.TrimSpace(fm.Title)
		doc.Tags = fm.Tags
		body = rest
	}
	doc.Body = string(body)
	if doc.Title == "" {
		doc.Title = firstHeading(body)
	}
	return doc, nil
}

// DisplayTitle returns title, or the base name of path when title is empty.
func DisplayTitle(title, path string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return filepath.Base(path)
}

func splitFrontMatter(data []byte) (meta, rest []byte, ok bool) {
	trimmed := bytes.TrimLeft(data, "\ufeff")
	if !bytes.HasPrefix(trimmed, fence) {
		return nil, data, false
	}
	firstLine := bytes.IndexByte(trimmed, '\n')
	if firstLine < 0 || strings.TrimSpace(string(trimmed[:firstLine])) != "---" {
		return nil, data, false
	}
	remainder := trimmed[firstLine+1:]
	offset := 0
	for offset <= len(remainder) {
		end := bytes.IndexByte(remainder[offset:], '\n')
		var line []byte
		if end < 0 {
			line = remainder[offset:]
		} else {
			line = remainder[offset : offset+end]
		}
		if strings.TrimSpace(string(line)) == "---" {
			meta = remainder[:offset]
			if end < 0 {
				return meta, nil, true
			}
			return meta, remainder[offset+end+1:], true
		}
		if end < 0 {
			break
		}
		offset += end + 1
	}
	return nil, data, false
}

func firstHeading(body []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	inCode := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
