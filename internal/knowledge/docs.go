package knowledge

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// FileSourcePrefix marks documents loaded from the knowledge directory.
const FileSourcePrefix = "file:"

var errInvalidFrontmatter = errors.New("invalid YAML frontmatter")

type docFrontmatter struct {
	Title       string   `yaml:"title"`
	Destination string   `yaml:"destination"`
	Tags        []string `yaml:"tags"`
}

// LoadDocs reads every *.md file under dir. Frontmatter is optional; without
// a title the file name is used. Files with broken frontmatter are skipped
// with a warning. A missing dir yields no documents.
func LoadDocs(fsys afero.Fs, dir string) ([]Document, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}

	info, err := fsys.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat knowledge dir %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("knowledge path is not a directory: %s", dir)
	}

	var paths []string
	err = afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk knowledge dir %q: %w", dir, err)
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		content, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		doc, err := parseDoc(content)
		if err != nil {
			log.Printf("[knowledge] warning: skip %s: %v", path, err)
			continue
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = filepath.Base(path)
		}
		doc.Source = FileSourcePrefix + filepath.ToSlash(rel)
		if doc.Title == "" {
			doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		if strings.TrimSpace(doc.Body) == "" {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func parseDoc(content []byte) (Document, error) {
	text := strings.TrimPrefix(string(content), "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return Document{Body: strings.TrimSpace(text)}, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return Document{}, errors.New("missing closing frontmatter separator")
	}

	var meta docFrontmatter
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &meta); err != nil {
		return Document{}, fmt.Errorf("%w: %v", errInvalidFrontmatter, err)
	}

	return Document{
		Title:       strings.TrimSpace(meta.Title),
		Destination: strings.TrimSpace(meta.Destination),
		Tags:        sanitizeTags(meta.Tags),
		Body:        strings.TrimSpace(strings.Join(lines[end+1:], "\n")),
	}, nil
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// Reindex loads the documents under dir into e and prunes file documents that
// no longer exist. It returns the number of documents written and removed.
func (e *Engine) Reindex(fsys afero.Fs, dir string) (int, int64, error) {
	docs, err := LoadDocs(fsys, dir)
	if err != nil {
		return 0, 0, err
	}
	written, err := e.Seed(docs)
	if err != nil {
		return 0, 0, err
	}
	keep := make([]string, 0, len(docs))
	for _, d := range docs {
		keep = append(keep, d.Source)
	}
	removed, err := e.Prune(FileSourcePrefix, keep)
	if err != nil {
		return written, 0, err
	}
	return written, removed, nil
}
