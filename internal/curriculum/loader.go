package curriculum

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sigma-teacher/tutor/internal/tutor"
)

// ParseDomain decodes one curriculum document.
func ParseDomain(r io.Reader) (Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return Document{}, fmt.Errorf("decode curriculum: empty document")
		}
		return Document{}, fmt.Errorf("decode curriculum: %w", err)
	}
	return doc, nil
}

// LoadDomain reads a curriculum file. Its id defaults to the file name.
func LoadDomain(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open curriculum: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := ParseDomain(f)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	if doc.ID == "" {
		doc.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// WriteDomain encodes a domain as a curriculum document.
func WriteDomain(w io.Writer, id string, d tutor.DomainModel) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Document{ID: id, Topics: d.Topics, Sequence: d.Sequence}); err != nil {
		return fmt.Errorf("encode curriculum: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode curriculum: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Loader loads and caches every curriculum under a directory.
type Loader struct {
	rootDir string
	docs    map[string]Document
	mu      sync.RWMutex
}

// NewLoader creates a new curriculum loader and loads all content.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir: rootDir,
		docs:    make(map[string]Document),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading curriculum: %w", err)
	}

	slog.Info("curriculum loaded", "domains", len(l.docs), "path", rootDir)
	return l, nil
}

// Get returns a curriculum by id.
func (l *Loader) Get(id string) (Document, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	d, ok := l.docs[id]
	return d, ok
}

// All returns summaries of every loaded curriculum, sorted by id.
func (l *Loader) All() []Summary {
	l.mu.RLock()
	out := make([]Summary, 0, len(l.docs))
	for _, d := range l.docs {
		out = append(out, Summary{ID: d.ID, Title: d.Title, Topics: len(d.Topics)})
	}
	l.mu.RUnlock()

	slices.SortFunc(out, func(a, b Summary) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (l *Loader) loadAll() error {
	return filepath.WalkDir(l.rootDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}
		return l.load(path)
	})
}

func (l *Loader) load(path string) error {
	doc, err := LoadDomain(path)
	if err != nil {
		slog.Warn("skipping invalid curriculum YAML", "path", path, "error", err)
		return nil
	}
	if len(doc.Topics) == 0 {
		slog.Warn("skipping curriculum without topics", "path", path)
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.docs[doc.ID]; ok {
		slog.Warn("duplicate curriculum id, keeping the last", "id", doc.ID, "title", prev.Title, "path", path)
	}
	l.docs[doc.ID] = doc
	return nil
}
