package library

import (
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/coolbeans/gesetzessuche/pkg/gii"
	"github.com/coolbeans/gesetzessuche/pkg/norm"
)

// Downloader fetches a law that is not yet in the local mapping. It
// returns the jurabk under which the law was filed and its mapping
// entry. Implementations live in pkg/fetch.
type Downloader interface {
	FetchLaw(code string) (jurabk string, entry LawEntry, ok bool)
}

// Library loads law documents from a local data directory, resolving
// user-supplied codes through the mapping index. Parsed documents are
// cached for the process lifetime; laws change rarely enough that the
// cache is never invalidated. Safe for concurrent use.
type Library struct {
	baseDir    string
	downloader Downloader
	logger     *log.Logger

	mu      sync.RWMutex
	mapping Mapping
	cache   map[string]*norm.Document
}

// Option configures a Library.
type Option func(*Library)

// WithDownloader enables automatic download of laws missing from the
// local mapping.
func WithDownloader(d Downloader) Option {
	return func(l *Library) { l.downloader = d }
}

// WithLogger replaces the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Library) { l.logger = logger }
}

// Open creates a library rooted at baseDir, which holds the mapping
// file and a data/ directory with the law XML files. A missing mapping
// file starts the library empty.
func Open(baseDir string, opts ...Option) (*Library, error) {
	mapping, err := LoadMapping(filepath.Join(baseDir, MappingFilename))
	if err != nil {
		return nil, err
	}
	l := &Library{
		baseDir: baseDir,
		logger:  log.Default().WithPrefix("library"),
		mapping: mapping,
		cache:   make(map[string]*norm.Document),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// DataDir returns the directory holding the law XML files.
func (l *Library) DataDir() string {
	return filepath.Join(l.baseDir, "data")
}

// Keys returns the mapping keys of all locally known laws.
func (l *Library) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.mapping))
	for key := range l.mapping {
		keys = append(keys, key)
	}
	return keys
}

// Entry returns the mapping entry for a resolved key.
func (l *Library) Entry(key string) (LawEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.mapping[key]
	return entry, ok
}

// Resolve maps a user-supplied law code to its mapping key.
func (l *Library) Resolve(code string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return FindKey(code, l.mapping)
}

// Load resolves a law code and returns the parsed document. Documents
// are parsed once and served from cache afterwards. With a downloader
// configured, a law missing from the mapping is fetched on demand and
// the mapping file updated. Returns false when the law cannot be
// resolved, read, or parsed.
func (l *Library) Load(code string) (*norm.Document, bool) {
	key, ok := l.Resolve(code)
	if !ok {
		if l.downloader == nil {
			l.logger.Warn("law not in mapping", "code", code)
			return nil, false
		}
		key, ok = l.download(code)
		if !ok {
			return nil, false
		}
	}

	l.mu.RLock()
	doc, cached := l.cache[key]
	entry := l.mapping[key]
	l.mu.RUnlock()
	if cached {
		return doc, true
	}

	path := filepath.Join(l.DataDir(), entry.Filename)
	doc, err := gii.ParseFile(path)
	if err != nil {
		l.logger.Error("failed to parse law file", "path", path, "err", err)
		return nil, false
	}

	l.mu.Lock()
	l.cache[key] = doc
	l.mu.Unlock()
	return doc, true
}

// download fetches a missing law and records it in the mapping.
func (l *Library) download(code string) (string, bool) {
	l.logger.Info("law not in mapping, attempting download", "code", code)
	jurabk, entry, ok := l.downloader.FetchLaw(code)
	if !ok {
		l.logger.Warn("download failed", "code", code)
		return "", false
	}

	l.mu.Lock()
	l.mapping[jurabk] = entry
	mapping := l.mapping
	l.mu.Unlock()

	if err := SaveMapping(filepath.Join(l.baseDir, MappingFilename), mapping); err != nil {
		l.logger.Error("failed to save law mapping", "err", err)
	}
	l.logger.Info("law downloaded", "jurabk", jurabk, "title", entry.Title)
	return jurabk, true
}
