package measure

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/aretw0/studioflow/internal/logging"
	"github.com/aretw0/studioflow/pkg/domain"
)

// Provider resolves compiled-in measures by class name.
type Provider interface {
	Lookup(className string) (Measure, bool)
}

// Loaded is a classified, ready-to-run measure.
type Loaded struct {
	Dir      string
	Manifest *Manifest
	Kind     domain.MeasureKind
	Impl     Measure
	Native   bool

	fingerprint string
}

// Classifier loads measure directories and caches the result across runs.
// Entries are reused only while the manifest checksum and the modification
// times of the manifest and script are unchanged.
type Classifier struct {
	cache    *gocache.Cache
	provider Provider
	logger   *slog.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithProvider sets the registry consulted before script loading.
func WithProvider(p Provider) ClassifierOption {
	return func(c *Classifier) {
		c.provider = p
	}
}

// WithClassifierLogger sets the logger.
func WithClassifierLogger(l *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		c.logger = l
	}
}

// NewClassifier creates a classifier with an unbounded cache.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		cache:  gocache.New(gocache.NoExpiration, 0),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify loads the measure in dir, consulting the cache first.
func (c *Classifier) Classify(dir string) (*Loaded, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("measure: resolve %s: %w", dir, err)
	}
	manifest, err := LoadManifest(abs)
	if err != nil {
		return nil, err
	}
	fp := fingerprint(abs, manifest)

	if v, found := c.cache.Get(abs); found {
		if l, ok := v.(*Loaded); ok && l.fingerprint == fp {
			c.logger.Debug("classifier cache hit", "dir", abs)
			return l, nil
		}
	}

	kind, err := manifest.Kind()
	if err != nil {
		return nil, err
	}

	l := &Loaded{Dir: abs, Manifest: manifest, Kind: kind, fingerprint: fp}
	if impl, ok := c.native(manifest.ClassName); ok {
		l.Impl = impl
		l.Native = true
	} else {
		impl, err := LoadScript(abs, kind)
		if err != nil {
			return nil, fmt.Errorf("measure %s: %w", manifest.ClassName, err)
		}
		l.Impl = impl
	}
	if !ImplementsKind(l.Impl, kind) {
		return nil, fmt.Errorf("%w: %s does not implement %s", domain.ErrMeasureInterface, manifest.ClassName, kind)
	}

	c.cache.Set(abs, l, gocache.NoExpiration)
	c.logger.Debug("classified measure", "dir", abs, "class", manifest.ClassName, "kind", kind, "native", l.Native)
	return l, nil
}

// Forget drops the cached entry for dir.
func (c *Classifier) Forget(dir string) {
	if abs, err := filepath.Abs(dir); err == nil {
		c.cache.Delete(abs)
	}
}

// Len reports how many directories are cached.
func (c *Classifier) Len() int {
	return c.cache.ItemCount()
}

func (c *Classifier) native(className string) (Measure, bool) {
	if c.provider == nil {
		return nil, false
	}
	return c.provider.Lookup(className)
}

func fingerprint(dir string, m *Manifest) string {
	var scriptMod time.Time
	if info, err := os.Stat(filepath.Join(dir, ScriptFile)); err == nil {
		scriptMod = info.ModTime()
	}
	return fmt.Sprintf("%s|%d|%d", m.Checksum, m.ModTime.UnixNano(), scriptMod.UnixNano())
}
