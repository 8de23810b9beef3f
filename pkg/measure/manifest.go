package measure

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/studioflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

const (
	ManifestXML  = "measure.xml"
	ManifestYAML = "measure.yaml"
	ManifestYML  = "measure.yml"

	measureTypeAttribute = "Measure Type"
)

// Manifest is the descriptive metadata shipped alongside a measure.
type Manifest struct {
	Name        string `yaml:"name"`
	ClassName   string `yaml:"class_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	MeasureType string `yaml:"measure_type"`

	Path     string    `yaml:"-"`
	Checksum string    `yaml:"-"`
	ModTime  time.Time `yaml:"-"`
}

type xmlManifest struct {
	XMLName     xml.Name `xml:"measure"`
	Name        string   `xml:"name"`
	ClassName   string   `xml:"class_name"`
	DisplayName string   `xml:"display_name"`
	Description string   `xml:"description"`
	Attributes  []struct {
		Name  string `xml:"name"`
		Value string `xml:"value"`
	} `xml:"attributes>attribute"`
}

// ManifestPath returns the manifest file in dir, preferring measure.xml.
func ManifestPath(dir string) (string, error) {
	for _, name := range []string{ManifestXML, ManifestYAML, ManifestYML} {
		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s", domain.ErrManifestMissing, dir)
}

// LoadManifest reads and validates the manifest in dir.
func LoadManifest(dir string) (*Manifest, error) {
	path, err := ManifestPath(dir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}

	m, err := ParseManifest(filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	m.Path = path
	m.Checksum = hex.EncodeToString(sum[:])
	m.ModTime = info.ModTime()
	return m, nil
}

// ParseManifest decodes manifest bytes; the file name selects the format.
func ParseManifest(fileName string, data []byte) (*Manifest, error) {
	var m Manifest
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xml":
		var x xmlManifest
		if err := xml.Unmarshal(data, &x); err != nil {
			return nil, fmt.Errorf("failed to parse measure.xml: %w", err)
		}
		m = Manifest{
			Name:        x.Name,
			ClassName:   x.ClassName,
			DisplayName: x.DisplayName,
			Description: x.Description,
		}
		for _, a := range x.Attributes {
			if strings.TrimSpace(a.Name) == measureTypeAttribute {
				m.MeasureType = a.Value
				break
			}
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse measure manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", fileName)
	}

	m.ClassName = strings.TrimSpace(m.ClassName)
	m.MeasureType = strings.TrimSpace(m.MeasureType)
	if m.ClassName == "" {
		return nil, fmt.Errorf("%w: class_name", domain.ErrManifestField)
	}
	if m.MeasureType == "" {
		return nil, fmt.Errorf("%w: measure type", domain.ErrManifestField)
	}
	return &m, nil
}

// Kind resolves the declared measure type.
func (m *Manifest) Kind() (domain.MeasureKind, error) {
	k, err := domain.ParseMeasureKind(m.MeasureType)
	if err != nil {
		return "", fmt.Errorf("measure %s: %w", m.ClassName, err)
	}
	return k, nil
}

// IsManifestMissing reports whether err stems from a directory with no manifest.
func IsManifestMissing(err error) bool {
	return errors.Is(err, domain.ErrManifestMissing)
}
