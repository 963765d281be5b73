// Package catalog loads hunt content from YAML. The default route is
// compiled into the binary.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/playperu/treasurehunt/internal/hunt"
)

//go:embed london.yaml
var london []byte

// Default returns the embedded London route.
func Default() (*hunt.Catalog, error) {
	c, err := Decode(bytes.NewReader(london))
	if err != nil {
		return nil, fmt.Errorf("decoding embedded catalog: %w", err)
	}
	return c, nil
}

// Load reads a catalog from path, or the embedded default when path is
// empty.
func Load(path string) (*hunt.Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding catalog %s: %w", path, err)
	}
	return c, nil
}

// Decode parses and validates a YAML catalog. Unknown keys are rejected so
// typos in content files surface at startup.
func Decode(r io.Reader) (*hunt.Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c hunt.Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
