package city

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed data/cities.json
var embeddedCities []byte

// Dataset is the raw content of a knowledge-base source.
type Dataset struct {
	Cities  []Profile `json:"cities"`
	Aliases []Alias   `json:"aliases"`
}

// Source loads a Dataset. Sources are read once at startup.
type Source interface {
	Load(ctx context.Context) (*Dataset, error)
	Name() string
}

// EmbeddedSource serves the dataset compiled into the binary.
type EmbeddedSource struct{}

// Name returns the source name for logging.
func (EmbeddedSource) Name() string { return "embedded" }

// Load decodes the embedded dataset.
func (EmbeddedSource) Load(_ context.Context) (*Dataset, error) {
	return decodeDataset(embeddedCities)
}

// FileSource reads a dataset with the embedded JSON schema from disk.
type FileSource struct {
	Path string
}

// Name returns the source name for logging.
func (s FileSource) Name() string { return "file:" + s.Path }

// Load reads and decodes the file.
func (s FileSource) Load(_ context.Context) (*Dataset, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read city data: %w", err)
	}
	return decodeDataset(data)
}

func decodeDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode city data: %w", err)
	}
	return &ds, nil
}

// NewFromSource loads a dataset and builds the knowledge base from it.
func NewFromSource(ctx context.Context, src Source) (*KnowledgeBase, error) {
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	kb, err := NewKnowledgeBase(ds.Cities, ds.Aliases)
	if err != nil {
		return nil, fmt.Errorf("build knowledge base from %s: %w", src.Name(), err)
	}
	return kb, nil
}

// Default returns the knowledge base built from the embedded dataset.
func Default() (*KnowledgeBase, error) {
	return NewFromSource(context.Background(), EmbeddedSource{})
}

// MustDefault is like Default but panics on error. The embedded dataset is
// validated by tests, so a failure here is a build defect.
func MustDefault() *KnowledgeBase {
	kb, err := Default()
	if err != nil {
		panic(err)
	}
	return kb
}
