package dag

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/mediakit/mediakit/media"
)

// PipelineFile is a YAML-defined pipeline: a named spec plus its declared
// input kind, so batch drivers can keep pipelines on disk instead of
// inline strings.
type PipelineFile struct {
	// Name is the pipeline identifier.
	Name string `yaml:"name"`
	// Input is the declared media kind of the original input.
	Input media.Kind `yaml:"input"`
	// Spec is the pipeline expression in the standard grammar.
	Spec string `yaml:"spec"`
	// Description is free-form documentation.
	Description string `yaml:"description,omitempty"`
}

// PipelineLoader loads pipeline definitions by name.
type PipelineLoader interface {
	Load(name string) (*PipelineFile, error)
}

// FilePipelineLoader loads pipelines from YAML files on disk.
type FilePipelineLoader struct {
	dirs []string
}

// NewFilePipelineLoader creates a loader that searches the given
// directories for pipeline YAML files.
func NewFilePipelineLoader(dirs ...string) *FilePipelineLoader {
	return &FilePipelineLoader{dirs: dirs}
}

// Load searches for a pipeline YAML file by name across configured
// directories, trying {name}.yaml and {name}.yml.
func (l *FilePipelineLoader) Load(name string) (*PipelineFile, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if p, err := LoadPipelineFile(path); err == nil {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("dag: pipeline %q not found in %v", name, l.dirs)
}

// LoadPipelineFile reads and decodes one pipeline YAML file.
func LoadPipelineFile(path string) (*PipelineFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p PipelineFile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("dag: parsing %s: %w", path, err)
	}
	if p.Spec == "" {
		return nil, fmt.Errorf("dag: pipeline file %s has no spec", path)
	}
	return &p, nil
}

// BuildFromFile loads a pipeline definition and builds it against the
// builder's registry.
func (b *Builder) BuildFromFile(path string) (*PipelineSpec, error) {
	p, err := LoadPipelineFile(path)
	if err != nil {
		return nil, err
	}
	return b.Build(p.Spec, p.Input)
}
