package trimmer

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// Loader returns template source by name.
type Loader interface {
	Load(name string) (string, error)
}

type MemoryLoader map[string]string

func (m MemoryLoader) Load(name string) (string, error) {
	if s, ok := m[name]; ok {
		return s, nil
	}
	return "", ErrTemplateNotFound{name}
}

// FSLoader reads templates from a filesystem. Relative names resolve
// against Dir.
type FSLoader struct {
	Fs  afero.Fs
	Dir string
}

func (l FSLoader) Load(name string) (string, error) {
	path := name
	if l.Dir != "" && !filepath.IsAbs(name) {
		path = filepath.Join(l.Dir, name)
	}
	data, err := afero.ReadFile(l.Fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrTemplateNotFound{name}
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type ErrTemplateNotFound struct{ Name string }

func (e ErrTemplateNotFound) Error() string { return "template not found: " + e.Name }
