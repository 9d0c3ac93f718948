package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/signadot/hmodel/config"
	"github.com/signadot/hmodel/doc"
	"github.com/signadot/hmodel/docprov"
	"github.com/signadot/hmodel/fsprov"
	"github.com/signadot/hmodel/model"
)

// source is a document file or a directory opened with its model.
type source struct {
	path string
	cfg  *config.Config
	m    *model.Model

	doc *docprov.Provider
	dir *fsprov.Provider
}

func (cfg *MainConfig) open(path string, opts ...model.Option) (*source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	vc, err := cfg.viewConfig(info.IsDir())
	if err != nil {
		return nil, err
	}
	s := &source{path: path, cfg: vc}
	if info.IsDir() {
		s.dir, s.m, err = fsprov.Open(path, vc, opts...)
		return s, err
	}
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	root, err := doc.Parse(d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.doc, s.m, err = docprov.Open(root, vc, opts...)
	return s, err
}

// Lookup resolves a kinded path in a document or a relative path in a
// directory.
func (s *source) Lookup(p string) (model.Path, error) {
	if s.dir != nil {
		return s.dir.Lookup(p)
	}
	return s.doc.Lookup(p)
}

// watch makes w report the changes of the source. Documents are followed
// through their directory so that editors replacing the file are seen.
func (s *source) watch(w *fsprov.Watcher) error {
	if s.dir != nil {
		return s.dir.Watch(w)
	}
	abs, err := filepath.Abs(s.path)
	if err != nil {
		return err
	}
	return w.Add(filepath.Dir(abs))
}

// apply brings the model in line with the changes of a batch.
func (s *source) apply(batch []fsprov.Change) error {
	if s.dir != nil {
		return s.dir.Apply(batch)
	}
	d, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.doc.ReloadBytes(d)
}

func (s *source) close() {
	if s.dir != nil {
		s.dir.Close()
	} else {
		s.doc.Close()
	}
	s.m.Release()
}
