package main

import (
	"fmt"
	"io"
	"os"

	"github.com/signadot/hmodel/model"
	"github.com/signadot/hmodel/render"

	"github.com/scott-cotton/cli"
)

func patch(cfg *PatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Patch.Parse(cc, args)
	if err != nil {
		cfg.Patch.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: patch requires a patch and a file", cli.ErrUsage)
	}
	p := []byte(args[0])
	if !cfg.String {
		p, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("could not read patch: %w", err)
		}
	}
	if err := patchFile(cfg, cc.Out, p, args[1], cfg.colors(cc.Out)); err != nil {
		return fmt.Errorf("error patching %s: %w", args[1], err)
	}
	return nil
}

// ref is a position persisted before a patch, with its stable path at the
// time.
type ref struct {
	path string
	p    *model.PersistentIndex
}

func patchFile(cfg *PatchConfig, w io.Writer, p []byte, file string, c *render.Colors) error {
	var events []model.Event
	s, err := cfg.open(file, model.WithListener(func(e model.Event) {
		events = append(events, e)
	}))
	if err != nil {
		return err
	}
	defer s.close()
	if s.doc == nil {
		return fmt.Errorf("%w: %s is not a document", cli.ErrUsage, file)
	}
	before, err := s.doc.Root().YAML()
	if err != nil {
		return err
	}
	refs := persistAll(s.m, model.Index{}, nil)
	events = events[:0]

	if err := s.doc.Patch(p); err != nil {
		return err
	}

	for _, e := range events {
		fmt.Fprintf(w, "event %s\n", e)
	}
	for _, r := range refs {
		if !r.p.IsValid() {
			fmt.Fprintf(w, "ref %s -> %s\n", r.path, c.Color("red", "", "gone"))
			continue
		}
		sp, err := s.m.StablePath(r.p.Index())
		if err != nil {
			return err
		}
		if after := fmt.Sprint(sp); after != r.path {
			fmt.Fprintf(w, "ref %s -> %s\n", r.path, after)
		}
	}

	after, err := s.doc.Root().YAML()
	if err != nil {
		return err
	}
	if !cfg.Quiet {
		io.WriteString(w, render.Diff(string(before), string(after), c))
	}
	if cfg.Write {
		return os.WriteFile(file, after, 0644)
	}
	return nil
}

// persistAll persists the column 0 position of every row below parent,
// loading the whole hierarchy.
func persistAll(m *model.Model, parent model.Index, refs []ref) []ref {
	for row := range m.RowCount(parent) {
		idx := m.Index(row, 0, parent)
		sp, err := m.StablePath(idx)
		if err != nil {
			continue
		}
		refs = append(refs, ref{path: fmt.Sprint(sp), p: m.Persist(idx)})
		if m.HasChildren(idx) {
			refs = persistAll(m, idx, refs)
		}
	}
	return refs
}
