package fsprov

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/hmodel/config"
	"github.com/signadot/hmodel/model"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644); err != nil {
		t.Fatal(err)
	}
}

// tree creates
//
//	b/c.txt
//	a.txt
//	z.bin (2K)
func tree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "b"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "b", "c.txt"), 3)
	writeFile(t, filepath.Join(dir, "a.txt"), 10)
	writeFile(t, filepath.Join(dir, "z.bin"), 2048)
	return dir
}

func names(m *model.Model, parent model.Index) []string {
	var res []string
	for i := range m.RowCount(parent) {
		res = append(res, m.Data(m.Index(i, 0, parent), model.RoleDisplay).(string))
	}
	return res
}

type recorder []model.EventType

func (r *recorder) add(e model.Event) { *r = append(*r, e.Type) }

func TestListing(t *testing.T) {
	dir := tree(t)
	p, m, err := Open(dir, config.Files())
	if err != nil {
		t.Fatal(err)
	}
	top := model.Index{}
	if diff := cmp.Diff([]string{"b", "a.txt", "z.bin"}, names(m, top)); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
	b := m.Index(0, 0, top)
	if st, err := p.HasChildren(p.pathOf(p.root.kids[0])); err != nil || st != model.Unknown {
		t.Errorf("unlisted directory HasChildren() = %s, %v", st, err)
	}
	if !m.HasChildren(b) || m.HasChildren(m.Index(1, 0, top)) {
		t.Errorf("HasChildren() mismatch")
	}
	if diff := cmp.Diff([]string{"c.txt"}, names(m, b)); diff != "" {
		t.Errorf("b listing mismatch (-want +got):\n%s", diff)
	}
	if got := m.Data(m.Index(2, 1, top), model.RoleDisplay); got != "2.0K" {
		t.Errorf("size shows %v", got)
	}
	if got := m.Data(m.Index(0, 1, top), model.RoleDisplay); got != nil {
		t.Errorf("directory size shows %v", got)
	}
	if got := m.Data(b, model.RoleForeground); got != "blue" {
		t.Errorf("directory color %v", got)
	}
	if got, _ := m.Data(m.Index(1, 2, top), model.RoleDisplay).(string); !strings.HasPrefix(got, "-rw") {
		t.Errorf("mode shows %q", got)
	}
	if got := m.HeaderData(1, model.Horizontal, model.RoleDisplay); got != "Size" {
		t.Errorf("header %v", got)
	}
}

func TestApply(t *testing.T) {
	dir := tree(t)
	var evs recorder
	p, m, err := Open(dir, config.Files(), model.WithListener(evs.add))
	if err != nil {
		t.Fatal(err)
	}
	top := model.Index{}
	b := m.Index(0, 0, top)
	c := m.Persist(m.Index(0, 0, b))
	z := m.Persist(m.Index(2, 0, top))
	zNode := z.Index().Node()
	_ = names(m, top)

	writeFile(t, filepath.Join(dir, "b", "d.txt"), 1)
	if err := os.Remove(filepath.Join(dir, "a.txt")); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "m.txt"), 1)
	writeFile(t, filepath.Join(dir, "z.bin"), 4096)
	err = p.Apply([]Change{
		{Dir: filepath.Join(dir, "b")},
		{Dir: dir},
		{Dir: filepath.Join(dir, "nosuch")},
		{Dir: dir},
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "m.txt", "z.bin"}, names(m, top)); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c.txt", "d.txt"}, names(m, b)); diff != "" {
		t.Errorf("b listing mismatch (-want +got):\n%s", diff)
	}
	if !c.IsValid() || c.Row() != 0 {
		t.Errorf("c.txt handle lost")
	}
	if z.Index().Node() != zNode || z.Row() != 2 {
		t.Errorf("z.bin handle at row %d", z.Row())
	}
	if got := m.Data(m.Index(2, 1, top), model.RoleDisplay); got != "4.0K" {
		t.Errorf("size shows %v after rewrite", got)
	}
	// directory modification times may or may not have changed
	var structural []model.EventType
	for _, e := range evs {
		if e != model.DataChanged {
			structural = append(structural, e)
		}
	}
	want := []model.EventType{model.RowsInserted, model.EventRowsRemoved, model.RowsInserted}
	if diff := cmp.Diff(want, structural); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyRemovedDir(t *testing.T) {
	dir := tree(t)
	p, m, err := Open(dir, config.Files())
	if err != nil {
		t.Fatal(err)
	}
	top := model.Index{}
	c := m.Persist(m.Index(0, 0, m.Index(0, 0, top)))
	if err := os.RemoveAll(filepath.Join(dir, "b")); err != nil {
		t.Fatal(err)
	}
	if err := p.Apply([]Change{{Dir: filepath.Join(dir, "b")}, {Dir: dir}}); err != nil {
		t.Fatal(err)
	}
	if c.IsValid() {
		t.Errorf("handle in a removed directory survived")
	}
	if got := m.RowCount(top); got != 2 {
		t.Errorf("RowCount() = %d", got)
	}
}

func TestNotADirectory(t *testing.T) {
	dir := tree(t)
	if _, err := New(filepath.Join(dir, "a.txt"), config.Files()); err == nil {
		t.Errorf("New() accepted a file")
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(20*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeFile(t, filepath.Join(dir, "new.txt"), 1)
	writeFile(t, filepath.Join(dir, "new.txt~"), 1)
	select {
	case batch := <-w.Changes():
		if len(batch) != 1 || batch[0].Dir != dir {
			t.Errorf("batch %v", batch)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no changes delivered")
	}
	cancel()
	for range w.Changes() {
	}
}

func TestWatchListed(t *testing.T) {
	dir := tree(t)
	p, m, err := Open(dir, config.Files())
	if err != nil {
		t.Fatal(err)
	}
	_ = m.RowCount(model.Index{})
	w, err := NewWatcher(config.DefaultDebounce, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := p.Watch(w); err != nil {
		t.Fatal(err)
	}
	_ = m.RowCount(m.Index(0, 0, model.Index{}))
	got := w.fsw.WatchList()
	slices.Sort(got)
	if diff := cmp.Diff([]string{dir, filepath.Join(dir, "b")}, got); diff != "" {
		t.Errorf("watch list mismatch (-want +got):\n%s", diff)
	}
}
