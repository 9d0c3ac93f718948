package docprov

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/hmodel/config"
	"github.com/signadot/hmodel/doc"
	"github.com/signadot/hmodel/model"
)

const testDoc = `
name: demo
ports:
- 80
- 443
meta:
  owner: ops
  tags: [a, b]
`

type recorder struct {
	evs []model.EventType
}

func (r *recorder) add(e model.Event) {
	r.evs = append(r.evs, e.Type)
}

func open(t *testing.T, src string) (*Provider, *model.Model, *recorder) {
	t.Helper()
	root, err := doc.Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	p, m, err := Open(root, config.Default(), model.WithListener(rec.add))
	if err != nil {
		t.Fatal(err)
	}
	return p, m, rec
}

func TestData(t *testing.T) {
	_, m, _ := open(t, testDoc)
	top := model.Index{}
	if got := m.RowCount(top); got != 3 {
		t.Fatalf("RowCount() = %d", got)
	}
	if got := m.ColumnCount(top); got != 3 {
		t.Fatalf("ColumnCount() = %d", got)
	}
	meta := m.Index(2, 0, top)
	tests := []struct {
		name  string
		idx   model.Index
		text  string
		color string
		kind  string
	}{
		{"key", m.Index(0, 0, top), "name", "", "string"},
		{"string", m.Index(0, 1, top), "demo", "green", "string"},
		{"array", m.Index(1, 1, top), "[2]", "", "array"},
		{"number", m.Index(1, 1, m.Index(1, 0, top)), "443", "cyan", "number"},
		{"array key", m.Index(1, 0, m.Index(1, 0, top)), "[1]", "", "number"},
		{"nested", m.Index(0, 1, meta), "ops", "green", "string"},
		{"type", m.Index(1, 2, meta), "array", "", "array"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := m.Specifier(tt.idx)
			if spec == nil {
				t.Fatal("no specifier")
			}
			if spec.Text != tt.text || spec.Color != tt.color || spec.DataType != tt.kind {
				t.Errorf("got text %q color %q kind %q", spec.Text, spec.Color, spec.DataType)
			}
		})
	}
	if !m.HasChildren(meta) || m.HasChildren(m.Index(0, 0, top)) {
		t.Errorf("HasChildren() mismatch")
	}
	if m.HasChildren(m.Index(2, 1, top)) {
		t.Errorf("value column has children")
	}
	if m.Flags(m.Index(0, 1, top))&model.ItemEditable == 0 {
		t.Errorf("scalar value not editable")
	}
	if m.Flags(m.Index(2, 1, top))&model.ItemEditable != 0 {
		t.Errorf("object value editable")
	}
	if got := m.Data(m.Index(2, 1, top), model.RoleToolTip); got != "2 children" {
		t.Errorf("tip %v", got)
	}
}

func TestHeader(t *testing.T) {
	_, m, rec := open(t, testDoc)
	if got := m.HeaderData(0, model.Horizontal, model.RoleDisplay); got != "Key" {
		t.Errorf("header 0 = %v", got)
	}
	want := model.HeaderWidth{Width: 8, Fixed: true}
	if got := m.HeaderData(2, model.Horizontal, model.RoleWidth); got != want {
		t.Errorf("header 2 width = %v", got)
	}
	if got := m.HeaderData(4, model.Vertical, model.RoleDisplay); got != "4" {
		t.Errorf("vertical header = %v", got)
	}
	if got := m.HeaderData(7, model.Horizontal, model.RoleDisplay); got != nil {
		t.Errorf("missing section = %v", got)
	}
	if len(rec.evs) != 3 {
		t.Errorf("events %v", rec.evs)
	}
}

func TestPatch(t *testing.T) {
	p, m, rec := open(t, testDoc)
	top := model.Index{}
	meta := m.Persist(m.Index(2, 0, top))
	owner := m.Persist(m.Index(0, 1, meta.Index()))
	port := m.Persist(m.Index(0, 1, m.Index(1, 0, top)))
	metaNode := meta.Index().Node()
	if got := m.Data(port.Index(), model.RoleDisplay); got != "80" {
		t.Fatalf("port shows %v", got)
	}

	if err := p.Patch([]byte(`[{"op": "remove", "path": "/name"}]`)); err != nil {
		t.Fatal(err)
	}
	if meta.Row() != 1 || meta.Index().Node() != metaNode {
		t.Errorf("meta handle at row %d", meta.Row())
	}
	if owner.Row() != 0 || m.Parent(owner.Index()).Row() != 1 {
		t.Errorf("owner handle moved")
	}
	if got := m.Data(m.Index(1, 0, top), model.RoleDisplay); got != "meta" {
		t.Errorf("row 1 shows %v", got)
	}

	if err := p.Patch([]byte(`[{"op": "replace", "path": "/ports", "value": "none"}]`)); err != nil {
		t.Fatal(err)
	}
	if port.IsValid() {
		t.Errorf("handle below a replaced value survived")
	}
	ports := m.Index(0, 0, top)
	if m.RowCount(ports) != 0 || m.HasChildren(ports) {
		t.Errorf("replaced value kept children")
	}
	if got := m.Data(m.Index(0, 1, top), model.RoleDisplay); got != "none" {
		t.Errorf("replaced value shows %v", got)
	}

	if err := p.Patch([]byte(`[{"op": "add", "path": "/meta/tags/0", "value": "z"}]`)); err != nil {
		t.Fatal(err)
	}
	tags := m.Index(1, 0, meta.Index())
	if got := m.Data(m.Index(0, 1, tags), model.RoleDisplay); got != "z" || m.RowCount(tags) != 3 {
		t.Errorf("inserted tag shows %v", got)
	}
	if !owner.IsValid() {
		t.Errorf("owner handle lost")
	}

	want := []model.EventType{model.EventRowsRemoved, model.DataChanged, model.DataChanged, model.RowsInserted, model.DataChanged}
	if diff := cmp.Diff(want, rec.evs); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestPatchAtomic(t *testing.T) {
	p, m, rec := open(t, testDoc)
	top := model.Index{}
	_ = m.RowCount(top)
	err := p.Patch([]byte(`[{"op": "remove", "path": "/name"}, {"op": "remove", "path": "/nosuch"}]`))
	if !errors.Is(err, doc.ErrPatch) {
		t.Fatalf("Patch() error %v", err)
	}
	if m.RowCount(top) != 3 || len(rec.evs) != 0 {
		t.Errorf("failed patch changed the model: %d rows, events %v", m.RowCount(top), rec.evs)
	}
	if _, err := p.Root().GetKPath("name"); err != nil {
		t.Errorf("failed patch changed the document: %v", err)
	}
}

func TestSetData(t *testing.T) {
	p, m, _ := open(t, testDoc)
	top := model.Index{}
	if got := m.Data(m.Index(0, 2, top), model.RoleDisplay); got != "string" {
		t.Fatalf("type shows %v", got)
	}
	if !m.SetData(m.Index(0, 1, top), "42", model.RoleEdit) {
		t.Fatal("SetData() failed")
	}
	n, err := p.Root().GetKPath("name")
	if err != nil {
		t.Fatal(err)
	}
	if n.Type != doc.NumberType || n.Text() != "42" {
		t.Errorf("document has %s %q", n.Type, n.Text())
	}
	if got := m.Data(m.Index(0, 2, top), model.RoleDisplay); got != "number" {
		t.Errorf("type column shows %v after edit", got)
	}
	if m.SetData(m.Index(0, 0, top), "key", model.RoleEdit) {
		t.Errorf("key column accepted an edit")
	}
	if m.SetData(m.Index(2, 1, top), "x", model.RoleEdit) {
		t.Errorf("object value accepted an edit")
	}
}

func TestReload(t *testing.T) {
	p, m, _ := open(t, testDoc)
	top := model.Index{}
	meta := m.Persist(m.Index(2, 0, top))
	tag := m.Persist(m.Index(1, 1, m.Index(1, 0, meta.Index())))
	node := meta.Index().Node()

	err := p.ReloadBytes([]byte(`
name: other
ports: [80, 443]
meta:
  owner: ops
  tags: [a, b, c]
`))
	if err != nil {
		t.Fatal(err)
	}
	if meta.Index().Node() != node || !tag.IsValid() {
		t.Errorf("unchanged positions lost their handles")
	}
	if got := m.Data(m.Index(0, 1, top), model.RoleDisplay); got != "other" {
		t.Errorf("name shows %v", got)
	}
	if got := m.RowCount(m.Index(1, 0, meta.Index())); got != 3 {
		t.Errorf("tags has %d rows", got)
	}

	if err := p.ReloadBytes([]byte(`[1, 2]`)); err != nil {
		t.Fatal(err)
	}
	if meta.IsValid() {
		t.Errorf("handle survived a reset")
	}
	if got := m.RowCount(top); got != 2 {
		t.Errorf("RowCount() = %d after reset", got)
	}
	if got := m.Data(m.Index(1, 1, top), model.RoleDisplay); got != "2" {
		t.Errorf("row 1 shows %v", got)
	}
}

func TestClose(t *testing.T) {
	p, m, _ := open(t, testDoc)
	p.Close()
	if m.Available() {
		t.Errorf("model available after Close")
	}
	if m.RowCount(model.Index{}) != 0 {
		t.Errorf("closed provider has rows")
	}
	if err := p.Patch([]byte(`[]`)); !errors.Is(err, model.ErrUnavailable) {
		t.Errorf("Patch() error %v", err)
	}
}

func TestForeignPath(t *testing.T) {
	p, _, _ := open(t, testDoc)
	other, _, _ := open(t, testDoc)
	mp, err := other.Index(0, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Data(mp); !errors.Is(err, ErrForeignPath) {
		t.Errorf("Data() error %v", err)
	}
	n, err := p.Root().GetKPath("meta.owner")
	if err != nil {
		t.Fatal(err)
	}
	path, err := p.PathOf(n, 1)
	if err != nil {
		t.Fatal(err)
	}
	if path.String() != "meta.owner#1" || path.Row() != 0 {
		t.Errorf("PathOf() = %s", path)
	}
	if path.Parent().Row() != 2 || path.Parent().Parent() != nil {
		t.Errorf("parent chain of %s", path)
	}
}
