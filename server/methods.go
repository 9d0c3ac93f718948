package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/signadot/hmodel/debug"
	"github.com/signadot/hmodel/model"

	"go.lsp.dev/jsonrpc2"
)

const (
	MethodIndex       = "model/index"
	MethodParent      = "model/parent"
	MethodRowCount    = "model/rowCount"
	MethodColumnCount = "model/columnCount"
	MethodHasChildren = "model/hasChildren"
	MethodData        = "model/data"
	MethodFlags       = "model/flags"
	MethodSetData     = "model/setData"
	MethodSort        = "model/sort"
	MethodHeaderData  = "model/headerData"
	MethodResolve     = "model/resolve"
	MethodStablePath  = "model/stablePath"
	MethodRelease     = "model/release"
	MethodPatch       = "doc/patch"
	MethodEvent       = "model/event"
)

// Error codes beyond the JSON-RPC reserved range.
const (
	CodeInvalidHandle jsonrpc2.Code = -32001
	CodeNotFound      jsonrpc2.Code = -32002
	CodeUnavailable   jsonrpc2.Code = -32003
	CodeUnsupported   jsonrpc2.Code = -32004
	CodeFailed        jsonrpc2.Code = -32005
)

// Handle is a wire reference to a position; 0 is the top level.
type Handle int64

type IndexParams struct {
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Parent Handle `json:"parent"`
}

type HandleParams struct {
	Handle Handle `json:"handle"`
}

type DataParams struct {
	Handle Handle `json:"handle"`
	Role   string `json:"role,omitempty"`
}

type SetDataParams struct {
	Handle Handle `json:"handle"`
	Value  any    `json:"value"`
	Role   string `json:"role,omitempty"`
}

type SortParams struct {
	Column int    `json:"column"`
	Order  string `json:"order,omitempty"`
}

type HeaderDataParams struct {
	Section     int    `json:"section"`
	Orientation string `json:"orientation,omitempty"`
	Role        string `json:"role,omitempty"`
}

type ResolveParams struct {
	Path string `json:"path"`
}

type ReleaseParams struct {
	Handles []Handle `json:"handles"`
}

type PatchParams struct {
	Patch json.RawMessage `json:"patch"`
}

// IndexResult describes a position handed out to the client.
type IndexResult struct {
	Handle Handle `json:"handle"`
	Valid  bool   `json:"valid"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
}

type PathResult struct {
	Path string `json:"path"`
}

type method func(s *Server, params json.RawMessage) (any, error)

var methods = map[string]method{
	MethodIndex:       (*Server).index,
	MethodParent:      (*Server).parent,
	MethodRowCount:    (*Server).rowCount,
	MethodColumnCount: (*Server).columnCount,
	MethodHasChildren: (*Server).hasChildren,
	MethodData:        (*Server).data,
	MethodFlags:       (*Server).flags,
	MethodSetData:     (*Server).setData,
	MethodSort:        (*Server).sort,
	MethodHeaderData:  (*Server).headerData,
	MethodResolve:     (*Server).resolve,
	MethodStablePath:  (*Server).stablePath,
	MethodRelease:     (*Server).release,
	MethodPatch:       (*Server).patch,
}

// handle serves one request of the client of o. The events the request
// caused reach that client before the reply.
func (s *Server) handle(ctx context.Context, o *outbox, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if debug.RPC() {
		debug.Logf("rpc <- %s %s\n", req.Method(), req.Params())
	}
	f, ok := methods[req.Method()]
	if !ok {
		return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.MethodNotFound, req.Method()))
	}
	s.mu.Lock()
	res, err := f(s, req.Params())
	mark := s.broadcast(s.takeEvents(), o)
	s.mu.Unlock()
	o.flush(mark)
	if err != nil {
		s.log.Debug("request failed", "method", req.Method(), "error", err)
		return reply(ctx, nil, wireError(err))
	}
	return reply(ctx, res, nil)
}

var errInvalidHandle = errors.New("invalid handle")

func wireError(err error) error {
	var we *jsonrpc2.Error
	if errors.As(err, &we) {
		return we
	}
	code := CodeFailed
	switch {
	case errors.Is(err, errInvalidHandle), errors.Is(err, model.ErrInvalidIndex):
		code = CodeInvalidHandle
	case errors.Is(err, model.ErrAddressNotFound):
		code = CodeNotFound
	case errors.Is(err, model.ErrUnavailable):
		code = CodeUnavailable
	case errors.Is(err, errUnsupported):
		code = CodeUnsupported
	}
	return jsonrpc2.NewError(code, err.Error())
}

var errUnsupported = errors.New("not supported by the provider")

func decode[T any](params json.RawMessage) (*T, error) {
	v := new(T)
	if len(params) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return nil, jsonrpc2.NewError(jsonrpc2.InvalidParams, err.Error())
	}
	return v, nil
}

// lookup returns the index of h; handle 0 is the top level.
func (s *Server) lookup(h Handle) (model.Index, error) {
	if h == 0 {
		return model.Index{}, nil
	}
	p, ok := s.handles[int64(h)]
	if !ok {
		return model.Index{}, fmt.Errorf("%w %d", errInvalidHandle, h)
	}
	idx := p.Index()
	if !idx.IsValid() {
		return model.Index{}, fmt.Errorf("%w %d: position is gone", errInvalidHandle, h)
	}
	return idx, nil
}

// persist hands out a handle for idx.
func (s *Server) persist(idx model.Index) IndexResult {
	if !idx.IsValid() {
		return IndexResult{}
	}
	s.next++
	s.handles[s.next] = s.m.Persist(idx)
	return IndexResult{Handle: Handle(s.next), Valid: true, Row: idx.Row(), Column: idx.Column()}
}

func (s *Server) index(params json.RawMessage) (any, error) {
	p, err := decode[IndexParams](params)
	if err != nil {
		return nil, err
	}
	parent, err := s.lookup(p.Parent)
	if err != nil {
		return nil, err
	}
	return s.persist(s.m.Index(p.Row, p.Column, parent)), nil
}

func (s *Server) parent(params json.RawMessage) (any, error) {
	p, err := decode[HandleParams](params)
	if err != nil {
		return nil, err
	}
	idx, err := s.lookup(p.Handle)
	if err != nil {
		return nil, err
	}
	return s.persist(s.m.Parent(idx)), nil
}

func (s *Server) rowCount(params json.RawMessage) (any, error) {
	p, err := decode[HandleParams](params)
	if err != nil {
		return nil, err
	}
	idx, err := s.lookup(p.Handle)
	if err != nil {
		return nil, err
	}
	return s.m.RowCount(idx), nil
}

func (s *Server) columnCount(params json.RawMessage) (any, error) {
	p, err := decode[HandleParams](params)
	if err != nil {
		return nil, err
	}
	idx, err := s.lookup(p.Handle)
	if err != nil {
		return nil, err
	}
	return s.m.ColumnCount(idx), nil
}

func (s *Server) hasChildren(params json.RawMessage) (any, error) {
	p, err := decode[HandleParams](params)
	if err != nil {
		return nil, err
	}
	idx, err := s.lookup(p.Handle)
	if err != nil {
		return nil, err
	}
	return s.m.HasChildren(idx), nil
}

func parseRole(s string) (model.Role, error) {
	if s == "" {
		return model.RoleDisplay, nil
	}
	r, err := model.ParseRole(s)
	if err != nil {
		return 0, jsonrpc2.NewError(jsonrpc2.InvalidParams, err.Error())
	}
	return r, nil
}

func (s *Server) data(params json.RawMessage) (any, error) {
	p, err := decode[DataParams](params)
	if err != nil {
		return nil, err
	}
	role, err := parseRole(p.Role)
	if err != nil {
		return nil, err
	}
	idx, err := s.lookup(p.Handle)
	if err != nil {
		return nil, err
	}
	if role == model.RoleTextAlignment {
		a, _ := s.m.Data(idx, role).(model.Align)
		return alignNames(a), nil
	}
	return s.m.Data(idx, role), nil
}

func alignNames(a model.Align) []string {
	names := []string{"left", "right", "hcenter", "justify", "top", "bottom", "vcenter"}
	var res []string
	for i, n := range names {
		if a&(1<<i) != 0 {
			res = append(res, n)
		}
	}
	return res
}

func (s *Server) flags(params json.RawMessage) (any, error) {
	p, err := decode[HandleParams](params)
	if err != nil {
		return nil, err
	}
	idx, err := s.lookup(p.Handle)
	if err != nil {
		return nil, err
	}
	return s.m.Flags(idx).String(), nil
}

func (s *Server) setData(params json.RawMessage) (any, error) {
	p, err := decode[SetDataParams](params)
	if err != nil {
		return nil, err
	}
	role, err := parseRole(p.Role)
	if err != nil {
		return nil, err
	}
	if p.Role == "" {
		role = model.RoleEdit
	}
	idx, err := s.lookup(p.Handle)
	if err != nil {
		return nil, err
	}
	return s.m.SetData(idx, p.Value, role), nil
}

func (s *Server) sort(params json.RawMessage) (any, error) {
	p, err := decode[SortParams](params)
	if err != nil {
		return nil, err
	}
	order := model.Ascending
	switch p.Order {
	case "", "ascending":
	case "descending":
		order = model.Descending
	default:
		return nil, jsonrpc2.NewError(jsonrpc2.InvalidParams, fmt.Sprintf("unknown sort order %q", p.Order))
	}
	s.m.Sort(p.Column, order)
	return nil, nil
}

func (s *Server) headerData(params json.RawMessage) (any, error) {
	p, err := decode[HeaderDataParams](params)
	if err != nil {
		return nil, err
	}
	role, err := parseRole(p.Role)
	if err != nil {
		return nil, err
	}
	o := model.Horizontal
	switch p.Orientation {
	case "", "horizontal":
	case "vertical":
		o = model.Vertical
	default:
		return nil, jsonrpc2.NewError(jsonrpc2.InvalidParams, fmt.Sprintf("unknown orientation %q", p.Orientation))
	}
	res := s.m.HeaderData(p.Section, o, role)
	if a, ok := res.(model.Align); ok {
		return alignNames(a), nil
	}
	return res, nil
}

func (s *Server) resolve(params json.RawMessage) (any, error) {
	if s.resolver == nil {
		return nil, fmt.Errorf("resolve: %w", errUnsupported)
	}
	p, err := decode[ResolveParams](params)
	if err != nil {
		return nil, err
	}
	path, err := s.resolver.Lookup(p.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrAddressNotFound, err)
	}
	idx, err := s.m.Resolve(path)
	if err != nil {
		return nil, err
	}
	return s.persist(idx), nil
}

func (s *Server) stablePath(params json.RawMessage) (any, error) {
	p, err := decode[HandleParams](params)
	if err != nil {
		return nil, err
	}
	idx, err := s.lookup(p.Handle)
	if err != nil {
		return nil, err
	}
	path, err := s.m.StablePath(idx)
	if err != nil {
		return nil, err
	}
	if path == nil {
		return PathResult{}, nil
	}
	return PathResult{Path: fmt.Sprint(path)}, nil
}

func (s *Server) release(params json.RawMessage) (any, error) {
	p, err := decode[ReleaseParams](params)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, h := range p.Handles {
		pi, ok := s.handles[int64(h)]
		if !ok {
			continue
		}
		pi.Release()
		delete(s.handles, int64(h))
		n++
	}
	return n, nil
}

func (s *Server) patch(params json.RawMessage) (any, error) {
	if s.patcher == nil {
		return nil, fmt.Errorf("patch: %w", errUnsupported)
	}
	p, err := decode[PatchParams](params)
	if err != nil {
		return nil, err
	}
	if err := s.patcher.Patch(p.Patch); err != nil {
		return nil, err
	}
	return true, nil
}
