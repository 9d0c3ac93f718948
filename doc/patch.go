package doc

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/signadot/hmodel/debug"

	jsonpatch "github.com/evanphx/json-patch"
)

// ApplyPatch applies an RFC 6902 JSON patch to root in place, reporting
// each structural step to sink (which may be nil).
//
// The patch is applied atomically: it is first checked with json-patch
// against the JSON form of root, then replayed on a copy, and only then
// replayed on root itself. On failure root is unchanged. Errors returned by
// sink do not stop the replay; they are joined into the result.
//
// Replaying natively keeps the identity of nodes the patch does not
// touch; "move" keeps the identity of the moved node as well.
func ApplyPatch(root *Node, patch []byte, sink ChangeSink) error {
	ops, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPatch, err)
	}
	if err := checkPatch(root, ops); err != nil {
		return err
	}
	if err := replay(root.Clone(), ops, nil); err != nil {
		return err
	}
	var errs []error
	err = replay(root, ops, func(c Change) error {
		if debug.Patch() {
			debug.Logf("patch: %s\n", c)
		}
		if sink == nil {
			return nil
		}
		if err := sink(c); err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	if err != nil {
		// unreachable after a successful dry run
		return err
	}
	return errors.Join(errs...)
}

func checkPatch(root *Node, ops jsonpatch.Patch) (err error) {
	if root.Type.IsLeaf() {
		return fmt.Errorf("%w: cannot patch a %s document", ErrPatch, root.Type)
	}
	d, err := root.MarshalJSON()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPatch, err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPatch, r)
		}
	}()
	if _, err := ops.Apply(d); err != nil {
		return fmt.Errorf("%w: %w", ErrPatch, err)
	}
	return nil
}

func replay(root *Node, ops jsonpatch.Patch, sink ChangeSink) error {
	if sink == nil {
		sink = func(Change) error { return nil }
	}
	for i, op := range ops {
		if err := replayOp(root, op, sink); err != nil {
			return fmt.Errorf("%w: op %d (%s): %w", ErrPatch, i, op.Kind(), err)
		}
	}
	return nil
}

func replayOp(root *Node, op jsonpatch.Operation, sink ChangeSink) error {
	kind := op.Kind()
	if kind == "test" {
		return nil
	}
	path, err := op.Path()
	if err != nil {
		return err
	}
	switch kind {
	case "add":
		val, err := opValue(op)
		if err != nil {
			return err
		}
		return add(root, path, val, sink)
	case "remove":
		_, err := remove(root, path, sink)
		return err
	case "replace":
		val, err := opValue(op)
		if err != nil {
			return err
		}
		return replace(root, path, val, sink)
	case "move", "copy":
		from, err := op.From()
		if err != nil {
			return err
		}
		var val *Node
		if kind == "move" {
			val, err = remove(root, from, sink)
		} else {
			val, err = root.GetPointer(from)
		}
		if err != nil {
			return err
		}
		if kind == "copy" {
			val = val.Clone()
		}
		return add(root, path, val, sink)
	}
	return fmt.Errorf("unexpected kind %q", kind)
}

func opValue(op jsonpatch.Operation) (*Node, error) {
	raw, ok := op["value"]
	if !ok {
		return nil, fmt.Errorf("missing value")
	}
	if raw == nil {
		return Null(), nil
	}
	return Parse(*raw)
}

// locate returns the container holding the target of ptr and the last
// reference token.
func locate(root *Node, ptr string) (*Node, string, error) {
	toks, err := ParsePointer(ptr)
	if err != nil {
		return nil, "", err
	}
	if len(toks) == 0 {
		return nil, "", fmt.Errorf("cannot operate on the document root")
	}
	parent, err := root.resolveTokens(toks[:len(toks)-1])
	if err != nil {
		return nil, "", err
	}
	if parent.Type.IsLeaf() {
		return nil, "", fmt.Errorf("%w: %s: %s has no children", ErrNotFound, ptr, parent.Type)
	}
	return parent, toks[len(toks)-1], nil
}

// arrayIndex interprets key as an index into an array of length n,
// accepting negative indexes counted from the end and "-" for n when
// insert is set.
func arrayIndex(key string, n int, insert bool) (int, error) {
	limit := n
	if insert {
		if key == "-" {
			return n, nil
		}
		limit = n + 1
	}
	i, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("bad array index %q", key)
	}
	if i < 0 {
		i += limit
	}
	if i < 0 || i >= limit {
		return 0, fmt.Errorf("array index %s out of bounds (len %d)", key, n)
	}
	return i, nil
}

func add(root *Node, ptr string, val *Node, sink ChangeSink) error {
	parent, key, err := locate(root, ptr)
	if err != nil {
		return err
	}
	if parent.Type == ObjectType {
		if i := parent.Index(key); i >= 0 {
			if _, err := parent.SetAt(i, val); err != nil {
				return err
			}
			return sink(Change{Kind: Replaced, Parent: parent, Index: i, Count: 1})
		}
		i := len(parent.Values)
		if err := parent.InsertAt(i, key, val); err != nil {
			return err
		}
		return sink(Change{Kind: Added, Parent: parent, Index: i, Count: 1})
	}
	i, err := arrayIndex(key, len(parent.Values), true)
	if err != nil {
		return err
	}
	if err := parent.InsertAt(i, "", val); err != nil {
		return err
	}
	return sink(Change{Kind: Added, Parent: parent, Index: i, Count: 1})
}

func remove(root *Node, ptr string, sink ChangeSink) (*Node, error) {
	parent, key, err := locate(root, ptr)
	if err != nil {
		return nil, err
	}
	var i int
	if parent.Type == ObjectType {
		i = parent.Index(key)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ptr)
		}
	} else {
		i, err = arrayIndex(key, len(parent.Values), false)
		if err != nil {
			return nil, err
		}
	}
	res, err := parent.RemoveAt(i)
	if err != nil {
		return nil, err
	}
	return res, sink(Change{Kind: Removed, Parent: parent, Index: i, Count: 1})
}

func replace(root *Node, ptr string, val *Node, sink ChangeSink) error {
	parent, key, err := locate(root, ptr)
	if err != nil {
		return err
	}
	if parent.Type == ObjectType {
		// a missing field is added, as json-patch does
		return add(root, ptr, val, sink)
	}
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= len(parent.Values) {
		return fmt.Errorf("bad array index %q (len %d)", key, len(parent.Values))
	}
	if _, err := parent.SetAt(i, val); err != nil {
		return err
	}
	return sink(Change{Kind: Replaced, Parent: parent, Index: i, Count: 1})
}
