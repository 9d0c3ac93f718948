// Package doc provides an ordered document tree for YAML and JSON data.
//
// A document is a tree of *Node with parent back pointers. Every node knows
// its position in its parent (ParentIndex, and ParentField for object
// members), so a node can always compute its kinded path.
//
// # Node Types
//
// The Type field indicates the node's type:
//   - NullType: null value
//   - BoolType: boolean (true/false)
//   - NumberType: numeric value (int64 or float64)
//   - StringType: string value
//   - ArrayType: ordered list of nodes
//   - ObjectType: ordered key-value pairs
//
// For ObjectType nodes, Fields[i] is the key for the value at Values[i].
//
// # Editing
//
// Structural edits keep node identity: a node which is not removed stays
// the same *Node after inserts and removals around it. ApplyPatch applies
// RFC 6902 patches and Update transforms one document into another, both
// reporting each structural step as a Change.
//
// # Usage
//
//	root, err := doc.Parse(data)
//	n, err := root.Get(kpath.MustParse("spec.ports[0]"))
//	err = doc.ApplyPatch(root, patch, func(c doc.Change) error {
//		fmt.Println(c)
//		return nil
//	})
//
// # Related Packages
//
//   - github.com/signadot/hmodel/kpath - kinded paths
//   - github.com/signadot/hmodel/docprov - documents as model providers
package doc
