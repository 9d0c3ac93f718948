// Package model provides a lazy, sparse cache over an external hierarchical
// data provider and translates between cache positions and the provider's
// stable paths.
//
// # Overview
//
// A [Provider] answers questions about a tree or table: how many rows a
// position has, how many columns every row has, what to display for a
// position and what stable [Path] the provider assigns to a (row, column)
// under a parent path. A [Model] mirrors that hierarchy with a tree of
// [Node] values which are materialised only when first visited, and hands
// consumers transient [Index] values and [PersistentIndex] handles.
//
// # Lazy nodes
//
// Every node caches a per-axis count which is one of uncomputed, empty (the
// provider failed or was unavailable) or a computed number. The children of
// a node are held in a sparse grid whose extent always matches the computed
// counts; a slot is nil until first requested with [Node.Child].
//
// # Structural edits
//
// Providers report changes with [Model.Notify]. Insertions and removals
// shift the row or column fields of surviving nodes in place, so a node
// object always represents the same logical entity. Persistent indexes held
// by consumers are re-seated after every edit through an explicit
// before/after permutation ([Remap]), and indexes whose target was removed
// become invalid.
//
// # Errors
//
// The provider is treated as untrusted: errors and panics raised by it are
// turned into neutral answers (zero counts, no data). Only path resolution
// reports failures, as [ErrAddressNotFound] or [ErrProvider].
//
// # Thread Safety
//
// A Model is owned by one goroutine and is not safe for concurrent use.
// Providers may call back into the model while answering a query.
package model
