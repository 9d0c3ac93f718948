// Package kpath provides kinded path parsing and navigation.
//
// Kinded paths encode both navigation and structure type in the syntax:
//   - .field - Object field access
//   - [index] - Array index
//
// Fields containing separators, quotes or spaces are quoted, preferably
// with single quotes: 'a.b', "it's".
//
// # Usage
//
//	// Parse a kinded path
//	kp, err := kpath.Parse("users[0].name")
//
//	// Navigate
//	parent := kp.Parent()
//	child := kp.Append(kpath.Field("email"))
//
//	// Compare paths
//	cmp := kp1.Compare(kp2) // -1, 0, or 1
//
// # Related Packages
//
//   - github.com/signadot/hmodel/doc - documents addressed by kinded paths
package kpath
