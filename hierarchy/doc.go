// Package hierarchy provides a reusable tree-containment primitive.
//
// A Forest owns nodes addressed by stable handles. Every node has at most one
// parent and an unordered set of children. The package guarantees:
//
//   - acyclicity: no edit can make a node its own ancestor
//   - validated edits: validators registered on a prospective parent may veto
//     an attach before anything changes, and a batch attach is all-or-nothing
//   - observable structure: observers registered on a node see every child-set
//     change in its subtree, and a relocation inside an observed subtree is
//     reported once as a parent change rather than as a removal plus an addition
//
// Observer and validator registration is safe for concurrent use. Structural
// mutation is not: callers editing one forest from several goroutines must
// serialize those edits, including the notifications they trigger.
package hierarchy
