// Package routetree walks a read-only snapshot of a router's layer tree
// and reconstructs the OpenAPI path template of every documented route.
//
// A host router exposes its structure as a tree of Layer values through
// the Source interface. The tree has three kinds of nodes:
//
//   - KindRouter: a mount point contributing a path prefix and delegating
//     to a nested router.
//   - KindRoute: a route contributing one or more alternative paths and
//     owning a stack of handler layers.
//   - KindHandler: an element of a route stack, bound to an HTTP method.
//
// The Walker accumulates path tokens along each branch, renders them with
// pathtpl.Render, strips the configured base path and calls the visit
// function for each handler layer that carries a schema.
package routetree
