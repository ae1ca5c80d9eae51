// Package ir provides the intermediate representation types for gistub.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps IR the foundational
// layer with no circular dependencies.
//
// Key constraints:
//   - Entities keep declaration order; nothing is emitted from map iteration
//   - Nodes are immutable once built, except TypeRef tags filled by the resolver
//   - After resolution no TypeRef reachable from an entity is still raw
//   - All JSON tags use snake_case
package ir
