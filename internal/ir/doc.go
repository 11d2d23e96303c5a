// Package ir provides the intermediate representation produced by the RT
// front end and consumed by lowering and emission.
//
// This package contains type definitions and the boundary document only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Definitions and type expressions are closed sum types (sealed interfaces)
//   - The boundary document never contains null; absent fields are omitted
//   - All document keys use snake_case
//   - Digests are computed over RFC 8785 canonical JSON only
package ir
