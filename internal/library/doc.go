// Package library loads step templates and indexes them for lookup.
//
// A library source is either a list of records
//
//	[{"ИмяШага": "...", "ПолныйТипШага": "UI.Кнопки", "ОписаниеШага": "..."}]
//
// or a mapping from category name to records
//
//	{"UI": [{"шаг": "...", "тип": "UI.Кнопки", "описание": "..."}]}
//
// JSON is the default encoding; files ending in .yaml or .yml are read as
// YAML. The shape is checked against a CUE schema before any record is
// accepted, so a malformed source never produces a partial library.
//
// # Canonical forms
//
// Every template is keyed by its canonical form (see package canon). Two
// templates whose canonical forms collide are resolved by a CollisionPolicy:
//
//   - CollisionLast: the later template owns the form (default)
//   - CollisionFirst: the earlier template keeps it
//   - CollisionReject: loading fails with CANONICAL_COLLISION
//
// Collisions are recorded on the Library whatever the policy.
//
// A loaded Library is immutable and safe for concurrent use.
package library
