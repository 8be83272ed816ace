// Package load reads an election directory into the in-memory model.
//
// Each reader resolves the operative version of its file family, parses the
// table, reduces identifiers, and cross-checks the result against what was
// loaded before it. The readers mirror the staged command surface: Structure
// for the election-spec tables, Reported for manifests, CVRs, and outcomes,
// Seed and AuditSpec for the audit parameters, and Audited for the
// cumulative hand-audit transcripts. Callers load in that order; later
// readers assume the earlier ones validated their part of the model.
//
// Per-collection families (manifest-<pbcid>, reported-cvrs-<pbcid>,
// audited-votes-<pbcid>) are attributed by iterating the declared
// collections: a file belongs to the collection with the longest
// filename-safe id that matches after the family base, so the files of a
// collection named J2 are never misread as versions of J's.
package load
