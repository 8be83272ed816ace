// Package election holds the typed in-memory model of everything the audit
// reads: the election attributes, contests and their selections, contest
// groups, paper ballot collections, expanded ballot manifests, reported
// votes and tallies, reported outcomes, the audit seed, and the per-contest
// audit parameters.
//
// The model is an explicit value constructed by the loaders and passed to
// every stage operation; nothing here is process-global. Consistency
// checking is split to match the CLI surface: ValidateStructure covers the
// election-spec tables alone, ValidateReported cross-checks manifests, CVRs,
// and outcomes against the structure, and ValidateAuditSpec covers the seed
// and parameter ranges. All violations carry auditerr kinds.
//
// The package also owns the vote classification and plurality outcome rules
// shared by the risk estimator and the synthetic election generator.
package election
