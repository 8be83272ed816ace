// Package layout names the directories and file families of an election
// audit tree. Readers and emitters share this vocabulary so a path is
// spelled in exactly one place.
package layout

import (
	"fmt"
	"path/filepath"

	"ballotproof/internal/ids"
)

// Suffix is the extension every table in the tree carries.
const Suffix = ".csv"

// Election-spec families, under SpecDir.
const (
	ElectionFamily    = "11-election"
	ContestsFamily    = "12-contests"
	CollectionsFamily = "13-collections"
	GroupsFamily      = "14-contest-groups"
)

// Reported families. OutcomesFamily sits directly under ReportedDir; the
// per-collection bases live in their own subdirectories.
const (
	OutcomesFamily = "23-reported-outcomes"
	ManifestBase   = "manifest-"
	CVRBase        = "reported-cvrs-"
)

// Audit-spec families, under AuditSpecDir.
const (
	SeedFamily             = "311-audit-seed"
	GlobalParamsFamily     = "10-audit-parameters-global"
	ContestParamsFamily    = "11-audit-parameters-contest"
	CollectionParamsFamily = "12-audit-parameters-collection"
)

// Working and per-stage output bases under AuditDir.
const (
	OrderBase    = "audit-order-"
	AuditedBase  = "audited-votes-"
	SnapshotBase = "20-audit-snapshot-"
	OutputBase   = "30-audit-output-"
	PlanBase     = "40-audit-plan-"
)

func SpecDir(dir string) string     { return filepath.Join(dir, "1-election-spec") }
func ReportedDir(dir string) string { return filepath.Join(dir, "2-reported") }
func ManifestsDir(dir string) string {
	return filepath.Join(ReportedDir(dir), "21-reported-ballot-manifests")
}
func CVRsDir(dir string) string      { return filepath.Join(ReportedDir(dir), "22-reported-cvrs") }
func AuditDir(dir string) string     { return filepath.Join(dir, "3-audit") }
func AuditSpecDir(dir string) string { return filepath.Join(AuditDir(dir), "31-audit-spec") }
func OrdersDir(dir string) string    { return filepath.Join(AuditDir(dir), "32-audit-orders") }
func AuditedDir(dir string) string   { return filepath.Join(AuditDir(dir), "33-audited-votes") }
func OutputDir(dir string) string    { return filepath.Join(AuditDir(dir), "34-audit-output") }

// JournalFile is the sqlite journal at the root of the election directory.
func JournalFile(dir string) string { return filepath.Join(dir, "journal.db") }

// CollectionPrefix builds the family prefix of a per-collection file, for
// example manifest-DEN-A01. The collection id is made filename safe first.
func CollectionPrefix(base, pbcid string) string { return base + ids.FileSafe(pbcid) }

// StageLabel renders a stage number as the fixed-width label used in
// per-stage output names, so labels sort in stage order.
func StageLabel(n int) string { return fmt.Sprintf("%03d", n) }
