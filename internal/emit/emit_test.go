package emit

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"ballotproof/internal/csvio"
	"ballotproof/internal/election"
	"ballotproof/internal/ids"
	"ballotproof/internal/layout"
	"ballotproof/internal/load"
	"ballotproof/internal/risk"
	"ballotproof/internal/sampler"
	"ballotproof/internal/snapshot"
)

const testSeed = "13456201235197891138"

func testElection(t *testing.T) (*election.Election, map[string][]election.ManifestRow) {
	t.Helper()
	e := election.New()
	e.Name = "General Election"
	e.Dirname = "general-2017"
	e.Date = "2017-11-07"
	e.URL = "https://co.gov/audit"
	e.Seed = testSeed
	e.MaxAuditStages = 20
	e.Trials = 2000
	e.TallyWeight = 0.5

	e.ContestIDs = []string{"Mayor", "Prop-1"}
	e.Contests["Mayor"] = &election.Contest{
		ID: "Mayor", Type: "Plurality", Winners: 1,
		WriteIns: election.WriteInsQualified, Selections: []string{"Alice", "Bob", "+Carl"},
		Audit: election.ContestAudit{
			Method: election.MethodBayes, RiskLimit: 0.05, UpsetThreshold: 0.95,
			Mode: election.ModeActive, Status: election.StatusOpen, Pseudocount: 0.5,
		},
	}
	e.Contests["Prop-1"] = &election.Contest{
		ID: "Prop-1", Type: "Plurality", Winners: 1,
		WriteIns: election.WriteInsNone, Selections: []string{"Yes", "No"},
		Audit: election.ContestAudit{
			Method: election.MethodBayes, RiskLimit: 0.05, UpsetThreshold: 0.95,
			Mode: election.ModeOpportunistic, Status: election.StatusOpen, Pseudocount: 0.5,
		},
	}
	e.GroupIDs = []string{"All"}
	e.Groups["All"] = []string{"Mayor", "Prop-1"}

	e.CollectionIDs = []string{"DEN", "LOG"}
	e.Collections["DEN"] = &election.Collection{
		ID: "DEN", Manager: "abe@co.gov", CVRType: election.TypeCVR,
		ContestRefs: []string{"All"}, Contests: []string{"Mayor", "Prop-1"}, MaxAuditRate: 10,
	}
	e.Collections["LOG"] = &election.Collection{
		ID: "LOG", Manager: "bea@co.gov", CVRType: election.TypeNoCVR,
		ContestRefs: []string{"Mayor"}, Contests: []string{"Mayor"}, MaxAuditRate: 8,
	}

	manifests := map[string][]election.ManifestRow{
		"DEN": {{Box: "1", Position: "1", Stamp: "S-0001", BID: "B-0001", Number: 4}},
		"LOG": {{Box: "1", BID: "L-0001", Number: 6, Comments: "hand counted"}},
	}
	for pbcid, rows := range manifests {
		entries, err := election.ExpandManifest("test", pbcid, rows)
		if err != nil {
			t.Fatalf("ExpandManifest: %v", err)
		}
		e.Manifests[pbcid] = entries
	}

	mayor := []string{"Alice", "Alice", "Bob", "+Carl"}
	prop := []string{"Yes", "No", "Yes", "Yes"}
	e.ReportedVotes["DEN"] = make(map[string]map[string]ids.Vote)
	for i, entry := range e.Manifests["DEN"] {
		e.ReportedVotes["DEN"][entry.BID] = map[string]ids.Vote{
			"Mayor":  ids.NewVote(mayor[i]),
			"Prop-1": ids.NewVote(prop[i]),
		}
	}
	e.ReportedTallies["LOG"] = map[string]map[string]int{
		"Mayor": {"Alice": 4, "Bob": 2},
	}
	e.Outcomes["Mayor"] = ids.NewVote("Alice")
	e.Outcomes["Prop-1"] = ids.NewVote("Yes")
	return e, manifests
}

func writeAll(t *testing.T, dir string, e *election.Election, manifests map[string][]election.ManifestRow) {
	t.Helper()
	w := New(dir, nil)
	if err := w.Structure(e); err != nil {
		t.Fatalf("Structure: %v", err)
	}
	for _, pbcid := range e.CollectionIDs {
		if err := w.Manifest(pbcid, manifests[pbcid]); err != nil {
			t.Fatalf("Manifest %s: %v", pbcid, err)
		}
		if err := w.Reported(e, pbcid, "scanner-1"); err != nil {
			t.Fatalf("Reported %s: %v", pbcid, err)
		}
	}
	if err := w.Outcomes(e); err != nil {
		t.Fatalf("Outcomes: %v", err)
	}
	if err := w.Seed(e.Seed); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := w.AuditSpec(e); err != nil {
		t.Fatalf("AuditSpec: %v", err)
	}
}

func TestRoundTripThroughLoader(t *testing.T) {
	e, manifests := testElection(t)
	e.AuditedVotes["DEN"] = map[string]map[string]ids.Vote{
		"B-0003": {"Mayor": ids.NewVote("Bob"), "Prop-1": ids.NewVote("Yes")},
		"B-0001": {"Mayor": ids.NewVote("Alice")},
	}
	e.AuditedBIDs["DEN"] = []string{"B-0003", "B-0001"}

	dir := t.TempDir()
	writeAll(t, dir, e, manifests)
	w := New(dir, nil)
	if err := w.AuditedVotes(e, "DEN", "-001"); err != nil {
		t.Fatalf("AuditedVotes: %v", err)
	}

	l := load.New(dir, csvio.Retry{}, nil)
	got, err := l.Structure()
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	for _, step := range []func(*election.Election) error{l.Reported, l.Seed, l.AuditSpec, l.Audited} {
		if err := step(got); err != nil {
			t.Fatalf("load: %v", err)
		}
	}

	if got.Name != e.Name || got.Dirname != e.Dirname || got.Date != e.Date || got.URL != e.URL {
		t.Fatalf("election attributes changed: %+v", got)
	}
	if !reflect.DeepEqual(got.ContestIDs, e.ContestIDs) || !reflect.DeepEqual(got.CollectionIDs, e.CollectionIDs) {
		t.Fatalf("declared orders changed: %v / %v", got.ContestIDs, got.CollectionIDs)
	}
	for _, cid := range e.ContestIDs {
		want, have := e.Contests[cid], got.Contests[cid]
		if have.Winners != want.Winners || have.WriteIns != want.WriteIns ||
			!reflect.DeepEqual(have.Selections, want.Selections) || have.Audit != want.Audit {
			t.Fatalf("contest %s changed: %+v", cid, have)
		}
	}
	if !reflect.DeepEqual(got.Groups, e.Groups) {
		t.Fatalf("groups changed: %v", got.Groups)
	}
	for _, pbcid := range e.CollectionIDs {
		want, have := e.Collections[pbcid], got.Collections[pbcid]
		if have.Manager != want.Manager || have.CVRType != want.CVRType ||
			have.MaxAuditRate != want.MaxAuditRate ||
			!reflect.DeepEqual(have.Contests, want.Contests) {
			t.Fatalf("collection %s changed: %+v", pbcid, have)
		}
	}
	if !reflect.DeepEqual(got.Manifests, e.Manifests) {
		t.Fatalf("manifests changed: %v", got.Manifests)
	}
	if !reflect.DeepEqual(got.ReportedVotes, e.ReportedVotes) {
		t.Fatalf("reported votes changed: %v", got.ReportedVotes)
	}
	if !reflect.DeepEqual(got.ReportedTallies, e.ReportedTallies) {
		t.Fatalf("reported tallies changed: %v", got.ReportedTallies)
	}
	if !reflect.DeepEqual(got.Outcomes, e.Outcomes) {
		t.Fatalf("outcomes changed: %v", got.Outcomes)
	}
	if got.Seed != e.Seed || got.MaxAuditStages != e.MaxAuditStages ||
		got.Trials != e.Trials || got.TallyWeight != e.TallyWeight {
		t.Fatalf("audit globals changed: %+v", got)
	}
	if !reflect.DeepEqual(got.AuditedVotes, e.AuditedVotes) {
		t.Fatalf("audited votes changed: %v", got.AuditedVotes)
	}
	if !reflect.DeepEqual(got.AuditedBIDs["DEN"], e.AuditedBIDs["DEN"]) {
		t.Fatalf("audited order changed: %v", got.AuditedBIDs["DEN"])
	}
}

func TestOrdersFilesAreDensePermutations(t *testing.T) {
	e, _ := testElection(t)
	dir := t.TempDir()
	w := New(dir, nil)
	orders := sampler.Orders(e)
	if err := w.Orders(e, orders); err != nil {
		t.Fatalf("Orders: %v", err)
	}

	spec := csvio.Spec{Fixed: []string{
		"Ballot order", "Collection id", "Box", "Position", "Stamp", "Ballot id", "Comments",
	}}
	for _, pbcid := range e.CollectionIDs {
		path := filepath.Join(layout.OrdersDir(dir),
			layout.CollectionPrefix(layout.OrderBase, pbcid)+layout.Suffix)
		table, err := csvio.ReadTable(path, spec, csvio.Retry{})
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if len(table.Rows) != e.Size(pbcid) {
			t.Fatalf("%s: %d rows, manifest has %d", pbcid, len(table.Rows), e.Size(pbcid))
		}
		seen := make(map[string]bool)
		for i, row := range table.Rows {
			if row.Get("Ballot order") != strconv.Itoa(i+1) {
				t.Fatalf("%s row %d: order %q", pbcid, i, row.Get("Ballot order"))
			}
			seen[row.Get("Ballot id")] = true
		}
		for _, entry := range e.Manifests[pbcid] {
			if !seen[entry.BID] {
				t.Fatalf("%s: ballot %s missing from order file", pbcid, entry.BID)
			}
		}
	}
}

func TestStageArtifactBytes(t *testing.T) {
	e, _ := testElection(t)
	dir := t.TempDir()
	w := New(dir, nil)

	files := []snapshot.File{
		{Path: "1-election-spec/11-election.csv", Hash: "aa11"},
		{Path: "2-reported/23-reported-outcomes.csv", Hash: "bb22"},
	}
	if err := w.Snapshot("001", files); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	ms := []risk.Measurement{{
		Contest: "Mayor", Risk: 0.0123456789, Trials: 2000, Failures: 24,
		SampleSize: 6, StatusBefore: election.StatusOpen, StatusAfter: election.StatusOpen,
	}}
	if err := w.Output("001", e, ms); err != nil {
		t.Fatalf("Output: %v", err)
	}
	plan := []PlanRow{
		{Collection: "DEN", AuditedSoFar: 6, NextIncrement: 10, EstimatedTotal: 26},
		{Collection: "LOG", AuditedSoFar: 0, NextIncrement: 8, EstimatedTotal: 6},
	}
	if err := w.Plan("001", plan); err != nil {
		t.Fatalf("Plan: %v", err)
	}

	assertFile := func(name, want string) {
		t.Helper()
		data, err := os.ReadFile(filepath.Join(layout.OutputDir(dir), name))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != want {
			t.Fatalf("%s:\n got %q\nwant %q", name, data, want)
		}
	}
	assertFile("20-audit-snapshot-001.csv",
		"File path,SHA256 hash\n"+
			"1-election-spec/11-election.csv,aa11\n"+
			"2-reported/23-reported-outcomes.csv,bb22\n")
	assertFile("30-audit-output-001.csv",
		"Contest id,Risk Measurement Method,Measured risk,Risk Limit,Risk Upset Threshold,Status,Sample size\n"+
			"Mayor,Bayes,0.0123457,0.05,0.95,Open,6\n"+
			"Prop-1,Bayes,,0.05,0.95,Open,\n")
	assertFile("40-audit-plan-001.csv",
		"Collection id,Audited so far,Next stage increment,Estimated total needed\n"+
			"DEN,6,10,26\n"+
			"LOG,0,8,6\n")
}

func TestWritersRefuseToOverwrite(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, nil)
	if err := w.Seed(testSeed); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := w.Seed(testSeed); err == nil {
		t.Fatal("second write of the same family member succeeded")
	}
}
