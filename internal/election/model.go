package election

import (
	"sort"

	"ballotproof/internal/ids"
)

// WriteInPolicy controls which write-in selections a contest accepts.
type WriteInPolicy int

const (
	WriteInsNone WriteInPolicy = iota
	WriteInsQualified
	WriteInsArbitrary
)

func (p WriteInPolicy) String() string {
	switch p {
	case WriteInsQualified:
		return "Qualified"
	case WriteInsArbitrary:
		return "Arbitrary"
	default:
		return "No"
	}
}

// CVRType distinguishes collections with per-ballot cast vote records from
// those reporting only contest tallies.
type CVRType string

const (
	TypeCVR   CVRType = "CVR"
	TypeNoCVR CVRType = "noCVR"
)

// Method names a risk measurement method. Only Bayes is implemented; the
// parameter file reserves the slot for others.
type Method string

const MethodBayes Method = "Bayes"

// SamplingMode says whether a contest drives sample growth or merely rides
// along on ballots drawn for other contests.
type SamplingMode string

const (
	ModeActive        SamplingMode = "Active"
	ModeOpportunistic SamplingMode = "Opportunistic"
)

// Status is the audit status of a contest. Passed and Upset are terminal.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusPassed Status = "Passed"
	StatusUpset  Status = "Upset"
	StatusOff    Status = "Off"
)

// Terminal reports whether a status can never change again.
func (s Status) Terminal() bool { return s == StatusPassed || s == StatusUpset }

// ContestAudit carries the per-contest audit parameters from the audit-spec
// directory.
type ContestAudit struct {
	Method         Method
	RiskLimit      float64
	UpsetThreshold float64
	Mode           SamplingMode
	Status         Status
	// Pseudocount is the Dirichlet concentration of the Polya-urn prior.
	Pseudocount float64
}

// Contest is one decision on the ballot.
type Contest struct {
	ID       string
	Type     string
	Winners  int
	WriteIns WriteInPolicy
	// Selections lists the declared selection ids in file order; entries
	// beginning with "+" are the pre-qualified write-ins.
	Selections []string
	Audit      ContestAudit

	selSet map[string]bool
}

// HasSelection reports whether selid is declared for the contest (including
// pre-qualified write-ins).
func (c *Contest) HasSelection(selid string) bool {
	if c.selSet == nil {
		c.selSet = make(map[string]bool, len(c.Selections))
		for _, s := range c.Selections {
			c.selSet[s] = true
		}
	}
	return c.selSet[selid]
}

// Collection is a separately managed group of paper ballots.
type Collection struct {
	ID      string
	Manager string
	CVRType CVRType
	// ContestRefs holds the raw entries of the collections table; each names
	// a contest or a contest group.
	ContestRefs []string
	// Contests is the group-expanded, sorted contest list.
	Contests []string
	// MaxAuditRate is the per-stage ballot cap from the collection
	// parameters file.
	MaxAuditRate int

	contestSet map[string]bool
}

// HasContest reports whether the collection may carry ballots for cid.
func (p *Collection) HasContest(cid string) bool {
	if p.contestSet == nil {
		p.contestSet = make(map[string]bool, len(p.Contests))
		for _, c := range p.Contests {
			p.contestSet[c] = true
		}
	}
	return p.contestSet[cid]
}

// ManifestEntry locates one physical ballot.
type ManifestEntry struct {
	Box      string
	Position string
	Stamp    string
	BID      string
	Comments string
}

// Election is the full model for one election directory.
type Election struct {
	Name    string
	Dirname string
	Date    string
	URL     string

	Contests      map[string]*Contest
	ContestIDs    []string // declared order
	Groups        map[string][]string
	GroupIDs      []string
	Collections   map[string]*Collection
	CollectionIDs []string

	// Manifests maps pbcid to its expanded manifest in file order.
	Manifests map[string][]ManifestEntry

	// ReportedVotes maps pbcid -> bid -> cid -> vote for CVR collections.
	ReportedVotes map[string]map[string]map[string]ids.Vote
	// ReportedTallies maps pbcid -> cid -> vote key -> count for noCVR
	// collections.
	ReportedTallies map[string]map[string]map[string]int

	// Outcomes maps cid to the reported winner set.
	Outcomes map[string]ids.Vote

	Seed           string
	MaxAuditStages int
	Trials         int
	// TallyWeight scales reported noCVR tallies when they enter the urn
	// prior as pseudo-observations.
	TallyWeight float64

	// AuditedVotes maps pbcid -> bid -> cid -> vote, cumulative across
	// stages.
	AuditedVotes map[string]map[string]map[string]ids.Vote
	// AuditedBIDs preserves the order audited ballots first appear in the
	// operative transcript, per pbcid.
	AuditedBIDs map[string][]string

	manifestBIDs map[string]map[string]bool
}

// New returns an empty model with all maps ready.
func New() *Election {
	return &Election{
		Contests:        make(map[string]*Contest),
		Groups:          make(map[string][]string),
		Collections:     make(map[string]*Collection),
		Manifests:       make(map[string][]ManifestEntry),
		ReportedVotes:   make(map[string]map[string]map[string]ids.Vote),
		ReportedTallies: make(map[string]map[string]map[string]int),
		Outcomes:        make(map[string]ids.Vote),
		AuditedVotes:    make(map[string]map[string]map[string]ids.Vote),
		AuditedBIDs:     make(map[string][]string),
		TallyWeight:     1,
	}
}

// Size returns N(pbcid), the number of ballots in the collection's expanded
// manifest.
func (e *Election) Size(pbcid string) int { return len(e.Manifests[pbcid]) }

// HasBallot reports whether bid appears in pbcid's manifest.
func (e *Election) HasBallot(pbcid, bid string) bool {
	if e.manifestBIDs == nil {
		e.manifestBIDs = make(map[string]map[string]bool, len(e.Manifests))
	}
	set, ok := e.manifestBIDs[pbcid]
	if !ok {
		set = make(map[string]bool, len(e.Manifests[pbcid]))
		for _, entry := range e.Manifests[pbcid] {
			set[entry.BID] = true
		}
		e.manifestBIDs[pbcid] = set
	}
	return set[bid]
}

// Rel returns the sorted pbcids that may carry ballots for cid.
func (e *Election) Rel(cid string) []string {
	var out []string
	for _, pbcid := range e.CollectionIDs {
		if e.Collections[pbcid].HasContest(cid) {
			out = append(out, pbcid)
		}
	}
	sort.Strings(out)
	return out
}

// ReportedVote returns the reported vote for one ballot and contest in a CVR
// collection. Ballots without a CVR row for the contest report -NoRecord.
func (e *Election) ReportedVote(pbcid, bid, cid string) ids.Vote {
	if byBID, ok := e.ReportedVotes[pbcid]; ok {
		if byCID, ok := byBID[bid]; ok {
			if v, ok := byCID[cid]; ok {
				return v
			}
		}
	}
	return ids.Vote{ids.SelNoRecord}
}

// AuditedCount returns n(pbcid), the number of distinct audited ballots in
// the collection.
func (e *Election) AuditedCount(pbcid string) int {
	return len(e.AuditedBIDs[pbcid])
}
