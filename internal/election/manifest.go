package election

import (
	"math/big"
	"strings"

	"ballotproof/internal/auditerr"
)

// CountOn generates the n identifiers a compact manifest row stands for:
// the trailing digit run of start is incremented with its width preserved
// (B-0001 becomes B-0002, XY-9 becomes XY-10). A start with no trailing
// digits first gains a "1" when n > 1, so "B" expands to B1, B2, B3. A
// blank start stays blank for every copy; the column was not in use.
func CountOn(start string, n int) []string {
	out := make([]string, 0, n)
	if n <= 0 {
		return out
	}
	if strings.TrimSpace(start) == "" {
		for i := 0; i < n; i++ {
			out = append(out, start)
		}
		return out
	}

	prefix, digits := splitTrailingDigits(start)
	if digits == "" {
		if n == 1 {
			return append(out, start)
		}
		prefix, digits = start, "1"
	}

	width := len(digits)
	value, _ := new(big.Int).SetString(digits, 10)
	one := big.NewInt(1)
	for i := 0; i < n; i++ {
		s := value.String()
		for len(s) < width {
			s = "0" + s
		}
		out = append(out, prefix+s)
		value.Add(value, one)
	}
	return out
}

func splitTrailingDigits(s string) (prefix, digits string) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[:i], s[i:]
}

// ManifestRow is one raw row of a ballot manifest before expansion.
type ManifestRow struct {
	Box      string
	Position string
	Stamp    string
	BID      string
	Number   int
	Comments string
	Line     int
}

// ExpandManifest turns compact rows into one ManifestEntry per physical
// ballot and rejects bid collisions produced by the arithmetic.
func ExpandManifest(path, pbcid string, rows []ManifestRow) ([]ManifestEntry, error) {
	var entries []ManifestEntry
	seen := make(map[string]int)
	declared := 0
	for _, row := range rows {
		declared += row.Number
		bids := CountOn(row.BID, row.Number)
		stamps := CountOn(row.Stamp, row.Number)
		positions := CountOn(row.Position, row.Number)
		for i := 0; i < row.Number; i++ {
			bid := bids[i]
			if bid == "" {
				return nil, auditerr.At(auditerr.ManifestArithmetic, path, row.Line,
					"collection %q: row expands to a blank ballot id", pbcid)
			}
			if prev, dup := seen[bid]; dup {
				return nil, auditerr.At(auditerr.ManifestArithmetic, path, row.Line,
					"collection %q: ballot id %q already produced by row at line %d", pbcid, bid, prev)
			}
			seen[bid] = row.Line
			entries = append(entries, ManifestEntry{
				Box:      row.Box,
				Position: positions[i],
				Stamp:    stamps[i],
				BID:      bid,
				Comments: row.Comments,
			})
		}
	}
	if len(entries) != declared {
		return nil, auditerr.At(auditerr.ManifestArithmetic, path, 0,
			"collection %q: expansion produced %d ballots, rows declare %d", pbcid, len(entries), declared)
	}
	return entries, nil
}
