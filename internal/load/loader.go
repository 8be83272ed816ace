package load

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"ballotproof/internal/auditerr"
	"ballotproof/internal/csvio"
	"ballotproof/internal/election"
	"ballotproof/internal/ids"
	"ballotproof/internal/layout"
	"ballotproof/internal/logging"
	"ballotproof/internal/versionfs"
)

// Loader reads the versioned tables of one election directory.
type Loader struct {
	dir   string
	retry csvio.Retry
	log   *slog.Logger

	// sources collects every operative path the loader resolved, so a
	// stage can snapshot exactly the files it read.
	sources []string
}

// New returns a Loader rooted at dir. A nil logger disables logging.
func New(dir string, retry csvio.Retry, log *slog.Logger) *Loader {
	if log == nil {
		log = logging.NewNop()
	}
	return &Loader{dir: dir, retry: retry, log: logging.WithComponent(log, "load")}
}

// Dir returns the election directory the loader reads from.
func (l *Loader) Dir() string { return l.dir }

// Sources returns the sorted, deduplicated paths of every operative file
// this loader has resolved so far.
func (l *Loader) Sources() []string {
	out := make([]string, 0, len(l.sources))
	seen := make(map[string]bool, len(l.sources))
	for _, path := range l.sources {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// operative resolves the single operative file of a family, or a
// MissingInput error naming the family when none exists.
func (l *Loader) operative(dir, family string) (string, error) {
	v, err := versionfs.Operative(dir, family, layout.Suffix)
	if err != nil {
		if errors.Is(err, versionfs.ErrNoVersion) || errors.Is(err, fs.ErrNotExist) {
			return "", auditerr.Wrap(auditerr.MissingInput,
				filepath.Join(dir, family+layout.Suffix), "no operative version", err)
		}
		return "", err
	}
	l.sources = append(l.sources, v.Path)
	return v.Path, nil
}

// operativeByCollection resolves the operative member of a per-collection
// family for every declared collection that has one. Attribution iterates
// the declared ids and keeps the longest filename-safe match, so
// manifest-J2-... belongs to a collection J2 even when J is also declared.
func (l *Loader) operativeByCollection(dir, base string, pbcids []string) (map[string]versionfs.Version, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	safe := make(map[string]string, len(pbcids))
	for _, pbcid := range pbcids {
		safe[pbcid] = ids.FileSafe(pbcid)
	}
	best := make(map[string]versionfs.Version, len(pbcids))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, base) || !strings.HasSuffix(name, layout.Suffix) {
			continue
		}
		rest := name[len(base):]
		owner := ""
		for _, pbcid := range pbcids {
			if strings.HasPrefix(rest, safe[pbcid]) &&
				(owner == "" || len(safe[pbcid]) > len(safe[owner])) {
				owner = pbcid
			}
		}
		if owner == "" {
			continue
		}
		label := rest[len(safe[owner]) : len(rest)-len(layout.Suffix)]
		if cur, ok := best[owner]; !ok || label > cur.Label {
			best[owner] = versionfs.Version{Label: label, Path: filepath.Join(dir, name)}
		}
	}
	for _, v := range best {
		l.sources = append(l.sources, v.Path)
	}
	return best, nil
}

// OrderFiles resolves the operative sampling-order file of each collection
// so stage snapshots can cover them. Collections without one are omitted.
func (l *Loader) OrderFiles(e *election.Election) map[string]string {
	files, err := l.operativeByCollection(layout.OrdersDir(l.dir), layout.OrderBase, e.CollectionIDs)
	if err != nil {
		return nil
	}
	out := make(map[string]string, len(files))
	for pbcid, v := range files {
		out[pbcid] = v.Path
	}
	return out
}

func parseInt(kind auditerr.Kind, path string, row csvio.Row, column string) (int, error) {
	raw := row.Get(column)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, auditerr.At(kind, path, row.Line, "%s %q is not an integer", column, raw)
	}
	return n, nil
}

func parseFloat(kind auditerr.Kind, path string, row csvio.Row, column string) (float64, error) {
	raw := row.Get(column)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, auditerr.At(kind, path, row.Line, "%s %q is not a number", column, raw)
	}
	return f, nil
}
