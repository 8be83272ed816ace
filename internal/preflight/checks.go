package preflight

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"ballotproof/internal/journal"
)

// CheckDirectoryAccess verifies that the directory exists and is readable,
// writable, and traversable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDir(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDir verifies that the directory exists and can be listed.
// Input trees may legitimately be mounted read-only.
func CheckReadableDir(name, path string) Result {
	return checkDir(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDir(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total, free uint64, err error)

var statfs statfsFunc = realStatfs

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}

// CheckDiskSpace verifies that at least minFree bytes are available on the
// filesystem holding path.
func CheckDiskSpace(name, path string, minFree uint64) Result {
	total, free, err := statfs(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	if free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf(
			"%s (%d MiB free of %d MiB, need %d MiB)",
			path, free>>20, total>>20, minFree>>20)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, free>>20)}
}

// CheckJournal opens the journal database, which also verifies that the
// schema version matches this build.
func CheckJournal(name, path string) Result {
	j, err := journal.Open(path)
	if err != nil {
		if errors.Is(err, journal.ErrSchemaMismatch) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: incompatible schema, delete to rebuild)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := j.Close(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: close: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable, schema ok)", path)}
}
