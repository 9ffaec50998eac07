package cartographer

import (
	"errors"
	"io/fs"
	"os"
	"syscall"

	"github.com/tyemirov/arbor/internal/types"
)

const (
	ownerExecuteBit = 0o100
	otherWriteBit   = 0o002
)

// ResolveMode classifies path into attribute flags without failing for a
// missing entry: a path that is gone, or a symlink whose target cannot be
// reached, resolves to ModeOrphanLink. Other stat failures, such as
// permission denial, are returned.
func ResolveMode(path string) (types.Mode, error) {
	mode, _, resolveError := resolveMode(path)
	return mode, resolveError
}

// resolveMode additionally reports whether the entry itself exists, which
// lets the walker drop entries that vanished after being listed.
func resolveMode(path string) (types.Mode, bool, error) {
	linkInfo, lstatError := os.Lstat(path)
	if lstatError != nil {
		if errors.Is(lstatError, fs.ErrNotExist) {
			return types.ModeOrphanLink, false, nil
		}
		return 0, false, lstatError
	}
	if linkInfo.Mode()&fs.ModeSymlink == 0 {
		return modeFromFileMode(linkInfo.Mode()), true, nil
	}

	targetInfo, statError := os.Stat(path)
	if statError != nil {
		if isUnreachableTarget(statError) {
			return types.ModeOrphanLink, true, nil
		}
		return 0, true, statError
	}
	return modeFromFileMode(targetInfo.Mode()) | types.ModeLink, true, nil
}

func isUnreachableTarget(statError error) bool {
	return errors.Is(statError, fs.ErrNotExist) ||
		errors.Is(statError, syscall.ENOTDIR) ||
		errors.Is(statError, syscall.ELOOP)
}

// modeFromFileMode derives independent flags; several may apply at once.
func modeFromFileMode(fileMode fs.FileMode) types.Mode {
	var mode types.Mode
	switch {
	case fileMode.IsDir():
		mode |= types.ModeDirectory
	case fileMode.IsRegular():
		mode |= types.ModeFile
	case fileMode&fs.ModeNamedPipe != 0:
		mode |= types.ModePipe
	case fileMode&fs.ModeSocket != 0:
		mode |= types.ModeSocket
	}
	permissions := fileMode.Perm()
	if permissions&ownerExecuteBit != 0 {
		mode |= types.ModeExecutable
	}
	if permissions&otherWriteBit != 0 {
		mode |= types.ModeOtherWritable
	}
	if fileMode&fs.ModeSticky != 0 {
		mode |= types.ModeSticky
	}
	if fileMode&fs.ModeSetgid != 0 {
		mode |= types.ModeSetGID
	}
	if fileMode&fs.ModeSetuid != 0 {
		mode |= types.ModeSetUID
	}
	return mode
}
