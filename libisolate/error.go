package libisolate

import (
	"errors"
	"fmt"

	"github.com/simple_isolate/libisolate/configs"
)

// ErrNotMounted is reported when a remount or propagation change targets a
// path with no mount on it.
var ErrNotMounted = errors.New("nothing is mounted at the target")

// NamespaceError reports a failed namespace detachment. The detachment is
// requested as one atomic operation, so the error carries the whole set.
type NamespaceError struct {
	Kinds configs.Namespaces
	Err   error
}

func (e *NamespaceError) Error() string {
	return fmt.Sprintf("unable to unshare namespaces %v: %v", e.Kinds, e.Err)
}

func (e *NamespaceError) Unwrap() error { return e.Err }

// IDMapError reports a mapping rejected by the kernel at write time.
type IDMapError struct {
	File    string
	Entries []configs.IDMap
	Err     error
}

func (e *IDMapError) Error() string {
	return fmt.Sprintf("unable to write id map %s (%d entries): %v", e.File, len(e.Entries), e.Err)
}

func (e *IDMapError) Unwrap() error { return e.Err }

// MountError reports the failing entry of the ordered mount list. Earlier
// successful mounts are not rolled back: the process exits on error and the
// kernel tears the mount namespace down with it.
type MountError struct {
	Index  int
	Target string
	Err    error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("mount entry %d (target %s): %v", e.Index, e.Target, e.Err)
}

func (e *MountError) Unwrap() error { return e.Err }

// ChrootError reports a failed root transition.
type ChrootError struct {
	Dir string
	Err error
}

func (e *ChrootError) Error() string {
	return fmt.Sprintf("unable to enter chroot %s: %v", e.Dir, e.Err)
}

func (e *ChrootError) Unwrap() error { return e.Err }

// ChdirError reports a failed working directory change.
type ChdirError struct {
	Dir string
	Err error
}

func (e *ChdirError) Error() string {
	return fmt.Sprintf("unable to enter working directory %s: %v", e.Dir, e.Err)
}

func (e *ChdirError) Unwrap() error { return e.Err }

// PrivilegeDropError reports a failed identity change before exec.
type PrivilegeDropError struct {
	Op  string
	ID  uint32
	Err error
}

func (e *PrivilegeDropError) Error() string {
	return fmt.Sprintf("unable to %s %d: %v", e.Op, e.ID, e.Err)
}

func (e *PrivilegeDropError) Unwrap() error { return e.Err }

// ExecError reports a failed process image replacement. It is the only error
// the terminal stage can produce; on success exec does not return.
type ExecError struct {
	Command string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("unable to exec %s: %v", e.Command, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
