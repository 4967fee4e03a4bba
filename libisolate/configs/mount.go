package configs

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MountOption selects the kind of mount-table change a Mount entry performs.
type MountOption string

const (
	// OptMount creates a new mount of FilesystemType at Target.
	OptMount MountOption = "mount"
	// OptRemount re-applies flags to an existing mount at Target.
	OptRemount MountOption = "remount"
	// OptBind bind-mounts Source onto Target, the single mount point only.
	OptBind MountOption = "bind"
	// OptRecursiveBind bind-mounts Source onto Target including submounts.
	OptRecursiveBind MountOption = "recursive_bind"
	// OptShared, OptPrivate, OptSlave and OptUnbindable change the
	// propagation class of the mount at Target. No new mount is created.
	OptShared     MountOption = "shared"
	OptPrivate    MountOption = "private"
	OptSlave      MountOption = "slave"
	OptUnbindable MountOption = "unbindable"
	// OptRelocate moves the mount currently at Source to Target.
	OptRelocate MountOption = "relocate"
)

// BaseFlags returns the MS_* flags implied by the option itself, before any
// per-entry flags are added. This table is the single source of truth for
// translating the declarative option into mount(2) behavior.
func (o MountOption) BaseFlags() (uintptr, error) {
	switch o {
	case OptMount:
		return 0, nil
	case OptRemount:
		return unix.MS_REMOUNT, nil
	case OptBind:
		return unix.MS_BIND, nil
	case OptRecursiveBind:
		return unix.MS_BIND | unix.MS_REC, nil
	case OptShared:
		return unix.MS_SHARED, nil
	case OptPrivate:
		return unix.MS_PRIVATE, nil
	case OptSlave:
		return unix.MS_SLAVE, nil
	case OptUnbindable:
		return unix.MS_UNBINDABLE, nil
	case OptRelocate:
		return unix.MS_MOVE, nil
	}
	return 0, fmt.Errorf("unknown mount option %q", o)
}

// CreatesMount reports whether the option introduces a mount at Target, as
// opposed to altering one that must already exist.
func (o MountOption) CreatesMount() bool {
	switch o {
	case OptMount, OptBind, OptRecursiveBind, OptRelocate:
		return true
	}
	return false
}

// ChangesPropagation reports whether the option only changes the propagation
// class of an existing mount.
func (o MountOption) ChangesPropagation() bool {
	switch o {
	case OptShared, OptPrivate, OptSlave, OptUnbindable:
		return true
	}
	return false
}

// MountFlag is a named mount(2) flag that can be added to any entry.
type MountFlag string

const (
	FlagBind                   MountFlag = "bind"
	FlagSynchronousDirectories MountFlag = "synchronous_directories"
	FlagMandatoryLock          MountFlag = "mandatory_lock"
	FlagNoAccessTime           MountFlag = "no_access_time"
	FlagNoDevices              MountFlag = "no_devices"
	FlagNoDirectoryAccessTime  MountFlag = "no_directory_access_time"
	FlagNoExecute              MountFlag = "no_execute"
	FlagNoSuid                 MountFlag = "no_suid"
	FlagReadOnly               MountFlag = "read_only"
	FlagRelativeAccessTime     MountFlag = "relative_access_time"
	FlagSilent                 MountFlag = "silent"
	FlagStrictAccessTime       MountFlag = "strict_access_time"
	FlagSynchronous            MountFlag = "synchronous"
)

// MsFlag returns the MS_* value for the named flag.
func (f MountFlag) MsFlag() (uintptr, error) {
	switch f {
	case FlagBind:
		return unix.MS_BIND, nil
	case FlagSynchronousDirectories:
		return unix.MS_DIRSYNC, nil
	case FlagMandatoryLock:
		return unix.MS_MANDLOCK, nil
	case FlagNoAccessTime:
		return unix.MS_NOATIME, nil
	case FlagNoDevices:
		return unix.MS_NODEV, nil
	case FlagNoDirectoryAccessTime:
		return unix.MS_NODIRATIME, nil
	case FlagNoExecute:
		return unix.MS_NOEXEC, nil
	case FlagNoSuid:
		return unix.MS_NOSUID, nil
	case FlagReadOnly:
		return unix.MS_RDONLY, nil
	case FlagRelativeAccessTime:
		return unix.MS_RELATIME, nil
	case FlagSilent:
		return unix.MS_SILENT, nil
	case FlagStrictAccessTime:
		return unix.MS_STRICTATIME, nil
	case FlagSynchronous:
		return unix.MS_SYNCHRONOUS, nil
	}
	return 0, fmt.Errorf("unknown mount flag %q", f)
}

// Mount describes a single mount-table change inside the new mount namespace.
type Mount struct {
	// Option selects the kind of change.
	Option MountOption `json:"option" yaml:"option"`

	// Source is the device, directory or existing mount the change reads
	// from. Unused by Remount and the propagation options.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Target is the mount point the change applies to.
	Target string `json:"target" yaml:"target"`

	// FilesystemType names the filesystem for new mounts, e.g. "tmpfs".
	FilesystemType string `json:"filesystem_type,omitempty" yaml:"filesystem_type,omitempty"`

	// Flags are additional named mount flags, merged with the option's
	// base flags.
	Flags []MountFlag `json:"flags,omitempty" yaml:"flags,omitempty"`

	// MakeTarget creates the target directory before mounting. Honored
	// only by options that create a mount.
	MakeTarget bool `json:"make_target,omitempty" yaml:"make_target,omitempty"`
}

// MsFlags returns the complete MS_* flag word for the entry: the option's
// base flags merged with every named flag.
func (m *Mount) MsFlags() (uintptr, error) {
	flags, err := m.Option.BaseFlags()
	if err != nil {
		return 0, err
	}
	for _, f := range m.Flags {
		ms, err := f.MsFlag()
		if err != nil {
			return 0, err
		}
		flags |= ms
	}
	return flags, nil
}
