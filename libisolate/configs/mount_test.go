package configs

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestMountOptionBaseFlags(t *testing.T) {
	tests := []struct {
		option             MountOption
		flags              uintptr
		createsMount       bool
		changesPropagation bool
	}{
		{OptMount, 0, true, false},
		{OptRemount, unix.MS_REMOUNT, false, false},
		{OptBind, unix.MS_BIND, true, false},
		{OptRecursiveBind, unix.MS_BIND | unix.MS_REC, true, false},
		{OptShared, unix.MS_SHARED, false, true},
		{OptPrivate, unix.MS_PRIVATE, false, true},
		{OptSlave, unix.MS_SLAVE, false, true},
		{OptUnbindable, unix.MS_UNBINDABLE, false, true},
		{OptRelocate, unix.MS_MOVE, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.option), func(t *testing.T) {
			flags, err := tt.option.BaseFlags()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if flags != tt.flags {
				t.Errorf("base flags: got %#x, want %#x", flags, tt.flags)
			}
			if got := tt.option.CreatesMount(); got != tt.createsMount {
				t.Errorf("CreatesMount: got %v, want %v", got, tt.createsMount)
			}
			if got := tt.option.ChangesPropagation(); got != tt.changesPropagation {
				t.Errorf("ChangesPropagation: got %v, want %v", got, tt.changesPropagation)
			}
		})
	}

	if _, err := MountOption("sideways").BaseFlags(); err == nil {
		t.Error("expected an error for an unknown option")
	}
}

func TestMountFlagMapping(t *testing.T) {
	tests := []struct {
		flag MountFlag
		ms   uintptr
	}{
		{FlagBind, unix.MS_BIND},
		{FlagSynchronousDirectories, unix.MS_DIRSYNC},
		{FlagMandatoryLock, unix.MS_MANDLOCK},
		{FlagNoAccessTime, unix.MS_NOATIME},
		{FlagNoDevices, unix.MS_NODEV},
		{FlagNoDirectoryAccessTime, unix.MS_NODIRATIME},
		{FlagNoExecute, unix.MS_NOEXEC},
		{FlagNoSuid, unix.MS_NOSUID},
		{FlagReadOnly, unix.MS_RDONLY},
		{FlagRelativeAccessTime, unix.MS_RELATIME},
		{FlagSilent, unix.MS_SILENT},
		{FlagStrictAccessTime, unix.MS_STRICTATIME},
		{FlagSynchronous, unix.MS_SYNCHRONOUS},
	}

	for _, tt := range tests {
		t.Run(string(tt.flag), func(t *testing.T) {
			ms, err := tt.flag.MsFlag()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ms != tt.ms {
				t.Errorf("got %#x, want %#x", ms, tt.ms)
			}
		})
	}

	if _, err := MountFlag("read_mostly").MsFlag(); err == nil {
		t.Error("expected an error for an unknown flag")
	}
}

func TestMountMsFlagsMergesBaseAndNamed(t *testing.T) {
	m := &Mount{
		Option: OptRemount,
		Target: "/new",
		Flags:  []MountFlag{FlagBind, FlagReadOnly},
	}
	flags, err := m.MsFlags()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := uintptr(unix.MS_REMOUNT | unix.MS_BIND | unix.MS_RDONLY)
	if flags != want {
		t.Errorf("got %#x, want %#x", flags, want)
	}
}

func TestNamespacesCloneFlags(t *testing.T) {
	ns := Namespaces{NEWUSER, NEWNS, NEWNS, NEWPID}
	flags, err := ns.CloneFlags()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := unix.CLONE_NEWUSER | unix.CLONE_NEWNS | unix.CLONE_NEWPID
	if flags != want {
		t.Errorf("got %#x, want %#x", flags, want)
	}

	if _, err := (Namespaces{"time"}).CloneFlags(); err == nil {
		t.Error("expected an error for an unknown namespace kind")
	}
}

func TestRequiresRootMapping(t *testing.T) {
	zero, nonzero := uint32(0), uint32(1000)
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{"empty", Config{}, false},
		{"mounts", Config{Mounts: []Mount{{Option: OptBind, Source: "/a", Target: "/b"}}}, true},
		{"hostname", Config{Hostname: "sandbox"}, true},
		{"root uid", Config{UID: &zero}, true},
		{"root gid", Config{GID: &zero}, true},
		{"unprivileged uid", Config{UID: &nonzero}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.RequiresRootMapping(); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}
