package libisolate

import (
	"fmt"
	"os"

	"github.com/moby/sys/mountinfo"
	"golang.org/x/sys/unix"
)

// Syscalls is the privileged-operation boundary of the pipeline. Kernel state
// (namespaces, mount table, root, identity) is process-global; every change
// to it goes through this interface so the pipeline's ordering and error
// behavior can be tested with a recording fake, without privileges.
type Syscalls interface {
	// Unshare detaches the calling process from the namespaces selected
	// by the CLONE_NEW* flags, atomically.
	Unshare(flags int) error

	// WriteFile writes data to path in a single write. The id map files
	// under /proc only accept one write for the lifetime of the namespace.
	WriteFile(path string, data []byte) error

	// Mount wraps mount(2).
	Mount(source, target, fstype string, flags uintptr, data string) error

	// Mounted reports whether a mount exists at target.
	Mounted(target string) (bool, error)

	// MkdirAll creates target directories for mounts that request it.
	MkdirAll(path string, perm os.FileMode) error

	// IsDir reports whether path exists and is a directory.
	IsDir(path string) (bool, error)

	// Sethostname sets the hostname of the current UTS namespace.
	Sethostname(name string) error

	// Chroot changes the process root directory.
	Chroot(dir string) error

	// Chdir changes the working directory.
	Chdir(dir string) error

	// Setgid and Setuid change the process identity, all threads.
	Setgid(gid int) error
	Setuid(uid int) error

	// Exec replaces the process image. It only returns on failure.
	Exec(argv0 string, argv, envv []string) error
}

type linuxSyscalls struct{}

func newLinuxSyscalls() Syscalls {
	return &linuxSyscalls{}
}

func (s *linuxSyscalls) Unshare(flags int) error {
	return unix.Unshare(flags)
}

func (s *linuxSyscalls) WriteFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *linuxSyscalls) Mount(source, target, fstype string, flags uintptr, data string) error {
	return unix.Mount(source, target, fstype, flags, data)
}

func (s *linuxSyscalls) Mounted(target string) (bool, error) {
	return mountinfo.Mounted(target)
}

func (s *linuxSyscalls) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (s *linuxSyscalls) IsDir(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if !fi.IsDir() {
		return false, fmt.Errorf("%s is not a directory", path)
	}
	return true, nil
}

func (s *linuxSyscalls) Sethostname(name string) error {
	return unix.Sethostname([]byte(name))
}

func (s *linuxSyscalls) Chroot(dir string) error {
	return unix.Chroot(dir)
}

func (s *linuxSyscalls) Chdir(dir string) error {
	return unix.Chdir(dir)
}

func (s *linuxSyscalls) Setgid(gid int) error {
	return unix.Setgid(gid)
}

func (s *linuxSyscalls) Setuid(uid int) error {
	return unix.Setuid(uid)
}

func (s *linuxSyscalls) Exec(argv0 string, argv, envv []string) error {
	return unix.Exec(argv0, argv, envv)
}
