package libisolate

import (
	"fmt"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/sirupsen/logrus"

	"github.com/simple_isolate/libisolate/configs"
	"github.com/simple_isolate/libisolate/utils"
)

// applyMounts realizes the ordered mount list inside the new mount
// namespace. Entries execute strictly in declared order: a remount must
// follow the mount that created its target, a propagation change must follow
// the bind it adjusts. The first failure aborts the pipeline; nothing is
// rolled back because the failing process exits and takes the mount
// namespace with it.
func (c *Container) applyMounts(_ *mappedIdentity) (*mountedFilesystem, error) {
	for i := range c.config.Mounts {
		if err := c.mountEntry(i, &c.config.Mounts[i]); err != nil {
			return nil, err
		}
	}
	return &mountedFilesystem{}, nil
}

func (c *Container) mountEntry(index int, m *configs.Mount) error {
	flags, err := m.MsFlags()
	if err != nil {
		// Unreachable after validation, kept as a guard.
		return &MountError{Index: index, Target: m.Target, Err: err}
	}

	// Remount and propagation changes alter an existing mount at the
	// target, and a relocation moves an existing mount at the source;
	// failing early on an unmounted path turns the kernel's bare EINVAL
	// into a diagnosable error.
	if m.Option == configs.OptRemount || m.Option.ChangesPropagation() {
		mounted, err := c.sys.Mounted(m.Target)
		if err != nil {
			return &MountError{Index: index, Target: m.Target, Err: err}
		}
		if !mounted {
			return &MountError{Index: index, Target: m.Target, Err: ErrNotMounted}
		}
	}
	if m.Option == configs.OptRelocate {
		mounted, err := c.sys.Mounted(m.Source)
		if err != nil {
			return &MountError{Index: index, Target: m.Target, Err: err}
		}
		if !mounted {
			return &MountError{Index: index, Target: m.Target, Err: fmt.Errorf("source %s: %w", m.Source, ErrNotMounted)}
		}
	}

	if m.MakeTarget && m.Option.CreatesMount() {
		if err := c.sys.MkdirAll(m.Target, 0o755); err != nil {
			return &MountError{Index: index, Target: m.Target, Err: err}
		}
	}

	source, fstype := "", ""
	switch m.Option {
	case configs.OptMount:
		source, fstype = m.Source, m.FilesystemType
	case configs.OptBind, configs.OptRecursiveBind, configs.OptRelocate:
		source = m.Source
	}

	logrus.Debugf("mount entry %d: %s %s -> %s", index, m.Option, source, m.Target)
	if err := c.sys.Mount(source, m.Target, fstype, flags, ""); err != nil {
		return &MountError{Index: index, Target: m.Target, Err: err}
	}
	return nil
}

// enterRootfs switches the process into the configured root and working
// directory. The chroot happens first and the working directory is resolved
// afterwards, inside the new root, so an absolute working directory can
// never reference the pre-chroot filesystem. The chroot directory is checked
// here, not at validation time, to keep the window between check and use as
// small as possible.
func (c *Container) enterRootfs(_ *finalizedNamespaces) (*enteredRootfs, error) {
	workingDir := utils.CleanPath(c.config.WorkingDir)

	if c.config.ChrootDir != "" {
		root := utils.CleanPath(c.config.ChrootDir)
		if _, err := c.sys.IsDir(root); err != nil {
			return nil, &ChrootError{Dir: root, Err: err}
		}
		if workingDir != "" {
			// Resolve the working directory against the new root
			// without following symlinks out of it, so a bad
			// configuration surfaces before the root switch.
			inside, err := securejoin.SecureJoin(root, workingDir)
			if err != nil {
				return nil, &ChdirError{Dir: workingDir, Err: err}
			}
			if _, err := c.sys.IsDir(inside); err != nil {
				return nil, &ChdirError{Dir: workingDir, Err: err}
			}
		}
		logrus.Debugf("entering chroot %s", root)
		if err := c.sys.Chroot(root); err != nil {
			return nil, &ChrootError{Dir: root, Err: err}
		}
		if err := c.sys.Chdir("/"); err != nil {
			return nil, &ChdirError{Dir: "/", Err: err}
		}
	}

	if workingDir != "" {
		if err := c.sys.Chdir(workingDir); err != nil {
			return nil, &ChdirError{Dir: workingDir, Err: err}
		}
	}
	return &enteredRootfs{}, nil
}
