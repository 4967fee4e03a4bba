package configs

// IDMap maps a contiguous range of ids inside the user namespace to a range
// of ids outside it. Entries are applied to the kernel in declared order.
type IDMap struct {
	// Inside is the first id of the range as seen inside the namespace.
	Inside uint32 `json:"inside" yaml:"inside"`

	// Outside is the first id of the range as seen by the host.
	Outside uint32 `json:"outside" yaml:"outside"`

	// Count is the number of consecutive ids the entry covers.
	Count uint32 `json:"count" yaml:"count"`
}

// Config defines configuration options for executing a process inside an
// isolated environment. It is produced once by the external loader and is
// never mutated by the pipeline.
type Config struct {
	// Namespaces specifies the namespaces the process should be detached
	// into before anything else runs. Duplicate entries collapse into a
	// single unshare request.
	Namespaces Namespaces `json:"namespaces" yaml:"namespaces"`

	// ChrootDir optionally holds the directory that becomes the process
	// root after the mount phase. It must exist and be a directory by the
	// time the transition runs.
	ChrootDir string `json:"chroot_dir,omitempty" yaml:"chroot_dir,omitempty"`

	// WorkingDir optionally holds the working directory for the target
	// command. With ChrootDir set it must be absolute and is resolved
	// inside the new root.
	WorkingDir string `json:"working_dir,omitempty" yaml:"working_dir,omitempty"`

	// Hostname optionally sets the hostname, scoped to the new UTS
	// namespace. Requires uts in Namespaces.
	Hostname string `json:"hostname,omitempty" yaml:"hostname,omitempty"`

	// UID and GID are the inside-namespace identity the target command
	// runs as. Nil means the current identity is kept.
	UID *uint32 `json:"uid,omitempty" yaml:"uid,omitempty"`
	GID *uint32 `json:"gid,omitempty" yaml:"gid,omitempty"`

	// UIDMap and GIDMap are the ordered id mappings written for a newly
	// unshared user namespace. Inside-ranges must not overlap.
	UIDMap []IDMap `json:"uid_map,omitempty" yaml:"uid_map,omitempty"`
	GIDMap []IDMap `json:"gid_map,omitempty" yaml:"gid_map,omitempty"`

	// Mounts is the ordered list of mount operations performed inside the
	// new mount namespace. Order is significant: later entries may depend
	// on mounts created by earlier ones.
	Mounts []Mount `json:"mount,omitempty" yaml:"mount,omitempty"`
}

// RequiresRootMapping reports whether the configuration uses features that
// need a root identity mapped inside a new user namespace: mounting, setting
// the hostname, or running the command as inside-root.
func (c *Config) RequiresRootMapping() bool {
	if len(c.Mounts) > 0 || c.Hostname != "" {
		return true
	}
	if c.UID != nil && *c.UID == 0 {
		return true
	}
	if c.GID != nil && *c.GID == 0 {
		return true
	}
	return false
}
