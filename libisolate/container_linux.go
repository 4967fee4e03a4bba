// Package libisolate implements a minimal sandbox launcher: it detaches the
// current process into a configured set of kernel namespaces, writes its
// user and group id mappings, builds a private filesystem view, transitions
// into a new root, drops privileges and replaces itself with a target
// command.
package libisolate

import (
	"github.com/simple_isolate/libisolate/configs"
	"github.com/simple_isolate/libisolate/configs/validate"
)

// Container drives the launch pipeline for one validated configuration. A
// Container owns the calling process: Run either replaces the process image
// or fails, it is never reused.
type Container struct {
	config *configs.Config
	sys    Syscalls
}

// Stage markers. Each pipeline stage returns one and the next stage consumes
// it, so the order of privileged operations is fixed by the types: namespace
// detachment before id mapping, id mapping before mounts, mounts before the
// hostname, the hostname before the root transition, the root transition
// before privilege drop and exec.
type (
	unsharedNamespaces struct {
		user bool
		uts  bool
	}
	mappedIdentity      struct{}
	mountedFilesystem   struct{}
	finalizedNamespaces struct{}
	enteredRootfs       struct{}
)

// New validates the configuration and returns a Container for it. Validation
// is purely structural; no privileged operation happens until Run. The
// configuration is not copied and must not be mutated by the caller.
func New(config *configs.Config) (*Container, error) {
	if err := validate.Validate(config); err != nil {
		return nil, err
	}
	return &Container{
		config: config,
		sys:    newLinuxSyscalls(),
	}, nil
}

// Run executes the pipeline and replaces the process image with command. On
// success it never returns. On failure it returns the stage's error and the
// caller is expected to exit: process exit is the cleanup path for any
// namespaces and mounts created before the failure.
func (c *Container) Run(command string, args []string) error {
	ns, err := c.unshareNamespaces()
	if err != nil {
		return err
	}
	id, err := c.writeIDMaps(ns)
	if err != nil {
		return err
	}
	fs, err := c.applyMounts(id)
	if err != nil {
		return err
	}
	fin, err := c.finalizeNamespaces(ns, fs)
	if err != nil {
		return err
	}
	root, err := c.enterRootfs(fin)
	if err != nil {
		return err
	}
	return c.execProcess(root, command, args)
}
