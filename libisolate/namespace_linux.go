package libisolate

import (
	"github.com/sirupsen/logrus"

	"github.com/simple_isolate/libisolate/configs"
)

// unshareNamespaces detaches the process from every requested namespace with
// a single unshare call. A single call keeps the detachment atomic: when the
// user namespace is requested it is never entered after a namespace whose
// setup depends on the capability set the user namespace grants. The mount
// namespace is detached here, before the first mount operation, so mount
// changes never reach the host; the pid namespace is detached before exec so
// children of the target command land in it.
func (c *Container) unshareNamespaces() (*unsharedNamespaces, error) {
	state := &unsharedNamespaces{
		user: c.config.Namespaces.Contains(configs.NEWUSER),
		uts:  c.config.Namespaces.Contains(configs.NEWUTS),
	}
	flags, err := c.config.Namespaces.CloneFlags()
	if err != nil {
		// Unreachable after validation, kept as a guard.
		return nil, &NamespaceError{Kinds: c.config.Namespaces, Err: err}
	}
	if flags == 0 {
		return state, nil
	}
	logrus.Debugf("unsharing namespaces %v", c.config.Namespaces)
	if err := c.sys.Unshare(flags); err != nil {
		return nil, &NamespaceError{Kinds: c.config.Namespaces, Err: err}
	}
	return state, nil
}

// finalizeNamespaces restores the minimum state the new namespaces need once
// mounts are in place: for the UTS namespace, the configured hostname. The
// change is scoped to the new namespace, never the host's.
func (c *Container) finalizeNamespaces(ns *unsharedNamespaces, _ *mountedFilesystem) (*finalizedNamespaces, error) {
	if ns.uts && c.config.Hostname != "" {
		logrus.Debugf("setting hostname to %q", c.config.Hostname)
		if err := c.sys.Sethostname(c.config.Hostname); err != nil {
			return nil, &NamespaceError{Kinds: configs.Namespaces{configs.NEWUTS}, Err: err}
		}
	}
	return &finalizedNamespaces{}, nil
}
