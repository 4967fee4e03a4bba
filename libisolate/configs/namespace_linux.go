package configs

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type NamespaceType string

const (
	NEWNET    NamespaceType = "net"
	NEWPID    NamespaceType = "pid"
	NEWNS     NamespaceType = "mount"
	NEWUTS    NamespaceType = "uts"
	NEWIPC    NamespaceType = "ipc"
	NEWUSER   NamespaceType = "user"
	NEWCGROUP NamespaceType = "cgroup"
)

// NamespaceTypes returns all namespace kinds the launcher can unshare.
func NamespaceTypes() []NamespaceType {
	return []NamespaceType{
		NEWUSER,
		NEWNS,
		NEWPID,
		NEWUTS,
		NEWIPC,
		NEWNET,
		NEWCGROUP,
	}
}

// IsNamespaceSupported reports whether t names a known namespace kind.
func IsNamespaceSupported(t NamespaceType) bool {
	for _, ns := range NamespaceTypes() {
		if ns == t {
			return true
		}
	}
	return false
}

// CloneFlag returns the CLONE_NEW* flag for the namespace kind, or 0 for an
// unknown kind.
func (t NamespaceType) CloneFlag() int {
	switch t {
	case NEWNET:
		return unix.CLONE_NEWNET
	case NEWPID:
		return unix.CLONE_NEWPID
	case NEWNS:
		return unix.CLONE_NEWNS
	case NEWUTS:
		return unix.CLONE_NEWUTS
	case NEWIPC:
		return unix.CLONE_NEWIPC
	case NEWUSER:
		return unix.CLONE_NEWUSER
	case NEWCGROUP:
		return unix.CLONE_NEWCGROUP
	}
	return 0
}

type Namespaces []NamespaceType

func (n *Namespaces) index(t NamespaceType) int {
	for i, ns := range *n {
		if ns == t {
			return i
		}
	}
	return -1
}

func (n *Namespaces) Contains(t NamespaceType) bool {
	return n.index(t) != -1
}

// CloneFlags returns the union of clone flags for the requested namespaces.
// Duplicate entries collapse; an unknown kind is an error so a bad request
// never silently shrinks the isolation set.
func (n Namespaces) CloneFlags() (int, error) {
	var flags int
	for _, ns := range n {
		flag := ns.CloneFlag()
		if flag == 0 {
			return 0, fmt.Errorf("unknown namespace type %q", ns)
		}
		flags |= flag
	}
	return flags, nil
}
