package libisolate

import (
	"errors"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/simple_isolate/libisolate/configs"
)

const (
	procUIDMap    = "/proc/self/uid_map"
	procGIDMap    = "/proc/self/gid_map"
	procSetgroups = "/proc/self/setgroups"
)

// writeIDMaps commits the configured uid and gid mappings to the newly
// unshared user namespace. The kernel accepts exactly one write per map
// file, from the process that created the namespace, so each list is
// formatted as one ordered write. Once written, the mapping governs the
// process's identity for the lifetime of the namespace.
func (c *Container) writeIDMaps(ns *unsharedNamespaces) (*mappedIdentity, error) {
	if !ns.user {
		if len(c.config.UIDMap) > 0 || len(c.config.GIDMap) > 0 {
			logrus.Debug("no user namespace requested, skipping id maps")
		}
		return &mappedIdentity{}, nil
	}
	if len(c.config.UIDMap) > 0 {
		if err := c.sys.WriteFile(procUIDMap, formatIDMap(c.config.UIDMap)); err != nil {
			return nil, &IDMapError{File: procUIDMap, Entries: c.config.UIDMap, Err: err}
		}
	}
	if len(c.config.GIDMap) > 0 {
		// Denying setgroups is a kernel precondition for writing gid_map
		// without CAP_SETGID in the parent namespace. Kernels predating
		// the setgroups file don't require it.
		if err := c.sys.WriteFile(procSetgroups, []byte("deny")); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, &IDMapError{File: procSetgroups, Entries: c.config.GIDMap, Err: err}
		}
		if err := c.sys.WriteFile(procGIDMap, formatIDMap(c.config.GIDMap)); err != nil {
			return nil, &IDMapError{File: procGIDMap, Entries: c.config.GIDMap, Err: err}
		}
	}
	return &mappedIdentity{}, nil
}

// formatIDMap renders mapping entries in the "inside outside count" line
// format the kernel expects, preserving declared order.
func formatIDMap(entries []configs.IDMap) []byte {
	var data []byte
	for _, e := range entries {
		data = strconv.AppendUint(data, uint64(e.Inside), 10)
		data = append(data, ' ')
		data = strconv.AppendUint(data, uint64(e.Outside), 10)
		data = append(data, ' ')
		data = strconv.AppendUint(data, uint64(e.Count), 10)
		data = append(data, '\n')
	}
	return data
}
