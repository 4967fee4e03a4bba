package validate

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/simple_isolate/libisolate/configs"
)

// Structural configuration errors. Every one of them is raised before any
// privileged operation begins; a configuration that fails validation leaves
// no kernel state behind.
var (
	ErrOverlappingIDRange  = errors.New("overlapping id mapping ranges")
	ErrZeroCountIDRange    = errors.New("id mapping entry with zero count")
	ErrIDRangeOverflow     = errors.New("id mapping range exceeds the maximum id")
	ErrRelativeWorkingDir  = errors.New("relative working directory with chroot")
	ErrMissingRootMapping  = errors.New("no id mapping covers root")
	ErrMissingTargetIDMap  = errors.New("no id mapping covers the target identity")
	ErrEmptyMountTarget    = errors.New("mount entry with empty target")
	ErrMissingMountSource  = errors.New("mount entry with empty source")
	ErrMissingFilesystem   = errors.New("mount entry without a filesystem type")
	ErrHostnameWithoutUTS  = errors.New("hostname set without a private UTS namespace")
	ErrTooManyIDMapEntries = errors.New("too many id mapping entries")
)

// maxIDMapEntries mirrors the kernel's historical limit of five lines per
// map file; staying under it keeps the configuration portable to old kernels.
const maxIDMapEntries = 5

type check func(config *configs.Config) error

// Validate checks the configuration for structural errors. It is a pure
// function of the configuration: no I/O, no kernel calls, same result on
// every invocation.
func Validate(config *configs.Config) error {
	checks := []check{
		namespaces,
		idMaps,
		workingDir,
		rootMapping,
		hostname,
		mounts,
	}
	for _, c := range checks {
		if err := c(config); err != nil {
			return err
		}
	}
	return nil
}

func namespaces(config *configs.Config) error {
	_, err := config.Namespaces.CloneFlags()
	return err
}

// idMaps validates both mapping lists: entry count, non-zero ranges, no
// overflow past the maximum id, and pairwise disjoint inside-ranges.
func idMaps(config *configs.Config) error {
	for _, m := range [][]configs.IDMap{config.UIDMap, config.GIDMap} {
		if len(m) > maxIDMapEntries {
			return fmt.Errorf("%w: %d entries", ErrTooManyIDMapEntries, len(m))
		}
		for i, entry := range m {
			if entry.Count == 0 {
				return fmt.Errorf("%w: entry %d", ErrZeroCountIDRange, i)
			}
			if entry.Inside > math.MaxUint32-(entry.Count-1) ||
				entry.Outside > math.MaxUint32-(entry.Count-1) {
				return fmt.Errorf("%w: entry %d", ErrIDRangeOverflow, i)
			}
			for j, prev := range m[:i] {
				if rangesOverlap(prev.Inside, prev.Count, entry.Inside, entry.Count) {
					return fmt.Errorf("%w: entries %d and %d", ErrOverlappingIDRange, j, i)
				}
			}
		}
	}
	return nil
}

func rangesOverlap(aStart, aCount, bStart, bCount uint32) bool {
	// Compare in uint64: a range may end exactly at the maximum id, where
	// start+count wraps in 32 bits.
	return uint64(aStart) < uint64(bStart)+uint64(bCount) &&
		uint64(bStart) < uint64(aStart)+uint64(aCount)
}

// workingDir enforces that a working directory used together with a chroot is
// absolute: it is resolved inside the new root, where a relative path would
// silently depend on pre-chroot state.
func workingDir(config *configs.Config) error {
	if config.ChrootDir != "" && config.WorkingDir != "" && !filepath.IsAbs(config.WorkingDir) {
		return fmt.Errorf("%w: %q", ErrRelativeWorkingDir, config.WorkingDir)
	}
	return nil
}

// rootMapping requires the id maps to cover the identities the pipeline will
// actually use once the user namespace exists. Without a covering entry the
// later privilege transition fails with an opaque kernel error, so it is
// rejected up front instead.
func rootMapping(config *configs.Config) error {
	if !config.Namespaces.Contains(configs.NEWUSER) {
		return nil
	}
	if config.RequiresRootMapping() && !mapsCover(config.UIDMap, 0) {
		return ErrMissingRootMapping
	}
	// A fresh user namespace maps no ids at all, so a configured target
	// identity needs a covering entry even when the map list is empty:
	// without one the later setuid/setgid is guaranteed to fail.
	if config.UID != nil && !mapsCover(config.UIDMap, *config.UID) {
		return fmt.Errorf("%w: uid %d", ErrMissingTargetIDMap, *config.UID)
	}
	if config.GID != nil && !mapsCover(config.GIDMap, *config.GID) {
		return fmt.Errorf("%w: gid %d", ErrMissingTargetIDMap, *config.GID)
	}
	return nil
}

func mapsCover(m []configs.IDMap, id uint32) bool {
	for _, entry := range m {
		if id >= entry.Inside && id-entry.Inside < entry.Count {
			return true
		}
	}
	return false
}

func hostname(config *configs.Config) error {
	if config.Hostname != "" && !config.Namespaces.Contains(configs.NEWUTS) {
		return ErrHostnameWithoutUTS
	}
	return nil
}

// mounts validates every mount entry: known option and flag names, a target
// path, a source where the option reads one, and a filesystem type for new
// mounts.
func mounts(config *configs.Config) error {
	for i, m := range config.Mounts {
		if m.Target == "" {
			return fmt.Errorf("%w: entry %d", ErrEmptyMountTarget, i)
		}
		if _, err := m.MsFlags(); err != nil {
			return fmt.Errorf("mount entry %d: %w", i, err)
		}
		switch m.Option {
		case configs.OptMount:
			if m.FilesystemType == "" {
				return fmt.Errorf("%w: entry %d", ErrMissingFilesystem, i)
			}
			if m.Source == "" {
				return fmt.Errorf("%w: entry %d", ErrMissingMountSource, i)
			}
		case configs.OptBind, configs.OptRecursiveBind, configs.OptRelocate:
			if m.Source == "" {
				return fmt.Errorf("%w: entry %d", ErrMissingMountSource, i)
			}
		}
	}
	return nil
}
