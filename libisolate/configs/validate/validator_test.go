package validate

import (
	"errors"
	"math"
	"testing"

	"github.com/simple_isolate/libisolate/configs"
)

func uint32ptr(v uint32) *uint32 { return &v }

func TestValidateIDMaps(t *testing.T) {
	tests := []struct {
		name     string
		uidMap   []configs.IDMap
		expected error
	}{
		{
			name: "disjoint ranges",
			uidMap: []configs.IDMap{
				{Inside: 0, Outside: 100000, Count: 1000},
				{Inside: 1000, Outside: 200000, Count: 1000},
			},
			expected: nil,
		},
		{
			name: "same inside id twice",
			uidMap: []configs.IDMap{
				{Inside: 0, Outside: 100000, Count: 1},
				{Inside: 0, Outside: 200000, Count: 1},
			},
			expected: ErrOverlappingIDRange,
		},
		{
			name: "partial overlap",
			uidMap: []configs.IDMap{
				{Inside: 0, Outside: 100000, Count: 1000},
				{Inside: 999, Outside: 200000, Count: 10},
			},
			expected: ErrOverlappingIDRange,
		},
		{
			name: "zero count",
			uidMap: []configs.IDMap{
				{Inside: 0, Outside: 100000, Count: 0},
			},
			expected: ErrZeroCountIDRange,
		},
		{
			name: "range past the maximum id",
			uidMap: []configs.IDMap{
				{Inside: math.MaxUint32 - 10, Outside: 0, Count: 100},
			},
			expected: ErrIDRangeOverflow,
		},
		{
			name: "range ending exactly at the maximum id",
			uidMap: []configs.IDMap{
				{Inside: math.MaxUint32 - 99, Outside: 0, Count: 100},
			},
			expected: nil,
		},
		{
			// The first range ends exactly at the maximum id, where
			// start+count wraps a 32-bit overlap comparison to zero.
			name: "overlap inside a range ending at the maximum id",
			uidMap: []configs.IDMap{
				{Inside: math.MaxUint32 - 99, Outside: 0, Count: 100},
				{Inside: math.MaxUint32 - 50, Outside: 200000, Count: 1},
			},
			expected: ErrOverlappingIDRange,
		},
		{
			name: "too many entries",
			uidMap: []configs.IDMap{
				{Inside: 0, Outside: 0, Count: 1},
				{Inside: 1, Outside: 1, Count: 1},
				{Inside: 2, Outside: 2, Count: 1},
				{Inside: 3, Outside: 3, Count: 1},
				{Inside: 4, Outside: 4, Count: 1},
				{Inside: 5, Outside: 5, Count: 1},
			},
			expected: ErrTooManyIDMapEntries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &configs.Config{
				Namespaces: configs.Namespaces{configs.NEWUSER},
				UIDMap:     tt.uidMap,
			}
			err := Validate(config)
			if !errors.Is(err, tt.expected) {
				t.Errorf("got %v, want %v", err, tt.expected)
			}
		})
	}
}

func TestValidateWorkingDir(t *testing.T) {
	tests := []struct {
		name       string
		chrootDir  string
		workingDir string
		expected   error
	}{
		{
			name:       "absolute working dir with chroot",
			chrootDir:  "/srv/rootfs",
			workingDir: "/work",
			expected:   nil,
		},
		{
			name:       "relative working dir with chroot",
			chrootDir:  "/srv/rootfs",
			workingDir: "work",
			expected:   ErrRelativeWorkingDir,
		},
		{
			name:       "relative working dir without chroot",
			workingDir: "work",
			expected:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &configs.Config{
				ChrootDir:  tt.chrootDir,
				WorkingDir: tt.workingDir,
			}
			err := Validate(config)
			if !errors.Is(err, tt.expected) {
				t.Errorf("got %v, want %v", err, tt.expected)
			}
		})
	}
}

func TestValidateRootMapping(t *testing.T) {
	t.Run("mounts without a root mapping", func(t *testing.T) {
		config := &configs.Config{
			Namespaces: configs.Namespaces{configs.NEWUSER, configs.NEWNS},
			Mounts: []configs.Mount{
				{Option: configs.OptMount, Source: "tmpfs", Target: "/new", FilesystemType: "tmpfs"},
			},
		}
		if err := Validate(config); !errors.Is(err, ErrMissingRootMapping) {
			t.Errorf("got %v, want %v", err, ErrMissingRootMapping)
		}
	})

	t.Run("inside-root target uid with a covering map", func(t *testing.T) {
		config := &configs.Config{
			Namespaces: configs.Namespaces{configs.NEWUSER},
			UIDMap:     []configs.IDMap{{Inside: 0, Outside: 1000, Count: 1}},
			UID:        uint32ptr(0),
		}
		if err := Validate(config); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("target uid with no mappings at all", func(t *testing.T) {
		// A fresh user namespace maps nothing, so setuid(5) can only
		// fail later; the empty map list must not pass validation.
		config := &configs.Config{
			Namespaces: configs.Namespaces{configs.NEWUSER},
			UID:        uint32ptr(5),
		}
		if err := Validate(config); !errors.Is(err, ErrMissingTargetIDMap) {
			t.Errorf("got %v, want %v", err, ErrMissingTargetIDMap)
		}
	})

	t.Run("target uid outside every mapping", func(t *testing.T) {
		config := &configs.Config{
			Namespaces: configs.Namespaces{configs.NEWUSER},
			UIDMap:     []configs.IDMap{{Inside: 0, Outside: 100000, Count: 10}},
			UID:        uint32ptr(500),
		}
		if err := Validate(config); !errors.Is(err, ErrMissingTargetIDMap) {
			t.Errorf("got %v, want %v", err, ErrMissingTargetIDMap)
		}
	})

	t.Run("no user namespace requested", func(t *testing.T) {
		config := &configs.Config{
			Namespaces: configs.Namespaces{configs.NEWNS},
			Mounts: []configs.Mount{
				{Option: configs.OptMount, Source: "tmpfs", Target: "/new", FilesystemType: "tmpfs"},
			},
		}
		if err := Validate(config); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestValidateHostname(t *testing.T) {
	config := &configs.Config{Hostname: "sandbox"}
	if err := Validate(config); !errors.Is(err, ErrHostnameWithoutUTS) {
		t.Errorf("got %v, want %v", err, ErrHostnameWithoutUTS)
	}
	config.Namespaces = configs.Namespaces{configs.NEWUTS}
	if err := Validate(config); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateMounts(t *testing.T) {
	tests := []struct {
		name     string
		mount    configs.Mount
		expected error
	}{
		{
			name:     "empty target",
			mount:    configs.Mount{Option: configs.OptMount, Source: "tmpfs", FilesystemType: "tmpfs"},
			expected: ErrEmptyMountTarget,
		},
		{
			name:     "new mount without filesystem type",
			mount:    configs.Mount{Option: configs.OptMount, Source: "tmpfs", Target: "/new"},
			expected: ErrMissingFilesystem,
		},
		{
			name:     "bind without source",
			mount:    configs.Mount{Option: configs.OptBind, Target: "/new"},
			expected: ErrMissingMountSource,
		},
		{
			name:     "relocate without source",
			mount:    configs.Mount{Option: configs.OptRelocate, Target: "/new"},
			expected: ErrMissingMountSource,
		},
		{
			name:     "remount needs no source",
			mount:    configs.Mount{Option: configs.OptRemount, Target: "/new"},
			expected: nil,
		},
		{
			name:     "propagation change needs no source",
			mount:    configs.Mount{Option: configs.OptPrivate, Target: "/new"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &configs.Config{Mounts: []configs.Mount{tt.mount}}
			err := Validate(config)
			if !errors.Is(err, tt.expected) {
				t.Errorf("got %v, want %v", err, tt.expected)
			}
		})
	}

	t.Run("unknown option name", func(t *testing.T) {
		config := &configs.Config{
			Mounts: []configs.Mount{{Option: "sideways", Target: "/new"}},
		}
		if err := Validate(config); err == nil {
			t.Error("expected an error for the unknown option")
		}
	})

	t.Run("unknown flag name", func(t *testing.T) {
		config := &configs.Config{
			Mounts: []configs.Mount{{
				Option: configs.OptRemount,
				Target: "/new",
				Flags:  []configs.MountFlag{"read_mostly"},
			}},
		}
		if err := Validate(config); err == nil {
			t.Error("expected an error for the unknown flag")
		}
	})
}

func TestValidateUnknownNamespace(t *testing.T) {
	config := &configs.Config{
		Namespaces: configs.Namespaces{"time"},
	}
	if err := Validate(config); err == nil {
		t.Error("expected an error for the unknown namespace")
	}
}

// Validate is a pure function: repeated runs on the same configuration give
// the same result and leave the configuration untouched.
func TestValidateIdempotent(t *testing.T) {
	config := &configs.Config{
		Namespaces: configs.Namespaces{configs.NEWUSER, configs.NEWNS, configs.NEWUTS},
		Hostname:   "sandbox",
		ChrootDir:  "/srv/rootfs",
		WorkingDir: "/work",
		UID:        uint32ptr(0),
		GID:        uint32ptr(0),
		UIDMap:     []configs.IDMap{{Inside: 0, Outside: 100000, Count: 65536}},
		GIDMap:     []configs.IDMap{{Inside: 0, Outside: 100000, Count: 65536}},
		Mounts: []configs.Mount{
			{Option: configs.OptMount, Source: "proc", Target: "/srv/rootfs/proc", FilesystemType: "proc"},
			{Option: configs.OptRemount, Target: "/srv/rootfs/proc", Flags: []configs.MountFlag{configs.FlagReadOnly}},
		},
	}
	for i := 0; i < 3; i++ {
		if err := Validate(config); err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
	}
}
