// Package specconv converts externally supplied configuration documents into
// the launcher's own configuration type.
package specconv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/opencontainers/runtime-spec/specs-go"
	"gopkg.in/yaml.v3"

	"github.com/simple_isolate/libisolate/configs"
)

// Format identifies the encoding of a configuration document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the document format from the file extension, with JSON
// as the default.
func FormatForPath(path string) Format {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ParseDocument decodes a native configuration document. Unknown fields are
// rejected so a typo in a key never silently weakens the sandbox.
func ParseDocument(data []byte, format Format) (*configs.Config, error) {
	config := &configs.Config{}
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(config); err != nil {
			return nil, fmt.Errorf("unable to parse yaml configuration: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(config); err != nil {
			return nil, fmt.Errorf("unable to parse json configuration: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown configuration format %q", format)
	}
	return config, nil
}

var ociNamespaces = map[specs.LinuxNamespaceType]configs.NamespaceType{
	specs.PIDNamespace:     configs.NEWPID,
	specs.NetworkNamespace: configs.NEWNET,
	specs.MountNamespace:   configs.NEWNS,
	specs.IPCNamespace:     configs.NEWIPC,
	specs.UTSNamespace:     configs.NEWUTS,
	specs.UserNamespace:    configs.NEWUSER,
	specs.CgroupNamespace:  configs.NEWCGROUP,
}

// ociFlagNames maps OCI mount option strings to the launcher's named flags.
var ociFlagNames = map[string]configs.MountFlag{
	"ro":          configs.FlagReadOnly,
	"nosuid":      configs.FlagNoSuid,
	"nodev":       configs.FlagNoDevices,
	"noexec":      configs.FlagNoExecute,
	"noatime":     configs.FlagNoAccessTime,
	"nodiratime":  configs.FlagNoDirectoryAccessTime,
	"relatime":    configs.FlagRelativeAccessTime,
	"strictatime": configs.FlagStrictAccessTime,
	"sync":        configs.FlagSynchronous,
	"dirsync":     configs.FlagSynchronousDirectories,
	"mand":        configs.FlagMandatoryLock,
	"silent":      configs.FlagSilent,
}

// FromOCI maps the subset of an OCI runtime spec this launcher understands
// onto a configuration: namespaces, id mappings, mounts, root, cwd, hostname
// and the target identity. Joining pre-existing namespaces by path is not
// supported.
func FromOCI(spec *specs.Spec) (*configs.Config, error) {
	config := &configs.Config{
		Hostname: spec.Hostname,
	}
	if spec.Root != nil {
		config.ChrootDir = spec.Root.Path
	}
	if spec.Process != nil {
		config.WorkingDir = spec.Process.Cwd
		uid, gid := spec.Process.User.UID, spec.Process.User.GID
		config.UID, config.GID = &uid, &gid
	}
	if spec.Linux != nil {
		for _, ns := range spec.Linux.Namespaces {
			kind, ok := ociNamespaces[ns.Type]
			if !ok {
				return nil, fmt.Errorf("unknown namespace type %q", ns.Type)
			}
			if ns.Path != "" {
				return nil, fmt.Errorf("joining existing namespace %q by path is not supported", ns.Type)
			}
			config.Namespaces = append(config.Namespaces, kind)
		}
		config.UIDMap = fromOCIMappings(spec.Linux.UIDMappings)
		config.GIDMap = fromOCIMappings(spec.Linux.GIDMappings)
	}
	for _, m := range spec.Mounts {
		mount, err := fromOCIMount(m)
		if err != nil {
			return nil, err
		}
		config.Mounts = append(config.Mounts, mount)
	}
	if spec.Root != nil && spec.Root.Readonly {
		// A read-only root is a trailing bind of the root onto itself
		// followed by a read-only remount of that bind. The bind makes
		// the root a mount point in its own right; a bundle root is
		// usually a plain directory that a bare remount would reject.
		config.Mounts = append(config.Mounts,
			configs.Mount{
				Option: configs.OptRecursiveBind,
				Source: spec.Root.Path,
				Target: spec.Root.Path,
			},
			configs.Mount{
				Option: configs.OptRemount,
				Target: spec.Root.Path,
				Flags:  []configs.MountFlag{configs.FlagBind, configs.FlagReadOnly},
			})
	}
	return config, nil
}

func fromOCIMappings(mappings []specs.LinuxIDMapping) []configs.IDMap {
	var out []configs.IDMap
	for _, m := range mappings {
		out = append(out, configs.IDMap{
			Inside:  m.ContainerID,
			Outside: m.HostID,
			Count:   m.Size,
		})
	}
	return out
}

func fromOCIMount(m specs.Mount) (configs.Mount, error) {
	mount := configs.Mount{
		Option:         configs.OptMount,
		Source:         m.Source,
		Target:         m.Destination,
		FilesystemType: m.Type,
	}
	for _, opt := range m.Options {
		switch opt {
		case "bind":
			mount.Option = configs.OptBind
			mount.FilesystemType = ""
		case "rbind":
			mount.Option = configs.OptRecursiveBind
			mount.FilesystemType = ""
		case "remount":
			mount.Option = configs.OptRemount
		case "shared", "private", "slave", "unbindable":
			mount.Option = configs.MountOption(opt)
		default:
			flag, ok := ociFlagNames[opt]
			if !ok {
				return configs.Mount{}, fmt.Errorf("unknown mount option %q for %s", opt, m.Destination)
			}
			mount.Flags = append(mount.Flags, flag)
		}
	}
	return mount, nil
}
