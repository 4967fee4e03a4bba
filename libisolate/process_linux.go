package libisolate

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/simple_isolate/libisolate/utils"
)

// execProcess drops to the configured identity and replaces the process
// image with the target command. The group is dropped before the user:
// once the user privilege is gone the group change would be refused. On
// success this never returns; the exec'd command owns the process and every
// namespace it carries.
func (c *Container) execProcess(_ *enteredRootfs, command string, args []string) error {
	if c.config.GID != nil {
		if err := c.sys.Setgid(int(*c.config.GID)); err != nil {
			return &PrivilegeDropError{Op: "setgid", ID: *c.config.GID, Err: err}
		}
	}
	if c.config.UID != nil {
		if err := c.sys.Setuid(int(*c.config.UID)); err != nil {
			return &PrivilegeDropError{Op: "setuid", ID: *c.config.UID, Err: err}
		}
	}

	argv0 := command
	if !strings.Contains(command, "/") {
		resolved, err := utils.SearchExecutable(command, os.Getenv("PATH"))
		if err != nil {
			return &ExecError{Command: command, Err: err}
		}
		argv0 = resolved
	}

	logrus.Debugf("executing %s", argv0)
	argv := append([]string{command}, args...)
	return &ExecError{Command: command, Err: c.sys.Exec(argv0, argv, os.Environ())}
}
