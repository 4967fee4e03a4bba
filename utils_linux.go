package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/opencontainers/runtime-spec/specs-go"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/simple_isolate/libisolate"
	"github.com/simple_isolate/libisolate/configs"
	"github.com/simple_isolate/libisolate/specconv"
)

const (
	defaultConfigFile = "isolate.json"

	// defaultCommand is executed when no command arguments are given.
	defaultCommand = "/bin/sh"
)

// loadConfig reads and decodes the configuration document named by --config,
// either the native schema or an OCI runtime spec with --oci.
func loadConfig(context *cli.Context) (*configs.Config, error) {
	path := context.GlobalString("config")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read configuration %s: %w", path, err)
	}
	if context.GlobalBool("oci") {
		spec := &specs.Spec{}
		if err := json.Unmarshal(data, spec); err != nil {
			return nil, fmt.Errorf("unable to parse OCI spec %s: %w", path, err)
		}
		return specconv.FromOCI(spec)
	}
	return specconv.ParseDocument(data, specconv.FormatForPath(path))
}

func createContainer(context *cli.Context) (*libisolate.Container, error) {
	config, err := loadConfig(context)
	if err != nil {
		return nil, err
	}
	return libisolate.New(config)
}

// startContainer runs the pipeline. It only returns on failure: on success
// the process image has been replaced by the target command.
func startContainer(context *cli.Context) error {
	container, err := createContainer(context)
	if err != nil {
		return err
	}

	command := defaultCommand
	var args []string
	if cliArgs := context.Args(); len(cliArgs) > 0 {
		command = cliArgs[0]
		args = cliArgs[1:]
	}

	logrus.Debugf("launching %s", command)
	return container.Run(command, args)
}

func fatal(err error) {
	// Make sure the error is written to the logger.
	logrus.Error(err)
	if !logrusToStderr() {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}
