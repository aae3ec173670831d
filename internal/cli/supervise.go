package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/nehonix-oss/procsupervisor/internal/argbuilder"
	"github.com/nehonix-oss/procsupervisor/internal/config"
	"github.com/nehonix-oss/procsupervisor/internal/configwatch"
	"github.com/nehonix-oss/procsupervisor/internal/supervisor"
	"github.com/nehonix-oss/procsupervisor/internal/supervisorerr"
	"github.com/nehonix-oss/procsupervisor/internal/xlog"
	"github.com/spf13/cobra"
)

func runSupervise(cmd *cobra.Command, args []string) error {
	level, err := xlog.ParseLevel(logLevel)
	if err != nil {
		return supervisorerr.WrapConfigError("--level", err)
	}
	log := xlog.New(level)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Log.File.Path != "" {
		fileLevel, err := xlog.ParseLevel(cfg.Log.File.Level)
		if err != nil {
			return supervisorerr.WrapConfigError("log.file.level", err)
		}
		if err := log.AttachFile(cfg.Log.File.Path, fileLevel, !cfg.Log.File.Append); err != nil {
			return supervisorerr.WrapIoError("attach log file", err)
		}
	}

	attach, err := parseAttach(attachKV)
	if err != nil {
		return err
	}

	if err := argbuilder.ValidateInterpreter(cfg.Project.ScriptWorker.Interpreter); err != nil {
		return err
	}

	bctx, err := argbuilder.Build(cfg, os.Environ(), attach, func(format string, args ...any) {
		log.Warnf(format, args...)
	})
	if err != nil {
		return err
	}

	sup, err := supervisor.New(cfg, bctx, log)
	if err != nil {
		return err
	}

	if watcher, err := configwatch.Watch(configPath, log); err != nil {
		log.Warnf("configwatch: could not watch %s: %v", configPath, err)
	} else {
		defer watcher.Close()
	}

	sup.Run()
	return nil
}

func parseAttach(kvs []string) (map[string]string, error) {
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, supervisorerr.NewConfigError(fmt.Sprintf("--attach %q must be in k=v form", kv))
		}
		out[parts[0]] = parts[1]
	}
	return out, nil
}
