// Package argbuilder implements Component D: it resolves variables from
// files, the process environment, and config aliases, validates them
// against the project's argument specs, and splits the result into argv
// and envp for the Binary Worker. Grounded on
// original_source/src/binary/args_builder.rs for step ordering and
// original_source/src/config/args.rs for the user.dir/user.home/app.dir
// seed variables.
package argbuilder

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nehonix-oss/procsupervisor/internal/config"
	"github.com/nehonix-oss/procsupervisor/internal/supervisorerr"
	"github.com/nehonix-oss/procsupervisor/internal/template"
	"github.com/nehonix-oss/procsupervisor/internal/varsource"
)

// BinaryContext is Component D's output, consumed by the Binary Worker.
type BinaryContext struct {
	Argv       []string
	Envp       map[string]string
	ScriptVars map[string]string
}

// Warner receives non-fatal diagnostics (unresolved config_alias, skipped
// argument expr, unsupported variable source) produced while building.
type Warner func(format string, args ...any)

// Build runs spec.md §4.D steps 1-10 against cfg. processEnviron is the
// parent's environment in os.Environ() form; cliAttach is the CLI's
// -a/--attach overrides, applied over cfg.Attach in step 1.
func Build(cfg *config.ProjectConfig, processEnviron []string, cliAttach map[string]string, warn Warner) (*BinaryContext, error) {
	// Step 1 (plus the original's user.dir/user.home/app.dir seed vars,
	// applied before config.attach so attach can still override them).
	attach := seedAttach()
	for k, v := range cfg.Attach {
		attach[k] = v
	}
	for k, v := range cliAttach {
		attach[k] = v
	}

	attrs := make(map[string]string, len(attach))
	for k, v := range attach {
		attrs["{{"+k+"}}"] = v
	}

	// Step 2: load path sources, first-write-wins.
	vars := varsource.Vars{}
	varsource.LoadPath(cfg.Path, vars, warn)

	// Step 3: var.K copies of every file-origin key. Snapshot the keys
	// first: inserting into vars while ranging over it would make the Go
	// runtime's iteration-during-mutation behavior (new entries may or may
	// not be produced) decide how many "var.var.K" keys leak in.
	fileKeys := make([]string, 0, len(vars))
	for k := range vars {
		fileKeys = append(fileKeys, k)
	}
	for _, k := range fileKeys {
		vars.InsertIfAbsent("var."+k, vars[k])
	}

	// Step 4: process environment overlays file contents (env wins on the
	// raw key).
	for _, kv := range processEnviron {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		vars[parts[0]] = parts[1]
	}

	// Step 5: env.K copies.
	for _, kv := range processEnviron {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		vars.InsertIfAbsent("env."+parts[0], parts[1])
	}

	// The attach map (seeds, config attach, CLI attach) is the base layer of
	// the variable map: config_alias and argument exprs can reference its
	// keys wherever no file or environment variable of the same name exists.
	for k, v := range attach {
		vars.InsertIfAbsent(k, v)
	}

	// Step 6: config_alias rules.
	for _, alias := range cfg.ConfigAlias {
		resolveAlias(alias, varsource.Vars(vars), warn)
	}

	// Step 7: replace attrs tokens inside every vars value.
	for k, v := range vars {
		vars[k] = template.ReplaceAllLiteral(v, attrs)
	}

	// Step 8-9: validate and split argument specs. The child's envp starts
	// as a copy of the full parent environment (spec.md §6 "Entire parent
	// environment is propagated ... into the child's envp by default");
	// ENV-mode args below override individual entries.
	ctx := &BinaryContext{Envp: map[string]string{}}
	for _, kv := range processEnviron {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		ctx.Envp[parts[0]] = parts[1]
	}
	var resolvedArgs []resolvedArg
	for _, spec := range cfg.Args {
		arg, ok, err := resolveArg(spec, template.Vars(vars), warn)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		applyArg(ctx, arg)
		resolvedArgs = append(resolvedArgs, arg)
	}

	// Step 10: script_vars — every {{k}}→v for attach, the variable map,
	// the final envp, and every accepted arg (so a hook/probe/started
	// script can reference an ARG/BOOL/MERGE-mode arg's value, not just
	// ENV-mode ones already present via envp).
	ctx.ScriptVars = make(map[string]string, len(vars)+len(attach)+len(resolvedArgs))
	for k, v := range attach {
		ctx.ScriptVars["{{"+k+"}}"] = v
	}
	for k, v := range vars {
		ctx.ScriptVars["{{"+k+"}}"] = v
	}
	for k, v := range ctx.Envp {
		ctx.ScriptVars["{{"+k+"}}"] = v
	}
	for _, arg := range resolvedArgs {
		ctx.ScriptVars["{{"+arg.key+"}}"] = arg.value
	}

	return ctx, nil
}

func seedAttach() map[string]string {
	seed := map[string]string{}
	if wd, err := os.Getwd(); err == nil {
		seed["user.dir"] = wd
	}
	if home, err := os.UserHomeDir(); err == nil {
		seed["user.home"] = home
	}
	if exe, err := os.Executable(); err == nil {
		seed["app.dir"] = filepath.Dir(exe)
	}
	return seed
}

func resolveAlias(alias config.ConfigAlias, vars template.Vars, warn Warner) {
	if _, exists := vars[alias.Key]; exists && !alias.Over {
		return
	}
	for _, expr := range alias.Expr {
		val, ok := template.Expand(expr, vars)
		if !ok {
			continue
		}
		vars[alias.Key] = val
		return
	}
	warn("config_alias %q: no expr resolved", alias.Key)
}

type resolvedArg struct {
	key   string
	value string
	mode  string
}

func resolveArg(spec config.ArgumentSpec, vars template.Vars, warn Warner) (resolvedArg, bool, error) {
	var re *regexp.Regexp
	if strings.TrimSpace(spec.ValidRegex) != "" {
		var err error
		re, err = regexp.Compile(spec.ValidRegex)
		if err != nil {
			return resolvedArg{}, false, supervisorerr.WrapConfigError("arg "+spec.Key+" valid_regex", err)
		}
	}

	for _, expr := range spec.Expr {
		val, ok := template.Expand(expr, vars)
		if !ok {
			warn("arg %q: expr %q has an unresolved placeholder, skipping", spec.Key, expr)
			continue
		}
		if re != nil && !re.MatchString(val) {
			msgVars := template.Vars{"message.key": spec.Key, "message.value": val}
			msg, _ := template.Expand(spec.ValidMessage, msgVars)
			warn("arg %q: value %q failed validation: %s", spec.Key, val, msg)
			continue
		}
		mode := spec.Mode
		if mode == "" {
			mode = "ARG"
		}
		return resolvedArg{key: spec.Key, value: val, mode: mode}, true, nil
	}

	if spec.Must {
		return resolvedArg{}, false, supervisorerr.NewConfigError(
			fmt.Sprintf("required argument %q could not be resolved", spec.Key))
	}
	return resolvedArg{}, false, nil
}

func applyArg(ctx *BinaryContext, arg resolvedArg) {
	switch arg.mode {
	case "ENV":
		ctx.Envp[arg.key] = arg.value
	case "BOOL":
		ctx.Argv = append(ctx.Argv, arg.key)
	case "MERGE":
		ctx.Argv = append(ctx.Argv, arg.key+"="+arg.value)
	default: // ARG
		ctx.Argv = append(ctx.Argv, arg.key, arg.value)
	}
}

// ValidateInterpreter checks that the configured script interpreter is
// resolvable on PATH, surfacing a ConfigError early rather than failing on
// the first hook/probe invocation.
func ValidateInterpreter(interpreter string) error {
	if _, err := exec.LookPath(interpreter); err != nil {
		return supervisorerr.WrapConfigError("script interpreter "+interpreter+" not found", err)
	}
	return nil
}
