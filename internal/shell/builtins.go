package shell

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/arc-language/minishell/pkg/backend"
)

const helpText = `Available commands:
  cd <dir>       - Change directory
  pwd            - Print working directory
  ls [dir]       - List directory contents
  mkdir <dir>    - Create directory
  rm <file/dir>  - Remove file or directory
  cat <file>     - Display file contents
  echo <text>    - Display text
  touch <file>   - Create empty file
  clear          - Clear screen
  pkg            - Package management commands:
     pkg install <package>  - Install a package
     pkg search <query>     - Search for packages
     pkg update [package]   - Update packages
     pkg list               - List installed packages
     pkg managers           - List available package managers
  help           - Display this help
  exit           - Exit the shell

You can also execute any system command
`

func registerBuiltins(sh *Shell) {
	sh.Register("cd", cd)
	sh.Register("pwd", pwd)
	sh.Register("ls", ls)
	sh.Register("mkdir", mkdir)
	sh.Register("rm", rm)
	sh.Register("cat", cat)
	sh.Register("echo", echo)
	sh.Register("touch", touch)
	sh.Register("clear", clearScreen)
	sh.Register("help", help)
	sh.Register("exit", exitShell)
	sh.Register("quit", exitShell)
}

func cd(_ context.Context, sh *Shell, args []string) error {
	target := sh.home
	if len(args) > 0 {
		target = sh.resolve(args[0])
	}
	if target == "" {
		sh.printf("%s\n", sh.styles.Error.Render("Could not determine home directory"))
		return nil
	}

	name := target
	if len(args) > 0 {
		name = args[0]
	}
	info, err := sh.fs.Stat(target)
	switch {
	case err != nil:
		sh.printf("cd: %s: %s\n", sh.styles.Error.Render(name), sh.styles.Error.Render(reason(err)))
		return nil
	case !info.IsDir():
		sh.printf("cd: %s: %s\n", sh.styles.Error.Render(name), sh.styles.Error.Render("Not a directory"))
		return nil
	}

	if sh.chdir != nil {
		if err := sh.chdir(target); err != nil {
			sh.printf("cd: %s: %s\n", sh.styles.Error.Render(name), sh.styles.Error.Render(reason(err)))
			return nil
		}
	}
	sh.dir = target
	return nil
}

func pwd(_ context.Context, sh *Shell, _ []string) error {
	sh.printf("%s\n", sh.dir)
	return nil
}

func ls(_ context.Context, sh *Shell, args []string) error {
	target := sh.dir
	if len(args) > 0 {
		target = sh.resolve(args[0])
	}

	entries, err := afero.ReadDir(sh.fs, target)
	if err != nil {
		sh.printf("ls: cannot access '%s': %s\n", target, reason(err))
		return nil
	}
	for _, e := range entries {
		switch {
		case e.IsDir():
			sh.printf("%s\n", sh.styles.Dir.Render(e.Name()+"/"))
		case e.Mode().IsRegular() && e.Mode().Perm()&0o111 != 0:
			sh.printf("%s\n", sh.styles.Exec.Render(e.Name()))
		default:
			sh.printf("%s\n", e.Name())
		}
	}
	return nil
}

func mkdir(_ context.Context, sh *Shell, args []string) error {
	if len(args) == 0 {
		sh.printf("mkdir: missing operand\n")
		return nil
	}
	for _, name := range args {
		if err := sh.fs.MkdirAll(sh.resolve(name), 0o755); err != nil {
			sh.printf("mkdir: cannot create directory '%s': %s\n", name, reason(err))
		}
	}
	return nil
}

func rm(_ context.Context, sh *Shell, args []string) error {
	var recursive, force bool
	var targets []string
	for _, arg := range args {
		switch {
		case arg == "-r", arg == "-R", arg == "--recursive":
			recursive = true
		case arg == "-f", arg == "--force":
			force = true
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			// combined flags such as -rf
			recursive = recursive || strings.ContainsAny(arg, "rR")
			force = force || strings.Contains(arg, "f")
		default:
			targets = append(targets, arg)
		}
	}
	if len(targets) == 0 {
		sh.printf("rm: missing operand\n")
		return nil
	}

	for _, name := range targets {
		path := sh.resolve(name)
		info, err := sh.fs.Stat(path)
		if err != nil {
			if !force {
				sh.printf("rm: cannot remove '%s': %s\n", name, reason(err))
			}
			continue
		}

		if info.IsDir() {
			if !recursive {
				sh.printf("rm: cannot remove '%s': Is a directory\n", name)
				continue
			}
			err = sh.fs.RemoveAll(path)
		} else {
			err = sh.fs.Remove(path)
		}
		if err != nil && !force {
			sh.printf("rm: cannot remove '%s': %s\n", name, reason(err))
		}
	}
	return nil
}

func cat(_ context.Context, sh *Shell, args []string) error {
	if len(args) == 0 {
		sh.printf("cat: missing operand\n")
		return nil
	}
	for _, name := range args {
		f, err := sh.fs.Open(sh.resolve(name))
		if err != nil {
			sh.printf("cat: %s: %s\n", name, reason(err))
			continue
		}
		if info, err := f.Stat(); err == nil && info.IsDir() {
			f.Close()
			sh.printf("cat: %s: Is a directory\n", name)
			continue
		}
		_, err = io.Copy(sh.stdout, f)
		f.Close()
		if err != nil {
			sh.printf("cat: %s: %s\n", name, reason(err))
		}
	}
	return nil
}

func echo(_ context.Context, sh *Shell, args []string) error {
	sh.printf("%s\n", strings.Join(args, " "))
	return nil
}

func touch(_ context.Context, sh *Shell, args []string) error {
	if len(args) == 0 {
		sh.printf("touch: missing operand\n")
		return nil
	}
	now := time.Now()
	for _, name := range args {
		path := sh.resolve(name)
		if _, err := sh.fs.Stat(path); err == nil {
			if err := sh.fs.Chtimes(path, now, now); err != nil {
				sh.printf("touch: cannot touch '%s': %s\n", name, reason(err))
			}
			continue
		}
		f, err := sh.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
		if err != nil {
			sh.printf("touch: cannot touch '%s': %s\n", name, reason(err))
			continue
		}
		f.Close()
	}
	return nil
}

func clearScreen(ctx context.Context, sh *Shell, _ []string) error {
	if sh.platform == backend.Windows {
		return sh.system.Run(ctx, "cls", sh.dir, Stdio{In: sh.stdin, Out: sh.stdout, Err: sh.stderr})
	}
	sh.printf("\x1b[2J\x1b[1;1H")
	return nil
}

func help(_ context.Context, sh *Shell, _ []string) error {
	sh.printf("%s", helpText)
	return nil
}

func exitShell(_ context.Context, sh *Shell, args []string) error {
	if len(args) == 0 {
		return &Exit{}
	}
	code, err := strconv.Atoi(args[0])
	if err != nil {
		sh.printf("exit: %s: numeric argument required\n", args[0])
		return &Exit{Code: 2}
	}
	return &Exit{Code: code}
}

// reason drops the operation and path from file system errors
func reason(err error) string {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}
