// pkg/report/report.go
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/arc-language/minishell/internal/style"
	"github.com/arc-language/minishell/pkg/backend"
	"github.com/arc-language/minishell/pkg/dispatch"
	"github.com/arc-language/minishell/pkg/platform"
)

// Reporter renders outcomes for the terminal. It never retries anything.
type Reporter struct {
	w      io.Writer
	styles *style.Styles
}

// New creates a reporter writing to w. Nil styles render plain text.
func New(w io.Writer, styles *style.Styles) *Reporter {
	if styles == nil {
		styles = style.Plain()
	}
	return &Reporter{w: w, styles: styles}
}

// Hint suggests how to get a package manager on the platform
func Hint(p backend.Platform) string {
	switch p {
	case backend.Windows:
		return "You may need to install a package manager first (chocolatey, winget, or scoop)."
	case backend.MacOS:
		return "You may need to install a package manager first (homebrew or macports)."
	case backend.Linux:
		return "Your distribution's package manager might not be supported or you may need to run with sudo privileges."
	default:
		return "Please install a package manager appropriate for your platform."
	}
}

// Outcome prints every result followed by a status summary
func (r *Reporter) Outcome(out *dispatch.Outcome) {
	for _, res := range out.Results {
		r.result(out.Request, res)
	}
	for _, skip := range out.Skipped {
		r.printf("%s\n", r.styles.Muted.Render(fmt.Sprintf("skipped %s: %v", name(skip.Backend), skip.Err)))
	}
	r.summary(out)
}

func (r *Reporter) result(req dispatch.Request, res dispatch.Result) {
	if len(res.Invocation.Argv) > 0 {
		r.printf("%s %s\n", r.styles.Header.Render("==> "+name(res.Backend)+":"), res.Invocation)
	}
	if !res.Streamed && res.Stdout != "" {
		r.block(res.Stdout)
	}

	switch {
	case req.Verb == backend.Search && res.Succeeded && !res.Matched:
		r.printf("%s\n", r.styles.Warning.Render(fmt.Sprintf("%s: no matches for '%s'", name(res.Backend), res.Query)))
	case !res.Succeeded:
		r.failure(res)
	}
	if res.Truncated {
		r.printf("%s\n", r.styles.Muted.Render("(output truncated)"))
	}
}

func (r *Reporter) failure(res dispatch.Result) {
	reason := string(res.Failure)
	if res.Failure == dispatch.NonZeroExit {
		reason = fmt.Sprintf("exit code %d", res.ExitCode)
	}
	r.printf("%s\n", r.styles.Error.Render(fmt.Sprintf("✗ %s failed (%s)", name(res.Backend), reason)))

	switch {
	case res.Streamed && res.Started:
		// stderr already reached the terminal
	case res.Stderr != "":
		r.block(res.Stderr)
	}
	if res.Failure != dispatch.NonZeroExit && res.Err != nil {
		r.printf("  %v\n", res.Err)
	}
}

func (r *Reporter) summary(out *dispatch.Outcome) {
	verb := out.Request.Verb
	switch out.Status {
	case dispatch.AllSucceeded:
		if len(out.Results) == 1 {
			r.printf("%s\n", r.styles.Success.Render(fmt.Sprintf("✓ %s completed using %s", describe(out.Request), name(out.Results[0].Backend))))
			return
		}
		r.printf("%s\n", r.styles.Success.Render(fmt.Sprintf("✓ %s completed on all %d backends", verb, len(out.Results))))

	case dispatch.PartialSuccess:
		failed := lo.Map(out.Failed(), func(res dispatch.Result, _ int) string { return name(res.Backend) })
		r.printf("%s\n", r.styles.Warning.Render(fmt.Sprintf("! %s partially succeeded: %d of %d backends (failed: %s)",
			verb, len(out.Results)-len(failed), len(out.Results), strings.Join(failed, ", "))))

	case dispatch.AllFailed:
		if out.Err != nil && len(out.Results) == 0 {
			r.printf("%s\n", r.styles.Error.Render("error: "+out.Err.Error()))
			return
		}
		if verb == backend.Search {
			r.printf("%s\n", r.styles.Error.Render(fmt.Sprintf("✗ no results for '%s'", out.Request.Query)))
			return
		}
		r.printf("%s\n", r.styles.Error.Render(fmt.Sprintf("✗ failed to %s", describe(out.Request))))

	case dispatch.NoBackendAvailable:
		r.noBackend(out)
	}
}

func (r *Reporter) noBackend(out *dispatch.Outcome) {
	msg := fmt.Sprintf("✗ no package manager available to %s on %s", out.Request.Verb, out.Platform.DisplayName())
	var berr *backend.Error
	if out.Request.Backend != "" && errors.As(out.Err, &berr) {
		msg = "✗ " + out.Err.Error()
	}
	r.printf("%s\n", r.styles.Error.Render(msg))

	if len(out.Missing) > 0 {
		r.printf("Checked (not installed): %s\n", strings.Join(lo.Map(out.Missing, func(d *backend.Descriptor, _ int) string {
			return name(d)
		}), ", "))
	}
	if len(out.Skipped) > 0 {
		r.printf("Installed but unable to %s: %s\n", out.Request.Verb, strings.Join(lo.Map(out.Skipped, func(s dispatch.Skip, _ int) string {
			return name(s.Backend)
		}), ", "))
	}
	r.printf("%s\n", Hint(out.Platform))
}

// Managers prints each platform backend in priority order with its
// installation state
func (r *Reporter) Managers(inv *platform.Inventory) {
	r.printf("Available package managers for your platform (%s):\n", inv.Platform.DisplayName())
	if len(inv.Checked) == 0 && len(inv.Disabled) == 0 {
		r.printf("  none known\n")
		return
	}
	for _, d := range inv.Checked {
		if path := inv.Path(d.ID); path != "" {
			r.printf("  %s %s\n", name(d), r.styles.Success.Render("(installed: "+path+")"))
		} else {
			r.printf("  %s %s\n", name(d), r.styles.Muted.Render("(not installed)"))
		}
	}
	for _, d := range inv.Disabled {
		r.printf("  %s %s\n", name(d), r.styles.Muted.Render("(disabled)"))
	}
	if inv.Distro.ID != "" {
		r.printf("Distribution: %s\n", inv.Distro)
	}
}

func (r *Reporter) block(s string) {
	r.printf("%s", s)
	if !strings.HasSuffix(s, "\n") {
		r.printf("\n")
	}
}

func (r *Reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func describe(req dispatch.Request) string {
	switch {
	case req.Verb == backend.Update && req.Query == "":
		return "update all packages"
	case req.Verb == backend.List:
		return "list packages"
	case req.Verb == backend.Search:
		return fmt.Sprintf("search for '%s'", req.Query)
	default:
		return fmt.Sprintf("%s %s", req.Verb, req.Query)
	}
}

func name(d *backend.Descriptor) string {
	if d == nil {
		return "unknown"
	}
	if d.Name != "" {
		return d.Name
	}
	return string(d.ID)
}
