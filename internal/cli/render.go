package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/uncovr/unc/internal/cliutil"
	"github.com/uncovr/unc/internal/engine"
)

const marker = "▲"

// statusPrinter renders supervisor events as the dev command's status lines.
// Fatal errors are left to Execute.
type statusPrinter struct {
	w      io.Writer
	styles cliutil.Styles
	start  time.Time
}

func newStatusPrinter(w io.Writer, styles cliutil.Styles, start time.Time) *statusPrinter {
	return &statusPrinter{w: w, styles: styles, start: start}
}

func (p *statusPrinter) header() {
	fmt.Fprintf(p.w, "%s\n\n", p.styles.Accent("unc dev"))
}

func (p *statusPrinter) handle(evt engine.Event) {
	s := p.styles
	switch evt.Type {
	case engine.EventTypeStarting:
		if evt.Reason == engine.ReasonToolMissing || evt.Reason == engine.ReasonInstalled {
			fmt.Fprintf(p.w, "%s\n", s.Warning(evt.Message))
		}
	case engine.EventTypeWarning:
		fmt.Fprintf(p.w, "  %s\n", s.Warning("warning: "+cliutil.RedactSecrets(evt.Message)))
		if evt.Reason == engine.ReasonRunnerMissing {
			fmt.Fprintf(p.w, "  %s\n\n", s.Warning("install node.js to use tailwind css"))
		}
	case engine.EventTypeReady:
		elapsed := evt.Timestamp.Sub(p.start)
		if evt.Timestamp.IsZero() || elapsed < 0 {
			elapsed = 0
		}
		fmt.Fprintf(p.w, "  %s %s\n", s.Success(marker), evt.Message)
		fmt.Fprintf(p.w, "  %s ready in %s\n\n", s.Success(marker), s.Muted(fmt.Sprintf("%dms", elapsed.Milliseconds())))
		fmt.Fprintf(p.w, "  press %s to stop\n\n", s.Muted("ctrl+c"))
	case engine.EventTypeExited:
		fmt.Fprintf(p.w, "\n  %s %s\n", s.Warning(marker), evt.Message)
	case engine.EventTypeStopping:
		if evt.Role == "" {
			fmt.Fprintf(p.w, "\n  %s shutting down...\n", s.Warning(marker))
		}
	case engine.EventTypeStopped:
		if evt.Role == "" {
			fmt.Fprintf(p.w, "  %s stopped\n\n", s.Success(marker))
		}
	}
}

// jsonPrinter writes one JSON record per event.
type jsonPrinter struct {
	enc    *json.Encoder
	stderr io.Writer
}

func newJSONPrinter(stdout, stderr io.Writer) *jsonPrinter {
	return &jsonPrinter{enc: json.NewEncoder(stdout), stderr: stderr}
}

func (p *jsonPrinter) handle(evt engine.Event) {
	cliutil.EncodeEvent(p.enc, p.stderr, evt)
}
