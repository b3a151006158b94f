// Package doctor validates a parley configuration before the bot starts:
// credentials, paths and plugin settings.
package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/parleybot/parley/internal/config"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates a loaded configuration.
type Doctor struct {
	cfg *config.Config
}

// New creates a Doctor from a loaded config.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg}
}

// Telegram bot tokens look like "<numeric id>:<secret>".
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.checkTelegram(r)
	d.checkState(r)
	d.checkAPI(r)
	d.checkPasta(r)
	d.checkCurrency(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) checkTelegram(r *Result) {
	if !tokenPattern.MatchString(d.cfg.Telegram.Token) {
		d.addError(r, "telegram", "telegram.token",
			"token does not look like a bot token (expected <id>:<secret>)")
	}
	if base := d.cfg.Telegram.APIBase; base != "" && !strings.HasPrefix(base, "http") {
		d.addError(r, "telegram", "telegram.api_base", "api_base must be an http(s) URL")
	}
}

func (d *Doctor) checkState(r *Result) {
	dir := filepath.Dir(d.cfg.State.Path)
	if err := checkWritableDir(dir); err != nil {
		d.addError(r, "state", "state.path", fmt.Sprintf("state directory not writable: %v", err))
	}
}

func (d *Doctor) checkAPI(r *Result) {
	if !d.cfg.API.Enabled {
		return
	}
	if d.cfg.API.Listen == "" {
		d.addError(r, "api", "api.listen", "api.listen is required when the API is enabled")
	}
	if host := strings.Split(d.cfg.API.Listen, ":")[0]; host == "" || host == "0.0.0.0" {
		d.addWarning(r, "api", "api.listen",
			"admin API listens on all interfaces; bind to 127.0.0.1 unless it is deliberately exposed")
	}
}

func (d *Doctor) checkPasta(r *Result) {
	if !d.cfg.Plugins.Pasta.Enabled {
		return
	}
	if err := checkWritableDir(d.cfg.Plugins.Pasta.Dir); err != nil {
		d.addError(r, "plugins", "plugins.pasta.dir", fmt.Sprintf("pasta dir not writable: %v", err))
	}
}

func (d *Doctor) checkCurrency(r *Result) {
	cc := d.cfg.Plugins.Currency
	if !cc.Enabled {
		return
	}
	if len(cc.Operators) == 0 {
		d.addWarning(r, "plugins", "plugins.currency.operators",
			"no operators configured; nobody can run /ccpayout")
	}
	if cc.Admin == "" {
		d.addWarning(r, "plugins", "plugins.currency.admin",
			"no admin configured; nobody can run /ccsetname")
	}
	for _, op := range cc.Operators {
		if strings.HasPrefix(op, "@") {
			d.addError(r, "plugins", "plugins.currency.operators",
				fmt.Sprintf("operator %q must be a bare username without @", op))
		}
	}
}

// checkWritableDir verifies dir exists (creating it if needed) and accepts a
// probe file.
func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".parley-doctor")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}

// Render formats the result for terminal output, or JSON when asJSON is set.
func (r *Result) Render(asJSON bool) string {
	if asJSON {
		out, _ := json.MarshalIndent(r, "", "  ")
		return string(out)
	}

	var b strings.Builder
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
	}
	if r.Valid {
		fmt.Fprintf(&b, "Configuration OK (%d warnings)\n", len(r.Warnings))
	} else {
		fmt.Fprintf(&b, "Configuration INVALID (%d errors, %d warnings)\n", len(r.Errors), len(r.Warnings))
	}
	return b.String()
}
