// Package messages holds the user-facing text catalog. The engine and store
// are locale-neutral; every string a user sees, including month names, comes
// from here. The built-in catalog is Russian and can be replaced wholesale
// by pointing the bot at a YAML file with the same keys.
package messages

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed texts_ru.yaml
var defaultCatalog []byte

// Catalog is the full set of reply texts, button labels and month names.
type Catalog struct {
	Greeting         string `yaml:"greeting"`
	Help             string `yaml:"help"`
	RefillPrompt     string `yaml:"refill_prompt"`
	RefillBadFormat  string `yaml:"refill_bad_format"`
	RefillBadNumbers string `yaml:"refill_bad_numbers"`
	RefillSaved      string `yaml:"refill_saved"`
	RefillSaveFailed string `yaml:"refill_save_failed"`

	StatsHeader        string `yaml:"stats_header"`
	StatsConsumption   string `yaml:"stats_consumption"`
	StatsMonthlyHeader string `yaml:"stats_monthly_header"`
	StatsMonthlyLine   string `yaml:"stats_monthly_line"`
	StatsEmpty         string `yaml:"stats_empty"`

	ResetPrompt    string `yaml:"reset_prompt"`
	ResetDone      string `yaml:"reset_done"`
	ResetFailed    string `yaml:"reset_failed"`
	ResetCancelled string `yaml:"reset_cancelled"`
	Cancelled      string `yaml:"cancelled"`

	ButtonRefill string `yaml:"button_refill"`
	ButtonStats  string `yaml:"button_stats"`
	ButtonReset  string `yaml:"button_reset"`
	ButtonHelp   string `yaml:"button_help"`
	ButtonYes    string `yaml:"button_yes"`
	ButtonNo     string `yaml:"button_no"`

	Months []string `yaml:"months"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return parse(defaultCatalog)
}

// LoadFile reads a catalog from a YAML file. Keys absent from the file keep
// their embedded defaults.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message catalog: %w", err)
	}
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse message catalog %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("message catalog %s: %w", path, err)
	}
	return c, nil
}

func parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse embedded message catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("embedded message catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Months) != 12 {
		return fmt.Errorf("expected 12 month names, got %d", len(c.Months))
	}
	if strings.TrimSpace(c.ButtonYes) == "" {
		return fmt.Errorf("button_yes must not be empty")
	}
	return nil
}

// MonthLabel renders a locale-neutral year/month pair as a display label,
// e.g. "Август 2026". A month outside 1..12 falls back to a numeric label
// rather than panicking on a corrupt value.
func (c *Catalog) MonthLabel(year int, month time.Month) string {
	if month < time.January || month > time.December {
		return fmt.Sprintf("%d-%02d", year, int(month))
	}
	return fmt.Sprintf("%s %d", c.Months[int(month)-1], year)
}

// IsAffirmative reports whether text is the exact confirmation token,
// compared case-insensitively. Anything else counts as a refusal.
func (c *Catalog) IsAffirmative(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), c.ButtonYes)
}

// Render substitutes {name}-style placeholders in a catalog text.
func Render(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
