// Package config loads tool settings from an optional INI file and
// FURNACE_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/provide-io/furnace/go/furnace/pkg/flow"
	"github.com/provide-io/furnace/go/furnace/pkg/tables"
	"github.com/provide-io/furnace/go/furnace/pkg/utils/permissions"
	"gopkg.in/ini.v1"
)

// SessionFileName is kept inside the total output directory.
const SessionFileName = ".session.json"

// Config holds every setting the commands read.
type Config struct {
	TotalDir    string
	DynamicDir  string
	FilePerms   os.FileMode
	MotorHex    string
	LoadAddress uint32
	Matchers    map[tables.Category]tables.Matcher
	Labels      tables.Labels
	Database    string
	MaxActions  uint64
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		TotalDir:    tables.TotalOutputDir,
		DynamicDir:  tables.DynamicOutputDir,
		FilePerms:   permissions.DefaultFilePerms,
		MotorHex:    tables.DefaultMotorHex,
		LoadAddress: tables.DefaultLoadAddress,
		Matchers:    tables.DefaultMatchers(),
		Labels:      tables.DefaultLabels(),
		Database:    flow.DefaultDatabase,
		MaxActions:  flow.MaxActions,
	}
}

// SessionPath is where step-wise commands keep the assembly session.
func (c *Config) SessionPath() string {
	return filepath.Join(c.TotalDir, SessionFileName)
}

// Load applies the INI file at path (if any) and then the environment on
// top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("FURNACE_CONFIG")
	}
	if path != "" {
		file, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		if err := cfg.apply(file); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) apply(file *ini.File) error {
	out := file.Section("output")
	c.TotalDir = out.Key("total_dir").MustString(c.TotalDir)
	c.DynamicDir = out.Key("dynamic_dir").MustString(c.DynamicDir)
	if out.HasKey("file_perms") {
		perm, err := permissions.ParseOctalString(out.Key("file_perms").String())
		if err != nil {
			return err
		}
		c.FilePerms = perm
	}

	header := file.Section("header")
	if header.HasKey("motors") {
		if err := c.setMotors(header.Key("motors").String()); err != nil {
			return err
		}
	}
	if header.HasKey("motor_hex") {
		c.MotorHex = strings.ToUpper(header.Key("motor_hex").String())
	}
	if header.HasKey("load_address") {
		if err := c.setLoadAddress(header.Key("load_address").String()); err != nil {
			return err
		}
	}

	for _, cat := range tables.Categories {
		name := "match." + cat.String()
		if !file.HasSection(name) {
			continue
		}
		m, err := applyMatcher(c.Matchers[cat], file.Section(name))
		if err != nil {
			return fmt.Errorf("[%s]: %w", name, err)
		}
		c.Matchers[cat] = m
	}

	labels := file.Section("labels")
	c.Labels.Header = labels.Key("header").MustString(c.Labels.Header)
	c.Labels.TotalTable = labels.Key("total_table").MustString(c.Labels.TotalTable)
	c.Labels.Final = labels.Key("final").MustString(c.Labels.Final)
	c.Labels.ActionTotal = labels.Key("action_total").MustString(c.Labels.ActionTotal)
	c.Labels.DynamicTotal = labels.Key("dynamic_total").MustString(c.Labels.DynamicTotal)

	fl := file.Section("flow")
	c.Database = fl.Key("database").MustString(c.Database)
	if fl.HasKey("max_actions") {
		n, err := fl.Key("max_actions").Uint64()
		if err != nil {
			return fmt.Errorf("max_actions: %w", err)
		}
		c.MaxActions = n
	}
	return nil
}

func applyMatcher(m tables.Matcher, sec *ini.Section) (tables.Matcher, error) {
	if sec.HasKey("prefix") {
		m.Prefix = sec.Key("prefix").String()
	}
	if sec.HasKey("contains") {
		m.Contains = sec.Key("contains").String()
	}
	if sec.HasKey("suffix") {
		m.Suffix = sec.Key("suffix").String()
	}
	if sec.HasKey("pattern") {
		re, err := tables.CompilePattern(sec.Key("pattern").String())
		if err != nil {
			return m, err
		}
		m.Pattern = re
	}
	return m, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FURNACE_TOTAL_DIR"); v != "" {
		c.TotalDir = v
	}
	if v := os.Getenv("FURNACE_DYNAMIC_DIR"); v != "" {
		c.DynamicDir = v
	}
	if v := os.Getenv("FURNACE_DB"); v != "" {
		c.Database = v
	}
	if v := os.Getenv("FURNACE_MOTORS"); v != "" {
		if err := c.setMotors(v); err != nil {
			return err
		}
	}
	if v := os.Getenv("FURNACE_LOAD_ADDRESS"); v != "" {
		if err := c.setLoadAddress(v); err != nil {
			return err
		}
	}
	return nil
}

// setMotors takes a comma-separated list of enabled motors (1-5), or
// "none".
func (c *Config) setMotors(list string) error {
	var motors [5]bool
	list = strings.TrimSpace(list)
	if list != "" && !strings.EqualFold(list, "none") {
		for _, part := range strings.Split(list, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 1 || n > len(motors) {
				return fmt.Errorf("invalid motor %q: want 1-%d", part, len(motors))
			}
			motors[n-1] = true
		}
	}
	c.MotorHex = tables.EncodeMotorSelection(motors)
	return nil
}

func (c *Config) setLoadAddress(s string) error {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return fmt.Errorf("invalid load address %q: %w", s, err)
	}
	c.LoadAddress = uint32(v)
	return nil
}
