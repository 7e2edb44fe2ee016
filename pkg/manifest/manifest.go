// Package manifest reads the INI backup manifest into an immutable Config.
package manifest

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

// MainSection holds the run level options. Every other section is a source group.
const MainSection = "main"

// Config is the parsed manifest. It is built once by Parse and not modified afterwards.
type Config struct {
	Root          string
	Prefix        string
	NStore        int
	EmailSender   string
	EmailReceiver string
	Groups        []SourceGroup
}

// SourceGroup lists directories and files to copy, relative to Root.
type SourceGroup struct {
	Root  string
	Dirs  []string
	Files []string
}

// ConfigError reports an invalid manifest.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

type option struct {
	def string
	set func(c *Config, value string) error
}

var mainOptions = map[string]option{
	"root": {def: "/backup", set: func(c *Config, v string) error {
		c.Root = v
		return nil
	}},
	"prefix": {def: "my-backup-", set: func(c *Config, v string) error {
		c.Prefix = v
		return nil
	}},
	"nstore": {def: "3", set: func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ConfigError{Msg: "nstore is not an integer", Err: err}
		}
		if n < 1 {
			return &ConfigError{Msg: fmt.Sprintf("nstore must be at least 1, got %d", n)}
		}
		c.NStore = n
		return nil
	}},
	"email_sender": {def: "root", set: func(c *Config, v string) error {
		c.EmailSender = v
		return nil
	}},
	"email_receiver": {def: "root", set: func(c *Config, v string) error {
		c.EmailReceiver = v
		return nil
	}},
}

var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:        true,
	AllowPythonMultilineValues: true,
	AllowNonUniqueSections:     true,
	PreserveSurroundedQuote:    true,
}

// Load reads and parses the manifest at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Msg: "cannot read manifest " + path, Err: err}
	}
	return Parse(data)
}

// Parse builds a Config from manifest contents. Options missing from the main
// section, or a missing main section, fall back to their defaults.
func Parse(data []byte) (*Config, error) {
	file, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, &ConfigError{Msg: "malformed manifest", Err: err}
	}

	cfg := &Config{}
	for _, opt := range mainOptions {
		if err := opt.set(cfg, opt.def); err != nil {
			return nil, err
		}
	}

	for _, section := range file.Sections() {
		switch section.Name() {
		case ini.DefaultSection:
			if len(section.Keys()) > 0 {
				log.Warn().Int("keys", len(section.Keys())).Msg("ignoring keys outside of any section")
			}
		case MainSection:
			if err := applyMain(cfg, section); err != nil {
				return nil, err
			}
		default:
			cfg.Groups = append(cfg.Groups, parseGroup(section))
		}
	}

	log.Debug().
		Str("root", cfg.Root).
		Str("prefix", cfg.Prefix).
		Int("nstore", cfg.NStore).
		Int("groups", len(cfg.Groups)).
		Msg("manifest parsed")
	return cfg, nil
}

func applyMain(cfg *Config, section *ini.Section) error {
	for _, key := range section.Keys() {
		opt, ok := mainOptions[key.Name()]
		if !ok {
			return &ConfigError{Msg: fmt.Sprintf("invalid option in %s: %q", MainSection, key.Name())}
		}
		if err := opt.set(cfg, key.String()); err != nil {
			return err
		}
	}
	return nil
}

func parseGroup(section *ini.Section) SourceGroup {
	group := SourceGroup{Root: section.Name()}
	for _, key := range section.Keys() {
		switch key.Name() {
		case "dirs":
			group.Dirs = splitList(key.String())
		case "files":
			group.Files = splitList(key.String())
		default:
			log.Debug().Str("section", section.Name()).Str("key", key.Name()).Msg("ignoring unknown key")
		}
	}
	return group
}

// splitList splits a comma separated value, trimming whitespace and dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, entry := range strings.Split(value, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
