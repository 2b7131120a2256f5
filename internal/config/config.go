// Package config loads litpost.yaml, the per-blog settings shared by the
// litpost commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jwtly10/litpost"
	"github.com/jwtly10/litpost/kernel"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "litpost.yaml"

var (
	ErrPostsDirRequired         = errors.New("litpost config: posts directory is required")
	ErrOutputDirRequired        = errors.New("litpost config: output directory is required")
	ErrLanguageUnknown          = errors.New("litpost config: language has no registered kernel")
	ErrWorkersInvalid           = errors.New("litpost config: workers must be zero or positive")
	ErrMarkdownExtensionUnknown = errors.New("litpost config: markdown extension is unknown")
	ErrModeInvalid              = errors.New("litpost config: mode must be fragment or page")
)

// DefaultWorkers is the number of posts rendered at once by build.
const DefaultWorkers = 4

type Config struct {
	// Posts is the directory posts are discovered in.
	Posts string `yaml:"posts"`
	// Output is the directory build writes to.
	Output string `yaml:"output"`
	// Language selects the kernel code blocks are run with.
	Language string `yaml:"language"`
	// Python is the interpreter command line for the python kernel.
	Python string `yaml:"python"`
	// Preludes replace the kernel's default preludes when set.
	Preludes []kernel.Prelude `yaml:"preludes"`
	// NoExec renders code blocks without running them.
	NoExec bool `yaml:"no_exec"`

	DateFormat         string   `yaml:"date_format"`
	OpenLinksNewTab    bool     `yaml:"open_links_new_tab"`
	LiveLabel          bool     `yaml:"live_label"`
	RenderLiterals     bool     `yaml:"render_literals"`
	MarkdownExtensions []string `yaml:"markdown_extensions"`

	Recursive bool     `yaml:"recursive"`
	Include   []string `yaml:"include"`
	Exclude   []string `yaml:"exclude"`
	Drafts    bool     `yaml:"drafts"`

	// Mode is "fragment" or "page".
	Mode     string `yaml:"mode"`
	Workers  int    `yaml:"workers"`
	NoBackup bool   `yaml:"no_backup"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		Posts:           "posts",
		Output:          "public",
		Language:        "python",
		DateFormat:      litpost.DefaultDateLayout,
		OpenLinksNewTab: true,
		LiveLabel:       true,
		Mode:            litpost.ModeFragment.String(),
		Workers:         DefaultWorkers,
	}
}

// Load reads the config file at path on top of the defaults. An empty path
// looks for FileName in the working directory and falls back to the
// defaults when there is none. Relative directories in the file are
// resolved against the directory holding it.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = FileName
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return cfg, nil
	} else if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.Posts = resolve(base, cfg.Posts)
	cfg.Output = resolve(base, cfg.Output)
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func resolve(base, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

// Validate performs consistency checks.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Posts) == "" {
		return ErrPostsDirRequired
	}
	if strings.TrimSpace(c.Output) == "" {
		return ErrOutputDirRequired
	}
	if !slices.Contains(kernel.Names(), c.Language) {
		return fmt.Errorf("%w: %q (available: %s)", ErrLanguageUnknown, c.Language, strings.Join(kernel.Names(), ", "))
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrWorkersInvalid, c.Workers)
	}
	for _, ext := range c.MarkdownExtensions {
		if !litpost.KnownMarkdownExtension(ext) {
			return fmt.Errorf("%w: %s", ErrMarkdownExtensionUnknown, ext)
		}
	}
	if _, err := litpost.ParseWriteMode(c.Mode); err != nil {
		return fmt.Errorf("%w: %s", ErrModeInvalid, c.Mode)
	}
	return nil
}

// Kernel creates the kernel for the configured language, wrapped so nothing
// runs when NoExec is set.
func (c Config) Kernel() (kernel.Kernel, error) {
	k, err := kernel.New(c.Language, kernel.Options{
		Command:  c.Python,
		Preludes: c.Preludes,
		Dir:      c.Posts,
	})
	if err != nil {
		return nil, err
	}
	if c.NoExec {
		return kernel.Disabled(k), nil
	}
	return k, nil
}

func (c Config) RenderOptions() litpost.Options {
	return litpost.Options{
		OpenLinksInNewTab:  c.OpenLinksNewTab,
		HideLiveLabel:      !c.LiveLabel,
		RenderLiterals:     c.RenderLiterals,
		MarkdownExtensions: c.MarkdownExtensions,
	}
}

func (c Config) LoadOptions() litpost.LoadOptions {
	include := c.Include
	if len(include) == 0 && c.Recursive {
		include = litpost.RecursiveInclude
	}
	return litpost.LoadOptions{
		Include:    include,
		Exclude:    c.Exclude,
		DateLayout: c.DateFormat,
		Drafts:     c.Drafts,
	}
}

// WriteMode returns the parsed Mode, fragment when it is invalid.
func (c Config) WriteMode() litpost.WriteMode {
	mode, _ := litpost.ParseWriteMode(c.Mode)
	return mode
}
