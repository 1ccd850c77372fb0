// Package config handles application configuration, command-line argument
// parsing and the optional YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"gopkg.in/yaml.v3"

	"github.com/joe/dirpoll/internal/consumer"
	"github.com/joe/dirpoll/internal/poller"
	"github.com/joe/dirpoll/pkg/filesystem"
)

// Validation errors.
var (
	ErrSourceRequired = errors.New("source is required")
	ErrInvalidDepth   = errors.New("invalid depth")
	ErrInvalidLimit   = errors.New("max messages per poll must not be negative")
	ErrInvalidFormat  = errors.New("invalid log format")
)

// OutputFormat selects how poll results are printed
type OutputFormat int

const (
	// OutputText prints one line per file
	OutputText OutputFormat = iota
	// OutputJSON prints one JSON object per file
	OutputJSON
)

// String returns the string representation of OutputFormat
func (f OutputFormat) String() string {
	switch f {
	case OutputText:
		return "text"
	case OutputJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseOutputFormat parses a string into an OutputFormat
func ParseOutputFormat(s string) (OutputFormat, error) {
	s = strings.ToLower(s)
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return OutputText, fmt.Errorf("invalid output format: %s (valid: text, json)", s) //nolint:err113 // Validation error with actual value
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg and yaml
func (f *OutputFormat) UnmarshalText(text []byte) error {
	parsed, err := ParseOutputFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (f OutputFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Config holds the application configuration. Field values set before parsing
// act as defaults, so values loaded from a file are kept unless a flag overrides them.
type Config struct {
	ConfigFile string `arg:"-c,--config" yaml:"-" help:"YAML configuration file; flags override its values"`

	Source string `arg:"-s,--source" yaml:"source" help:"Directory to poll: local path, sftp://user@host[:port]/path or s3://bucket/prefix"`

	// Traversal
	Recursive                  bool `arg:"-r,--recursive" yaml:"recursive" help:"Descend into subdirectories (--recursive=false to disable)"`
	MinDepth                   int  `arg:"--min-depth" yaml:"min_depth" help:"Smallest depth a file is taken from (root entries are depth 1)"`
	MaxDepth                   int  `arg:"--max-depth" yaml:"max_depth" help:"Largest depth descended into (0 = unlimited)"`
	PreSort                    bool `arg:"--pre-sort" yaml:"pre_sort" help:"Sort each directory listing by name before visiting it"`
	IgnoreNotFoundOrPermission bool `arg:"--ignore-not-found-or-permission" yaml:"ignore_not_found_or_permission" help:"Treat missing or forbidden directories as empty"`

	// Batching
	MaxMessagesPerPoll int           `arg:"-n,--max-messages-per-poll" yaml:"max_messages_per_poll" help:"Maximum files per poll (0 = unlimited)"`
	EagerLimit         bool          `arg:"--eager-limit" yaml:"eager_limit" help:"Stop listing once the maximum is reached (--eager-limit=false lists everything and truncates after sorting)"`
	SortBy             poller.SortBy `arg:"--sort-by" yaml:"sort_by" help:"Order of each batch: none|name|size|modified"`
	Reverse            bool          `arg:"--reverse" yaml:"reverse" help:"Reverse the batch order"`

	// Filters
	Include           []string `arg:"--include,separate" yaml:"include" help:"Glob on relative paths a file must match (repeatable)"`
	Exclude           []string `arg:"--exclude,separate" yaml:"exclude" help:"Glob on relative paths of files to skip (repeatable)"`
	ExcludeDir        []string `arg:"--exclude-dir,separate" yaml:"exclude_dir" help:"Glob on relative paths of directories not to descend into (repeatable)"`
	IncludeHidden     bool     `arg:"--include-hidden" yaml:"include_hidden" help:"Poll files whose name starts with a dot"`
	IncludeHiddenDirs bool     `arg:"--include-hidden-dirs" yaml:"include_hidden_dirs" help:"Descend into directories whose name starts with a dot"`
	DoneFileName      string   `arg:"--done-file-name" yaml:"done_file_name" help:"Only poll files whose done file exists, e.g. ${file:name}.done"`

	// Idempotency
	Idempotent          bool                 `arg:"--idempotent" yaml:"idempotent" help:"Skip files polled in earlier cycles"`
	IdempotentKey       poller.IdempotentKey `arg:"--idempotent-key" yaml:"idempotent_key" help:"What identifies a polled file: path|changed"`
	IdempotentCacheSize int                  `arg:"--idempotent-cache-size" yaml:"idempotent_cache_size" help:"Number of polled files remembered"`

	// Scheduling
	Once     bool          `arg:"--once" yaml:"once" help:"Poll once and exit"`
	Interval time.Duration `arg:"-i,--interval" yaml:"interval" help:"Delay between polls"`
	LockFile string        `arg:"--lock-file" yaml:"lock_file" help:"Lock file held during each poll so only one process polls the source"`

	// Output and observability
	Output      OutputFormat `arg:"-o,--output" yaml:"output" help:"Output format: text|json"`
	Verbose     bool         `arg:"-v,--verbose" yaml:"verbose" help:"Print traversal progress to stderr"`
	LogLevel    string       `arg:"--log-level" yaml:"log_level" help:"Log level: debug|info|warn|error"`
	LogFormat   string       `arg:"--log-format" yaml:"log_format" help:"Log format: console|json"`
	MetricsAddr string       `arg:"--metrics-addr" yaml:"metrics_addr" help:"Serve Prometheus metrics on this address, e.g. :9090"`

	// Transport
	SFTPPoolSize      int    `arg:"--sftp-pool-size" yaml:"sftp_pool_size" help:"Maximum SFTP sessions"`
	KnownHosts        string `arg:"--known-hosts" yaml:"known_hosts" help:"known_hosts file for SFTP host key verification"`
	S3Endpoint        string `arg:"--s3-endpoint,env:DIRPOLL_S3_ENDPOINT" yaml:"s3_endpoint" help:"Custom S3 endpoint (MinIO, LocalStack)"`
	S3Region          string `arg:"--s3-region,env:DIRPOLL_S3_REGION" yaml:"s3_region" help:"S3 region"`
	S3AccessKeyID     string `arg:"--s3-access-key-id,env:DIRPOLL_S3_ACCESS_KEY_ID" yaml:"s3_access_key_id" help:"S3 access key id"`
	S3SecretAccessKey string `arg:"--s3-secret-access-key,env:DIRPOLL_S3_SECRET_ACCESS_KEY" yaml:"s3_secret_access_key" help:"S3 secret access key"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Polls a local, SFTP or S3 directory tree and prints the files each poll selects"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return "dirpoll 1.0.0"
}

// Defaults returns a Config with every default applied.
func Defaults() *Config {
	return &Config{
		Recursive:           true,
		EagerLimit:          true,
		IdempotentCacheSize: poller.DefaultIdempotentCacheSize,
		Interval:            consumer.DefaultInterval,
		LogLevel:            "info",
		LogFormat:           "console",
		SFTPPoolSize:        filesystem.DefaultSFTPPoolSize,
	}
}

// ParseFlags parses os.Args and returns the configuration. It exits on --help
// and --version like arg.MustParse.
func ParseFlags() (*Config, error) {
	cfg, err := Parse(os.Args[1:])

	switch {
	case errors.Is(err, arg.ErrHelp):
		parser, _ := arg.NewParser(arg.Config{Program: "dirpoll"}, Defaults())
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	case errors.Is(err, arg.ErrVersion):
		fmt.Fprintln(os.Stdout, Config{}.Version())
		os.Exit(0)
	}

	return cfg, err
}

// Parse parses args. When --config names a file, the file is loaded first and
// args are parsed again on top of it.
func Parse(args []string) (*Config, error) {
	cfg := Defaults()
	if err := parseInto(cfg, args); err != nil {
		return nil, err
	}

	if cfg.ConfigFile != "" {
		fileCfg := Defaults()
		if err := LoadFile(cfg.ConfigFile, fileCfg); err != nil {
			return nil, err
		}

		if err := parseInto(fileCfg, args); err != nil {
			return nil, err
		}

		cfg = fileCfg
	}

	return PostProcessConfig(cfg)
}

func parseInto(cfg *Config, args []string) error {
	parser, err := arg.NewParser(arg.Config{Program: "dirpoll"}, cfg)
	if err != nil {
		return fmt.Errorf("failed to build argument parser: %w", err)
	}

	if err := parser.Parse(args); err != nil {
		if errors.Is(err, arg.ErrHelp) || errors.Is(err, arg.ErrVersion) {
			return err //nolint:wrapcheck // Sentinels are matched by callers
		}

		return fmt.Errorf("invalid arguments: %w", err)
	}

	return nil
}

// LoadFile reads a YAML configuration file into cfg. Keys missing from the file
// keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the operator
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// PostProcessConfig validates a parsed config and normalizes its values
func PostProcessConfig(cfg *Config) (*Config, error) {
	if cfg.Source == "" {
		return nil, ErrSourceRequired
	}

	if _, err := filesystem.ParsePath(cfg.Source); err != nil {
		return nil, fmt.Errorf("invalid source: %w", err)
	}

	if cfg.MinDepth < 0 || cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: depths must not be negative", ErrInvalidDepth)
	}

	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = poller.UnlimitedDepth
	}

	if cfg.MinDepth > cfg.MaxDepth {
		return nil, fmt.Errorf("%w: min depth %d exceeds max depth %d", ErrInvalidDepth, cfg.MinDepth, cfg.MaxDepth)
	}

	if cfg.MaxMessagesPerPoll < 0 {
		return nil, ErrInvalidLimit
	}

	if cfg.Interval <= 0 {
		cfg.Interval = consumer.DefaultInterval
	}

	if cfg.IdempotentCacheSize <= 0 {
		cfg.IdempotentCacheSize = poller.DefaultIdempotentCacheSize
	}

	if cfg.SFTPPoolSize <= 0 {
		cfg.SFTPPoolSize = filesystem.DefaultSFTPPoolSize
	}

	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("%w: %s (valid: console, json)", ErrInvalidFormat, cfg.LogFormat)
	}

	if _, err := poller.NewGlobFilter(cfg.Include, cfg.Exclude, cfg.ExcludeDir); err != nil {
		return nil, err //nolint:wrapcheck // Already names the bad pattern
	}

	return cfg, nil
}

// PollerOptions returns the traversal options for a source.
func (cfg *Config) PollerOptions(root, host string) poller.Options {
	return poller.Options{
		Root:                                root,
		Host:                                host,
		Recursive:                           cfg.Recursive,
		MinDepth:                            cfg.MinDepth,
		MaxDepth:                            cfg.MaxDepth,
		PreSort:                             cfg.PreSort,
		IgnoreFileNotFoundOrPermissionError: cfg.IgnoreNotFoundOrPermission,
	}
}

// ConsumerOptions returns the scheduling and batching options.
func (cfg *Config) ConsumerOptions() consumer.Options {
	return consumer.Options{
		SortBy:             cfg.SortBy,
		Reverse:            cfg.Reverse,
		MaxMessagesPerPoll: cfg.MaxMessagesPerPoll,
		EagerLimit:         cfg.EagerLimit,
		Interval:           cfg.Interval,
		LockFile:           cfg.LockFile,
	}
}

// SourceOptions returns the transport options.
func (cfg *Config) SourceOptions() filesystem.SourceOptions {
	return filesystem.SourceOptions{
		S3: filesystem.S3Options{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		},
		SFTPPoolSize:   cfg.SFTPPoolSize,
		KnownHostsFile: cfg.KnownHosts,
	}
}

// Filters builds the filter chain. The idempotent filter, if any, is last so
// it only remembers files every other filter accepted.
func (cfg *Config) Filters() (poller.Chain, *poller.IdempotentFilter, error) {
	chain := poller.Chain{
		poller.HiddenFilter{IncludeFiles: cfg.IncludeHidden, IncludeDirs: cfg.IncludeHiddenDirs},
	}

	globs, err := poller.NewGlobFilter(cfg.Include, cfg.Exclude, cfg.ExcludeDir)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck // Already names the bad pattern
	}

	chain = append(chain, globs)

	if cfg.DoneFileName != "" {
		chain = append(chain, poller.DoneFileFilter{Pattern: cfg.DoneFileName})
	}

	if !cfg.Idempotent {
		return chain, nil, nil
	}

	idempotent, err := poller.NewIdempotentFilter(cfg.IdempotentCacheSize, cfg.IdempotentKey)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck // Already wrapped
	}

	return append(chain, idempotent), idempotent, nil
}
