//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexflint/go-arg"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/dirpoll/internal/config"
	"github.com/joe/dirpoll/internal/consumer"
	"github.com/joe/dirpoll/internal/poller"
)

func TestOutputFormatString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		f        config.OutputFormat
		expected string
	}{
		{config.OutputText, "text"},
		{config.OutputJSON, "json"},
		{config.OutputFormat(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.f.String(); got != tt.expected {
			t.Errorf("OutputFormat(%d).String() = %q, want %q", tt.f, got, tt.expected)
		}
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected config.OutputFormat
		wantErr  bool
	}{
		{"text", config.OutputText, false},
		{"", config.OutputText, false},
		{"JSON", config.OutputJSON, false},
		{"yaml", config.OutputText, true},
	}

	for _, tt := range tests {
		var f config.OutputFormat

		err := f.UnmarshalText([]byte(tt.input))
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalText(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}

		if !tt.wantErr && f != tt.expected {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.input, f, tt.expected)
		}
	}
}

func TestConfigDescriptionAndVersion(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg := config.Config{}
	g.Expect(cfg.Description()).ShouldNot(BeEmpty())
	g.Expect(cfg.Version()).Should(HavePrefix("dirpoll"))
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg, err := config.Parse([]string{"--source", "/in"})
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(cfg.Source).Should(Equal("/in"))
	g.Expect(cfg.Recursive).Should(BeTrue())
	g.Expect(cfg.EagerLimit).Should(BeTrue())
	g.Expect(cfg.MaxDepth).Should(Equal(poller.UnlimitedDepth), "zero means unlimited")
	g.Expect(cfg.Interval).Should(Equal(consumer.DefaultInterval))
	g.Expect(cfg.IdempotentCacheSize).Should(Equal(poller.DefaultIdempotentCacheSize))
	g.Expect(cfg.LogFormat).Should(Equal("console"))
	g.Expect(cfg.Output).Should(Equal(config.OutputText))
}

func TestParse_Flags(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg, err := config.Parse([]string{
		"-s", "sftp://poller@files.example.com//srv/in",
		"--recursive=false",
		"--min-depth", "1",
		"--max-depth", "3",
		"--pre-sort",
		"-n", "10",
		"--eager-limit=false",
		"--sort-by", "size",
		"--reverse",
		"--include", "**/*.csv",
		"--include", "**/*.tsv",
		"--exclude", "tmp/**",
		"--done-file-name", "${file:name}.done",
		"--idempotent",
		"--idempotent-key", "changed",
		"--interval", "5s",
		"-o", "json",
	})
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(cfg.Recursive).Should(BeFalse())
	g.Expect(cfg.MinDepth).Should(Equal(1))
	g.Expect(cfg.MaxDepth).Should(Equal(3))
	g.Expect(cfg.PreSort).Should(BeTrue())
	g.Expect(cfg.MaxMessagesPerPoll).Should(Equal(10))
	g.Expect(cfg.EagerLimit).Should(BeFalse())
	g.Expect(cfg.SortBy).Should(Equal(poller.SortSize))
	g.Expect(cfg.Reverse).Should(BeTrue())
	g.Expect(cfg.Include).Should(Equal([]string{"**/*.csv", "**/*.tsv"}))
	g.Expect(cfg.Exclude).Should(Equal([]string{"tmp/**"}))
	g.Expect(cfg.DoneFileName).Should(Equal("${file:name}.done"))
	g.Expect(cfg.Idempotent).Should(BeTrue())
	g.Expect(cfg.IdempotentKey).Should(Equal(poller.KeyChanged))
	g.Expect(cfg.Interval).Should(Equal(5 * time.Second))
	g.Expect(cfg.Output).Should(Equal(config.OutputJSON))
}

func TestParse_ConfigFileWithFlagOverride(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "dirpoll.yaml")
	content := `source: s3://inbox/incoming
max_depth: 4
pre_sort: true
sort_by: modified
max_messages_per_poll: 50
include:
  - "**/*.json"
interval: 30s
log_format: json
`
	g.Expect(os.WriteFile(path, []byte(content), 0o600)).Should(Succeed())

	cfg, err := config.Parse([]string{"--config", path, "--max-depth", "2"})
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(cfg.ConfigFile).Should(Equal(path))
	g.Expect(cfg.Source).Should(Equal("s3://inbox/incoming"))
	g.Expect(cfg.MaxDepth).Should(Equal(2), "flags override the file")
	g.Expect(cfg.PreSort).Should(BeTrue())
	g.Expect(cfg.SortBy).Should(Equal(poller.SortModified))
	g.Expect(cfg.MaxMessagesPerPoll).Should(Equal(50))
	g.Expect(cfg.Include).Should(Equal([]string{"**/*.json"}))
	g.Expect(cfg.Interval).Should(Equal(30 * time.Second))
	g.Expect(cfg.LogFormat).Should(Equal("json"))
	g.Expect(cfg.Recursive).Should(BeTrue(), "keys missing from the file keep defaults")
}

func TestParse_ConfigFileErrors(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := config.Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	g.Expect(err).Should(HaveOccurred())
	g.Expect(err.Error()).Should(ContainSubstring("failed to read config file"))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	g.Expect(os.WriteFile(bad, []byte("sort_by: sideways\n"), 0o600)).Should(Succeed())

	_, err = config.Parse([]string{"--config", bad})
	g.Expect(err).Should(HaveOccurred())
	g.Expect(err.Error()).Should(ContainSubstring("failed to parse config file"))
}

func TestParse_HelpAndVersion(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := config.Parse([]string{"--help"})
	g.Expect(err).Should(MatchError(arg.ErrHelp))

	_, err = config.Parse([]string{"--version"})
	g.Expect(err).Should(MatchError(arg.ErrVersion))
}

func TestPostProcessConfig_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(cfg *config.Config)
		wantErr error
		errMsg  string
	}{
		{name: "missing source", modify: func(cfg *config.Config) { cfg.Source = "" }, wantErr: config.ErrSourceRequired},
		{name: "negative min depth", modify: func(cfg *config.Config) { cfg.MinDepth = -1 }, wantErr: config.ErrInvalidDepth},
		{name: "negative max depth", modify: func(cfg *config.Config) { cfg.MaxDepth = -2 }, wantErr: config.ErrInvalidDepth},
		{
			name:    "min above max",
			modify:  func(cfg *config.Config) { cfg.MinDepth, cfg.MaxDepth = 3, 2 },
			wantErr: config.ErrInvalidDepth,
		},
		{name: "negative limit", modify: func(cfg *config.Config) { cfg.MaxMessagesPerPoll = -1 }, wantErr: config.ErrInvalidLimit},
		{name: "bad log format", modify: func(cfg *config.Config) { cfg.LogFormat = "xml" }, wantErr: config.ErrInvalidFormat},
		{name: "bad glob", modify: func(cfg *config.Config) { cfg.Exclude = []string{"[oops"} }, errMsg: "[oops"},
		{name: "bad source url", modify: func(cfg *config.Config) { cfg.Source = "sftp://nouser/in" }, errMsg: "invalid source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			cfg := config.Defaults()
			cfg.Source = "/in"
			tt.modify(cfg)

			_, err := config.PostProcessConfig(cfg)
			g.Expect(err).Should(HaveOccurred())

			if tt.wantErr != nil {
				g.Expect(err).Should(MatchError(tt.wantErr))
			}

			if tt.errMsg != "" {
				g.Expect(err.Error()).Should(ContainSubstring(tt.errMsg))
			}
		})
	}
}

func TestPostProcessConfig_NormalizesZeroValues(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg, err := config.PostProcessConfig(&config.Config{Source: "/in", LogFormat: "json"})
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(cfg.MaxDepth).Should(Equal(poller.UnlimitedDepth))
	g.Expect(cfg.Interval).Should(Equal(consumer.DefaultInterval))
	g.Expect(cfg.IdempotentCacheSize).Should(Equal(poller.DefaultIdempotentCacheSize))
	g.Expect(cfg.SFTPPoolSize).Should(BeNumerically(">", 0))
}

func TestConfig_DerivedOptions(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg, err := config.Parse([]string{
		"-s", "/in", "--max-depth", "2", "--pre-sort", "--ignore-not-found-or-permission",
		"-n", "5", "--sort-by", "name", "--lock-file", "/tmp/dirpoll.lock",
		"--s3-region", "eu-west-1",
	})
	g.Expect(err).ShouldNot(HaveOccurred())

	opts := cfg.PollerOptions("/in", "file://")
	g.Expect(opts.Root).Should(Equal("/in"))
	g.Expect(opts.Host).Should(Equal("file://"))
	g.Expect(opts.MaxDepth).Should(Equal(2))
	g.Expect(opts.PreSort).Should(BeTrue())
	g.Expect(opts.IgnoreFileNotFoundOrPermissionError).Should(BeTrue())

	consumerOpts := cfg.ConsumerOptions()
	g.Expect(consumerOpts.MaxMessagesPerPoll).Should(Equal(5))
	g.Expect(consumerOpts.EagerLimit).Should(BeTrue())
	g.Expect(consumerOpts.SortBy).Should(Equal(poller.SortName))
	g.Expect(consumerOpts.LockFile).Should(Equal("/tmp/dirpoll.lock"))

	g.Expect(cfg.SourceOptions().S3.Region).Should(Equal("eu-west-1"))
}

func TestConfig_Filters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		args           []string
		wantLen        int
		wantIdempotent bool
	}{
		{name: "hidden and glob by default", args: nil, wantLen: 2},
		{name: "done file", args: []string{"--done-file-name", "ready"}, wantLen: 3},
		{name: "idempotent last", args: []string{"--done-file-name", "ready", "--idempotent"}, wantLen: 4, wantIdempotent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			cfg, err := config.Parse(append([]string{"-s", "/in"}, tt.args...))
			g.Expect(err).ShouldNot(HaveOccurred())

			chain, idempotent, err := cfg.Filters()
			g.Expect(err).ShouldNot(HaveOccurred())
			g.Expect(chain).Should(HaveLen(tt.wantLen))

			if tt.wantIdempotent {
				g.Expect(idempotent).ShouldNot(BeNil())
				g.Expect(chain[len(chain)-1]).Should(BeIdenticalTo(idempotent))
			} else {
				g.Expect(idempotent).Should(BeNil())
			}
		})
	}
}
