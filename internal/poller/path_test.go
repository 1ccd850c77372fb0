//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package poller

import (
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/dirpoll/pkg/filesystem"
)

func TestTrimTrailingSeparator(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/in/":   "/in",
		"/in//":  "/in",
		"/in":    "/in",
		"/":      "/",
		"//":     "/",
		"in/":    "in",
		"":       "",
		"/a/b/c": "/a/b/c",
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			g.Expect(TrimTrailingSeparator(input)).Should(Equal(want))
		})
	}
}

func TestConcat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dir, name, want string
	}{
		{dir: "/in", name: "a.txt", want: "/in/a.txt"},
		{dir: "/in/", name: "a.txt", want: "/in/a.txt"},
		{dir: "/in", name: "/a.txt", want: "/in/a.txt"},
		{dir: "/", name: "a.txt", want: "/a.txt"},
		{dir: "", name: "a.txt", want: "a.txt"},
		{dir: "in", name: "sub", want: "in/sub"},
	}

	for _, tt := range tests {
		t.Run(tt.dir+"+"+tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			g.Expect(Concat(tt.dir, tt.name)).Should(Equal(tt.want))
		})
	}
}

func TestStripPathAndIsAbsolute(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(StripPath("/sub/report.done")).Should(Equal("report.done"))
	g.Expect(StripPath("report.done")).Should(Equal("report.done"))
	g.Expect(StripPath("/in/sub/")).Should(Equal("sub"))
	g.Expect(IsAbsolute("/in")).Should(BeTrue())
	g.Expect(IsAbsolute("in")).Should(BeFalse())
	g.Expect(EnsureRelative("//a/b")).Should(Equal("a/b"))
}

func TestRelativeTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		root   string
		abs    string
		want   string
		wantOK bool
	}{
		{name: "nested", root: "/data", abs: "/data/a/b/c.txt", want: "a/b/c.txt", wantOK: true},
		{name: "trailing separator", root: "/data/", abs: "/data/a.txt", want: "a.txt", wantOK: true},
		{name: "root itself", root: "/data", abs: "/data", want: "", wantOK: true},
		{name: "store root", root: "/", abs: "/a/b.txt", want: "a/b.txt", wantOK: true},
		{name: "relative root", root: "in", abs: "in/a.txt", want: "a.txt", wantOK: true},
		{name: "empty root", root: "", abs: "a/b.txt", want: "a/b.txt", wantOK: true},
		{name: "dot root", root: ".", abs: "./a.txt", want: "a.txt", wantOK: true},
		{name: "sibling prefix", root: "/data", abs: "/database/a.txt", want: "base/a.txt", wantOK: false},
		{name: "root inside path", root: "in", abs: "/home/u/in/a.txt", want: "a.txt", wantOK: false},
		{name: "unrelated", root: "/data", abs: "/other/a.txt", want: "other/a.txt", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			got, ok := RelativeTo(tt.root, tt.abs)
			g.Expect(got).Should(Equal(tt.want))
			g.Expect(ok).Should(Equal(tt.wantOK))
		})
	}
}

func TestDescriptorFactory_FallbackIsReported(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var fallbacks []string

	factory := &descriptorFactory{
		endpointPath: "in",
		onFallback: func(_, abs string) {
			fallbacks = append(fallbacks, abs)
		},
	}

	file, err := factory.build("/home/u/in", filesystem.Entry{Name: "a.txt", Size: 3})
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(file.RelativeFilePath).Should(Equal("a.txt"))
	g.Expect(file.Absolute).Should(BeTrue())
	g.Expect(fallbacks).Should(Equal([]string{"/home/u/in/a.txt"}))
}

func TestDescriptorFactory_SupplierBuildsOnce(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	calls := 0
	factory := &descriptorFactory{
		endpointPath: "/in",
		onFallback:   func(_, _ string) { calls++ },
	}

	modTime := time.UnixMilli(1_700_000_000_000)
	supplier := factory.supplier("/elsewhere", filesystem.Entry{Name: "a.txt", ModTime: &modTime})

	first, err := supplier()
	g.Expect(err).ShouldNot(HaveOccurred())
	second, _ := supplier()

	g.Expect(first).Should(BeIdenticalTo(second))
	g.Expect(first.LastModified).Should(Equal(int64(1_700_000_000_000)))
	g.Expect(calls).Should(Equal(1))
}

func TestDescriptorFactory_InvalidNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", ".", "..", "a/b"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			_, err := (&descriptorFactory{endpointPath: "/in"}).build("/in", filesystem.Entry{Name: name})
			g.Expect(err).Should(MatchError(ErrInvalidEntryName))
		})
	}
}

func TestClassifyAndListing(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(classify(filesystem.Entry{Name: "d", IsDir: true})).Should(BeAssignableToTypeOf(directoryEntry{}))
	g.Expect(classify(filesystem.Entry{Name: "f"})).Should(BeAssignableToTypeOf(fileEntry{}))

	g.Expect(entriesListing(nil).kind).Should(Equal(listingEmpty))
	g.Expect(entriesListing([]filesystem.Entry{{Name: "f"}}).kind).Should(Equal(listingEntries))

	input := []filesystem.Entry{{Name: "b"}, {Name: "a"}, {Name: "b", IsDir: true}}
	sorted := sortByName(input)
	g.Expect(sorted[0].Name).Should(Equal("a"))
	g.Expect(sorted[1].IsDir).Should(BeFalse(), "equal names keep listing order")
	g.Expect(input[0].Name).Should(Equal("b"), "input is not modified")
}
