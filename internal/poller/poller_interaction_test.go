//go:build imptest

//go:generate go tool impgen --dependency filesystem.Lister
//go:generate go tool impgen --target poller.Poller.Poll

//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package poller_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/dirpoll/internal/poller"
	"github.com/joe/dirpoll/pkg/filesystem"
)

// TestPollerPoll_ListsDepthFirstOnDemand drives the poller one listing at a
// time and checks each directory is listed only when reached.
func TestPollerPoll_ListsDepthFirstOnDemand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	listerImp := NewListerImp(t)

	p := poller.New(listerImp.Mock, poller.DefaultOptions("/in"))

	poll := NewPollerPoll(t, p.Poll)
	poll.Start(ctx)

	listerImp.ExpectCallIs.List().ExpectArgsAre(ctx, "/in").InjectResults([]filesystem.Entry{
		{Name: "a.txt", Size: 1},
		{Name: "sub", IsDir: true},
		{Name: "b.txt", Size: 2},
	}, nil)
	listerImp.ExpectCallIs.List().ExpectArgsAre(ctx, "/in/sub").InjectResults([]filesystem.Entry{
		{Name: "c.txt", Size: 3},
	}, nil)

	poll.ExpectReturnedValuesShould(
		And(
			HaveField("Files", WithTransform(relativePaths, Equal([]string{"a.txt", "sub/c.txt", "b.txt"}))),
			HaveField("Exhausted", BeFalse()),
		),
		BeNil(),
	)
}

// TestPollerPoll_NoListingAfterCapacity checks a full cycle returns without
// listing the remaining directory.
func TestPollerPoll_NoListingAfterCapacity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	listerImp := NewListerImp(t)

	p := poller.New(listerImp.Mock, poller.DefaultOptions("/in"))
	p.SetCapacity(poller.MaxMessages{Max: 1, Eager: true})

	poll := NewPollerPoll(t, p.Poll)
	poll.Start(ctx)

	listerImp.ExpectCallIs.List().ExpectArgsAre(ctx, "/in").InjectResults([]filesystem.Entry{
		{Name: "a.txt", Size: 1},
		{Name: "sub", IsDir: true},
	}, nil)

	poll.ExpectReturnedValuesShould(
		And(
			HaveField("Files", WithTransform(relativePaths, Equal([]string{"a.txt"}))),
			HaveField("Exhausted", BeTrue()),
		),
		BeNil(),
	)
}

// TestPollerPoll_FatalListingKeepsEarlierFiles checks a failing subdirectory
// ends the cycle with the files found before it.
func TestPollerPoll_FatalListingKeepsEarlierFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	listerImp := NewListerImp(t)

	p := poller.New(listerImp.Mock, poller.DefaultOptions("/in"))

	poll := NewPollerPoll(t, p.Poll)
	poll.Start(ctx)

	listerImp.ExpectCallIs.List().ExpectArgsAre(ctx, "/in").InjectResults([]filesystem.Entry{
		{Name: "a.txt", Size: 1},
		{Name: "sub", IsDir: true},
		{Name: "b.txt", Size: 2},
	}, nil)
	listerImp.ExpectCallIs.List().ExpectArgsAre(ctx, "/in/sub").InjectResults(
		nil, filesystem.NewListError("/in/sub", errors.New("connection reset by peer")),
	)

	poll.ExpectReturnedValuesShould(
		HaveField("Files", WithTransform(relativePaths, Equal([]string{"a.txt"}))),
		MatchError(ContainSubstring("failed to poll directory /in/sub")),
	)
}
