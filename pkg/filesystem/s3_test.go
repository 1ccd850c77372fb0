//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package filesystem_test

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	pkgerrors "github.com/joe/dirpoll/pkg/errors"
	"github.com/joe/dirpoll/pkg/filesystem"
)

// mockS3Client implements s3.ListObjectsV2APIClient with a function field.
type mockS3Client struct {
	ListObjectsV2Func func(ctx context.Context, params *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error)
	inputs            []*s3.ListObjectsV2Input
}

func (m *mockS3Client) ListObjectsV2(
	ctx context.Context,
	params *s3.ListObjectsV2Input,
	_ ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	m.inputs = append(m.inputs, params)

	return m.ListObjectsV2Func(ctx, params)
}

func TestS3FileSystem_ListMapsPrefixesAndObjects(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	modTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &mockS3Client{
		ListObjectsV2Func: func(_ context.Context, params *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{
				CommonPrefixes: []types.CommonPrefix{{Prefix: aws.String("in/2024/")}},
				Contents: []types.Object{
					{Key: aws.String("in/"), Size: aws.Int64(0)},
					{Key: aws.String("in/b.csv"), Size: aws.Int64(42), LastModified: &modTime},
					{Key: aws.String("in/a.csv"), Size: aws.Int64(7)},
				},
			}, nil
		},
	}

	lister := filesystem.NewS3FileSystemWithClient(client, "inbox")

	entries, err := lister.List(context.Background(), "/in")
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(entryNames(entries)).Should(Equal([]string{"2024", "a.csv", "b.csv"}))

	g.Expect(entries[0].IsDir).Should(BeTrue())
	g.Expect(entries[1].ModTime).Should(BeNil())
	g.Expect(entries[2].Size).Should(Equal(int64(42)))
	g.Expect(*entries[2].ModTime).Should(Equal(modTime))

	g.Expect(client.inputs).Should(HaveLen(1))
	g.Expect(aws.ToString(client.inputs[0].Bucket)).Should(Equal("inbox"))
	g.Expect(aws.ToString(client.inputs[0].Prefix)).Should(Equal("in/"))
	g.Expect(aws.ToString(client.inputs[0].Delimiter)).Should(Equal("/"))
}

func TestS3FileSystem_ListRootUsesEmptyPrefix(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	client := &mockS3Client{
		ListObjectsV2Func: func(_ context.Context, _ *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{{Key: aws.String("top.txt"), Size: aws.Int64(1)}},
			}, nil
		},
	}

	entries, err := filesystem.NewS3FileSystemWithClient(client, "inbox").List(context.Background(), "/")
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(entryNames(entries)).Should(Equal([]string{"top.txt"}))
	g.Expect(aws.ToString(client.inputs[0].Prefix)).Should(BeEmpty())
}

func TestS3FileSystem_ListFollowsContinuationTokens(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	client := &mockS3Client{
		ListObjectsV2Func: func(_ context.Context, params *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			if params.ContinuationToken == nil {
				return &s3.ListObjectsV2Output{
					Contents:              []types.Object{{Key: aws.String("in/a.csv"), Size: aws.Int64(1)}},
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("page-2"),
				}, nil
			}

			return &s3.ListObjectsV2Output{
				Contents: []types.Object{{Key: aws.String("in/b.csv"), Size: aws.Int64(1)}},
			}, nil
		},
	}

	entries, err := filesystem.NewS3FileSystemWithClient(client, "inbox").List(context.Background(), "in/")
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(entryNames(entries)).Should(Equal([]string{"a.csv", "b.csv"}))
	g.Expect(client.inputs).Should(HaveLen(2))
	g.Expect(aws.ToString(client.inputs[1].ContinuationToken)).Should(Equal("page-2"))
}

func TestS3FileSystem_ListErrorsAreClassified(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		code     string
		want     pkgerrors.ErrorCategory
		ignoreOK bool
	}{
		{name: "missing bucket", code: "NoSuchBucket", want: pkgerrors.CategoryPath, ignoreOK: true},
		{name: "access denied", code: "AccessDenied", want: pkgerrors.CategoryPermission, ignoreOK: true},
		{name: "throttled", code: "SlowDown", want: pkgerrors.CategoryThrottled},
		{name: "expired token", code: "ExpiredToken", want: pkgerrors.CategoryAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			client := &mockS3Client{
				ListObjectsV2Func: func(_ context.Context, _ *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
					return nil, &smithy.GenericAPIError{Code: tt.code, Message: tt.name}
				},
			}

			_, err := filesystem.NewS3FileSystemWithClient(client, "inbox").List(context.Background(), "/in")
			g.Expect(err).Should(HaveOccurred())
			g.Expect(pkgerrors.Classify(err)).Should(Equal(tt.want))
			g.Expect(filesystem.IsNotFoundOrPermission(err)).Should(Equal(tt.ignoreOK))
		})
	}
}
