package filesystem

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Delimiter turns flat S3 keys into a directory hierarchy.
const s3Delimiter = "/"

// S3Options configures an S3 lister.
type S3Options struct {
	Bucket string
	Region string

	// Endpoint selects an S3-compatible service (MinIO, LocalStack) and
	// switches to path-style addressing.
	Endpoint string

	// AccessKeyID and SecretAccessKey override the default credential chain.
	AccessKeyID     string
	SecretAccessKey string
}

// S3FileSystem implements Lister on an S3 bucket using delimiter listings:
// common prefixes are directories and objects are files.
type S3FileSystem struct {
	client s3.ListObjectsV2APIClient
	bucket string
}

// NewS3FileSystem builds an S3 client from opts and the default AWS config chain.
func NewS3FileSystem(ctx context.Context, opts S3Options) (*S3FileSystem, error) {
	loadOpts := []func(*config.LoadOptions) error{}

	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}

	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3FileSystemWithClient(client, opts.Bucket), nil
}

// NewS3FileSystemWithClient creates an S3 lister over an existing client.
func NewS3FileSystemWithClient(client s3.ListObjectsV2APIClient, bucket string) *S3FileSystem {
	return &S3FileSystem{client: client, bucket: bucket}
}

// List returns the prefixes and objects directly under dir, ordered by key.
// A prefix with no objects lists as empty: S3 has no missing directories.
func (fsys *S3FileSystem) List(ctx context.Context, dir string) ([]Entry, error) {
	prefix := s3Prefix(dir)

	paginator := s3.NewListObjectsV2Paginator(fsys.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(fsys.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String(s3Delimiter),
	})

	var entries []Entry

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, NewListError(dir, err)
		}

		for _, common := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(common.Prefix), prefix), s3Delimiter)
			if name == "" {
				continue
			}

			entries = append(entries, Entry{Name: name, IsDir: true, Raw: common})
		}

		for _, object := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(object.Key), prefix)
			// Folder markers created by consoles
			if name == "" || strings.HasSuffix(name, s3Delimiter) {
				continue
			}

			entries = append(entries, Entry{
				Name:    name,
				Size:    aws.ToInt64(object.Size),
				ModTime: object.LastModified,
				Raw:     object,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

// s3Prefix maps a directory path onto a key prefix: "/" and "" become the
// bucket root, anything else gains a trailing delimiter.
func s3Prefix(dir string) string {
	prefix := strings.Trim(dir, s3Delimiter)
	if prefix == "" || prefix == "." {
		return ""
	}

	return prefix + s3Delimiter
}
