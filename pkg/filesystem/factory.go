package filesystem

import (
	"context"
	"fmt"
)

// Source is an opened store ready to be polled.
type Source struct {
	// Lister lists directories of the store.
	Lister Lister

	// Root is the directory to poll, in the Lister's path syntax.
	Root string

	// Host identifies the store in the files it yields.
	Host string

	closer func() error
}

// Close releases connections held by the source. Safe on a local source.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer()
}

// DefaultSFTPPoolSize is the session cap used when none is configured.
const DefaultSFTPPoolSize = 2

// SourceOptions carries store settings that do not fit in the source URL.
type SourceOptions struct {
	S3             S3Options
	SFTPPoolSize   int
	KnownHostsFile string
}

// CreateSource opens the store named by pathStr: a local path, sftp://user@host/path
// or s3://bucket/prefix.
func CreateSource(ctx context.Context, pathStr string, opts SourceOptions) (*Source, error) {
	parsed, err := ParsePath(pathStr)
	if err != nil {
		return nil, err
	}

	switch parsed.Scheme {
	case SchemeSFTP:
		return createSFTPSource(ctx, parsed, opts)
	case SchemeS3:
		s3Opts := opts.S3
		s3Opts.Bucket = parsed.Bucket

		lister, err := NewS3FileSystem(ctx, s3Opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client for %s: %w", parsed.Bucket, err)
		}

		return &Source{Lister: lister, Root: parsed.Path, Host: parsed.Endpoint()}, nil
	default:
		return &Source{Lister: NewRealFileSystem(), Root: parsed.Path, Host: parsed.Endpoint()}, nil
	}
}

func createSFTPSource(ctx context.Context, parsed *ParsedPath, opts SourceOptions) (*Source, error) {
	conn, err := Connect(ctx, ConnectOptions{
		Host:           parsed.Host,
		Port:           parsed.Port,
		User:           parsed.User,
		Password:       parsed.Password,
		KnownHostsFile: opts.KnownHostsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s@%s:%d: %w",
			parsed.User, parsed.Host, parsed.Port, err)
	}

	poolSize := opts.SFTPPoolSize
	if poolSize <= 0 {
		poolSize = DefaultSFTPPoolSize
	}

	pool, err := NewSFTPClientPool(conn.NewClient, poolSize)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create SFTP client pool: %w", err)
	}

	lister := NewSFTPFileSystem(pool)

	return &Source{
		Lister: lister,
		Root:   parsed.Path,
		Host:   parsed.Endpoint(),
		closer: func() error {
			poolErr := lister.Close()
			connErr := conn.Close()

			if poolErr != nil {
				return poolErr
			}

			return connErr
		},
	}, nil
}
