package filesystem

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Scheme identifies the store a source URL points at.
type Scheme string

// Scheme values.
const (
	SchemeLocal Scheme = "local"
	SchemeSFTP  Scheme = "sftp"
	SchemeS3    Scheme = "s3"
)

// defaultSFTPPort is used when an sftp:// URL omits the port.
const defaultSFTPPort = 22

// ParsedPath represents a local path, an SFTP URL or an S3 URL.
type ParsedPath struct {
	Scheme Scheme

	// For SFTP
	Host     string
	Port     int
	User     string
	Password string

	// For S3
	Bucket string

	// Path is the directory to poll: a local path, a remote SFTP path or an
	// S3 key prefix rooted at "/".
	Path string
}

// IsRemote reports whether the path names a remote store.
func (p *ParsedPath) IsRemote() bool {
	return p.Scheme != SchemeLocal
}

// Endpoint returns a display form of the store without the polled path,
// used as the host of every file found.
func (p *ParsedPath) Endpoint() string {
	switch p.Scheme {
	case SchemeSFTP:
		return fmt.Sprintf("sftp://%s@%s:%d", p.User, p.Host, p.Port)
	case SchemeS3:
		return "s3://" + p.Bucket
	default:
		return "file://"
	}
}

// ParsePath parses a path string, detecting local paths and SFTP or S3 URLs.
// Examples:
//   - sftp://joe@myserver.com/home/joe/data
//   - sftp://joe@myserver.com:2222//srv/inbox (absolute remote path)
//   - s3://my-bucket/inbox
//   - /local/path/to/files (local path)
func ParsePath(path string) (*ParsedPath, error) {
	switch {
	case strings.HasPrefix(path, "sftp://"):
		return parseSFTPURL(path)
	case strings.HasPrefix(path, "s3://"):
		return parseS3URL(path)
	}

	return &ParsedPath{
		Scheme: SchemeLocal,
		Path:   path,
	}, nil
}

// parseSFTPURL parses an SFTP URL into its components.
//
//nolint:cyclop // Complexity from comprehensive SFTP URL validation (scheme, user, host, port, path)
func parseSFTPURL(sftpURL string) (*ParsedPath, error) {
	u, err := url.Parse(sftpURL) //nolint:varnamelen // u is idiomatic for URL
	if err != nil {
		return nil, fmt.Errorf("invalid SFTP URL: %w", err)
	}

	if u.User == nil || u.User.Username() == "" {
		return nil, fmt.Errorf("SFTP URL must include username (sftp://user@host/path)") //nolint:err113,perfsprint,lll // URL validation with format guidance
	}
	user := u.User.Username()
	password, _ := u.User.Password()

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("SFTP URL must include host") //nolint:err113,perfsprint // URL validation error
	}

	port := defaultSFTPPort
	if portStr := u.Port(); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port number: %w", err)
		}
		port = p
	}

	// SFTP path convention:
	//   sftp://user@host/path  → relative to home directory (strip leading /)
	//   sftp://user@host//path → absolute path /path (strip one /)
	//   sftp://user@host       → home directory (.)
	remotePath := u.Path
	//nolint:gocritic // if-else chain is clearer than switch for mixed conditions (OR, prefix check, fallthrough)
	if remotePath == "" || remotePath == "/" {
		remotePath = "."
	} else if strings.HasPrefix(remotePath, "//") {
		remotePath = remotePath[1:]
	} else {
		remotePath = strings.TrimPrefix(remotePath, "/")
	}

	return &ParsedPath{
		Scheme:   SchemeSFTP,
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		Path:     remotePath,
	}, nil
}

// parseS3URL parses s3://bucket/prefix. The prefix is returned rooted at "/".
func parseS3URL(s3URL string) (*ParsedPath, error) {
	u, err := url.Parse(s3URL) //nolint:varnamelen // u is idiomatic for URL
	if err != nil {
		return nil, fmt.Errorf("invalid S3 URL: %w", err)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("S3 URL must include bucket (s3://bucket/prefix)") //nolint:err113,perfsprint // URL validation with format guidance
	}

	prefix := "/" + strings.Trim(u.Path, "/")

	return &ParsedPath{
		Scheme: SchemeS3,
		Bucket: u.Host,
		Path:   prefix,
	}, nil
}
