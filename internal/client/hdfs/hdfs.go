// Package hdfs is the file system entry point of the client. The first
// Initialize binds the process to one cluster authority and warms the shared
// file system context; later calls for the same authority reuse it
package hdfs

import (
	"context"
	"net/url"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"dfsclient/internal/client/fscontext"
	perr "dfsclient/internal/platform/errors"
	"dfsclient/internal/platform/logger"
	"dfsclient/internal/platform/store"
)

// Scheme is the URI scheme served by this package
const Scheme = "dfs"

var (
	initialized atomic.Bool
	mu          sync.Mutex // guards authority and the initialize transition
	authority   string
)

// FileSystem is a handle on one cluster
type FileSystem struct {
	uri *url.URL
	fsc *fscontext.Context
}

// Option configures Initialize
type Option func(*options)

type options struct {
	fsc *fscontext.Context
}

// WithContext uses fsc instead of the process-wide file system context
func WithContext(fsc *fscontext.Context) Option {
	return func(o *options) { o.fsc = fsc }
}

// Initialize returns a FileSystem for uri, of the form dfs://host:port. The
// first successful call records the authority; a later call naming another
// authority fails with InvalidArgument until ResetForTesting
func Initialize(ctx context.Context, uri string, opts ...Option) (*FileSystem, error) {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.fsc == nil {
		o.fsc = fscontext.Instance()
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "hdfs: parse %q", uri)
	}
	if u.Scheme != Scheme {
		return nil, perr.InvalidArgf("hdfs: unsupported scheme %q, want %q", u.Scheme, Scheme)
	}
	if u.Host == "" {
		return nil, perr.InvalidArgf("hdfs: %q has no authority", uri)
	}
	fs := &FileSystem{uri: &url.URL{Scheme: Scheme, Host: strings.ToLower(u.Host)}, fsc: o.fsc}

	mu.Lock()
	defer mu.Unlock()
	if initialized.Load() {
		if authority != fs.uri.Host {
			return nil, perr.InvalidArgf("hdfs: already initialized for %s, got %s", authority, fs.uri.Host)
		}
		return fs, nil
	}

	st, err := o.fsc.Store(ctx)
	if err != nil {
		return nil, perr.WithOp(err, "hdfs.initialize")
	}
	if err := st.Guard(ctx); err != nil {
		return nil, perr.WithOp(perr.Wrap(err, perr.ErrorCodeUnavailable, "hdfs: metadata store not ready"), "hdfs.initialize")
	}
	authority = fs.uri.Host
	initialized.Store(true)
	logger.Named("hdfs").Info().Str("authority", authority).Msg("file system initialized")
	return fs, nil
}

// Initialized reports whether a FileSystem has been initialized in this process
func Initialized() bool { return initialized.Load() }

// ResetForTesting clears the initialization guard so the next Initialize
// runs in full. Shared contexts are reset separately
func ResetForTesting() {
	mu.Lock()
	defer mu.Unlock()
	initialized.Store(false)
	authority = ""
}

// InitFlag is the package initialization guard as a value
type InitFlag struct{}

// ResetForTesting calls the package level ResetForTesting
func (InitFlag) ResetForTesting() { ResetForTesting() }

// Flag exposes ResetForTesting as a value, for callers that collect
// reinitializable components
var Flag InitFlag

// URI returns the normalized dfs://authority of the file system
func (fs *FileSystem) URI() string { return fs.uri.String() }

// Exists reports whether p is present in the metadata store's inodes table
func (fs *FileSystem) Exists(ctx context.Context, p string) (bool, error) {
	if !strings.HasPrefix(p, "/") {
		return false, perr.InvalidArgf("hdfs: path %q is not absolute", p)
	}
	st, err := fs.fsc.Store(ctx)
	if err != nil {
		return false, err
	}
	if st.PG == nil {
		return false, perr.Unavailablef("hdfs: no metadata store configured")
	}

	ok, err := exists(ctx, st.PG, path.Clean(p))
	if err != nil && perr.IsRetryable(err) {
		ok, err = exists(ctx, st.PG, path.Clean(p))
	}
	switch {
	case err == nil:
		return ok, nil
	case perr.IsUndefinedTable(err):
		return false, perr.Wrap(err, perr.ErrorCodeNotFound, "hdfs: metadata schema missing (inodes)")
	default:
		return false, perr.FromPostgresf(err, "hdfs: exists %s", p)
	}
}

// exists runs one lookup; transient failures get a single retry from Exists
func exists(ctx context.Context, q store.Querier, p string) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inodes WHERE path = $1)`, p).Scan(&ok)
	return ok, err
}
