package report

import (
	"context"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// Stdout is the destination name for standard output
	Stdout = "-"

	gcsScheme = "gs://"
)

// ErrInvalidDestination is returned for malformed report destinations
var ErrInvalidDestination = goerr.New("invalid report destination")

// ParseGCSURL splits a gs://bucket/object URL. ok is false when dest is not a
// Cloud Storage URL.
func ParseGCSURL(dest string) (bucket, object string, ok bool, err error) {
	if !strings.HasPrefix(dest, gcsScheme) {
		return "", "", false, nil
	}

	bucket, object, found := strings.Cut(strings.TrimPrefix(dest, gcsScheme), "/")
	if !found || bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return "", "", true, goerr.Wrap(ErrInvalidDestination, "gs:// URL needs bucket and object", goerr.V("destination", dest))
	}
	return bucket, object, true, nil
}

// Open returns a writer for a report destination: "-" for stdout, a
// gs://bucket/object URL, or a local file path. Cloud Storage objects are
// committed on Close, so callers must check its error.
func Open(ctx context.Context, dest, contentType string) (io.WriteCloser, error) {
	if dest == Stdout || dest == "" {
		return nopCloser{Writer: os.Stdout}, nil
	}

	bucket, object, ok, err := ParseGCSURL(dest)
	if err != nil {
		return nil, err
	}
	if ok {
		return openGCS(ctx, bucket, object, contentType)
	}

	f, err := os.Create(dest)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create report file", goerr.V("path", dest))
	}
	return f, nil
}

func openGCS(ctx context.Context, bucket, object, contentType string) (io.WriteCloser, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	return &gcsWriter{Writer: w, client: client, bucket: bucket, object: object}, nil
}

type gcsWriter struct {
	*storage.Writer
	client *storage.Client
	bucket string
	object string
}

func (x *gcsWriter) Close() error {
	defer x.client.Close()
	if err := x.Writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to upload report",
			goerr.V("bucket", x.bucket),
			goerr.V("object", x.object),
		)
	}
	return nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
