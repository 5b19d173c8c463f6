package datastore

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/danthegoodman1/dfgrid/s3_helper"
)

type (
	S3DataStore struct {
		client *s3_helper.Client
	}

	countingReader struct {
		r io.Reader
		n int64
	}
)

func NewS3DataStore(client *s3_helper.Client) *S3DataStore {
	return &S3DataStore{client: client}
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (sds *S3DataStore) WriteFile(ctx context.Context, key string, r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	if _, err := sds.client.WriteBytes(ctx, key, cr, aws.String("application/vnd.apache.parquet")); err != nil {
		return cr.n, err
	}
	return cr.n, nil
}

func (sds *S3DataStore) ReadFile(ctx context.Context, key string) ([]byte, error) {
	return sds.client.ReadBytes(ctx, key)
}

func (sds *S3DataStore) Shutdown(context.Context) error {
	return nil
}
