package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 stores images in an S3-compatible bucket using path-style addressing so
// self-hosted object stores work unchanged.
type S3 struct {
	client    *s3.Client
	bucket    string
	endpoint  string
	publicURL string
}

// NewS3 builds an S3 blob store with static credentials. Returns an error if
// the endpoint or credentials are missing.
func NewS3(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*S3, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, fmt.Errorf("s3 storage requires endpoint, credentials, and bucket")
	}
	endpoint = strings.TrimRight(endpoint, "/")

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &S3{
		client:    client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (c *S3) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	ref := makeRef(time.Now(), filename)

	// Buffer so the SDK gets a seekable body with a known length.
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("s3 read upload: %w", err)
	}

	_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(ref),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", ref, err)
	}
	return ref, nil
}

func (c *S3) Fetch(ctx context.Context, ref string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 download %s: %w", ref, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read body %s: %w", ref, err)
	}
	return data, nil
}

func (c *S3) Delete(ctx context.Context, ref string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", ref, err)
	}
	return nil
}

func (c *S3) URL(ref string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + ref
	}
	return c.endpoint + "/" + c.bucket + "/" + ref
}
