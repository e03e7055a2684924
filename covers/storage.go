// Package covers stores blog cover images in S3-compatible object storage
// and hands back the public URL used when publishing. Image generation is
// deliberately absent; the source image comes from configuration.
package covers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const fetchTimeout = 30 * time.Second

// Config describes the target bucket. Credentials resolve through the
// standard AWS config chain.
type Config struct {
	Bucket       string
	Region       string
	Prefix       string
	UsePathStyle bool
}

// Storage uploads cover images to one bucket/prefix.
type Storage struct {
	client *s3.Client
	bucket string
	prefix string
	region string

	// fetch retrieves the source image; swappable in tests.
	fetch func(ctx context.Context, url string) (io.ReadCloser, string, error)
}

// New creates cover storage using the default AWS configuration chain.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("cover storage bucket is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &Storage{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		region: awsCfg.Region,
		fetch:  fetchImage,
	}, nil
}

// UploadFromURL copies the image at sourceURL into the bucket under a key
// derived from slug and returns the uploaded object's public URL.
func (s *Storage) UploadFromURL(ctx context.Context, sourceURL, slug string) (string, error) {
	body, contentType, err := s.fetch(ctx, sourceURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch cover source: %w", err)
	}
	defer body.Close()

	key := s.key(slug, contentType)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload cover: %w", err)
	}

	return s.publicURL(key), nil
}

func (s *Storage) key(slug, contentType string) string {
	ext := ".jpg"
	switch contentType {
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	}
	name := fmt.Sprintf("%s-%d%s", slug, time.Now().UTC().Unix(), ext)
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *Storage) publicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func fetchImage(ctx context.Context, url string) (io.ReadCloser, string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, "", fmt.Errorf("cover source returned status %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}, contentType, nil
}

// cancelReadCloser releases the request context when the body is closed.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	c.cancel()
	return c.ReadCloser.Close()
}
