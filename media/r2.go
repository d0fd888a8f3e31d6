package media

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type R2Config struct {
	Bucket          string
	Endpoint        string // https://<account-id>.r2.cloudflarestorage.com
	AccessKeyID     string
	SecretAccessKey string
	PublicDomain    string // custom domain or r2.dev URL
}

// R2Store keeps objects in a Cloudflare R2 bucket through the S3 API.
type R2Store struct {
	client *s3.Client
	cfg    R2Config
}

func NewR2Store(ctx context.Context, cfg R2Config) (*R2Store, error) {
	if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Endpoint == "" || cfg.PublicDomain == "" {
		return nil, fmt.Errorf("r2: bucket, endpoint, public domain and credentials are required")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	cfg.PublicDomain = strings.TrimRight(cfg.PublicDomain, "/")
	return &R2Store{client: client, cfg: cfg}, nil
}

func (s *R2Store) Upload(ctx context.Context, localPath string) (Uploaded, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return Uploaded{}, fmt.Errorf("os.Open: %w", err)
	}
	defer f.Close()

	name := objectName(localPath, time.Now())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.Bucket),
		Key:          aws.String(name),
		Body:         f,
		ContentType:  aws.String(contentType(localPath)),
		CacheControl: aws.String("public, max-age=86400"),
	})
	if err != nil {
		return Uploaded{}, fmt.Errorf("upload %s: %w", name, err)
	}
	return Uploaded{URL: s.publicURL(name), ObjectName: name}, nil
}

func (s *R2Store) Delete(ctx context.Context, rawURL string) error {
	name, err := ObjectNameFromR2URL(s.cfg.PublicDomain, s.cfg.Bucket, rawURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (s *R2Store) publicURL(name string) string {
	return fmt.Sprintf("%s/%s/%s", s.cfg.PublicDomain, s.cfg.Bucket, name)
}

// ObjectNameFromR2URL returns the object key of a URL built by publicURL.
// URLs on any other host or bucket are refused so that Delete never touches
// objects this store did not hand out.
func ObjectNameFromR2URL(domain, bucket, raw string) (string, error) {
	domain = strings.TrimRight(domain, "/")
	if domain == "" {
		return "", fmt.Errorf("r2 public domain is not configured")
	}
	prefix := domain + "/" + bucket + "/"
	if !strings.HasPrefix(raw, prefix) {
		return "", fmt.Errorf("not a url of bucket %s", bucket)
	}
	name := strings.TrimPrefix(raw, prefix)
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, "?#") {
		return "", fmt.Errorf("no object path in url")
	}
	return name, nil
}
