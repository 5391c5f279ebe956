package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/ashdiag/internal/server/config"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// S3Archiver stores each report as JSON in an S3-compatible bucket.
type S3Archiver struct {
	bucket   string
	region   string
	endpoint string
	user     string
	password string

	mu     sync.Mutex
	client *s3.Client
}

func NewS3Archiver(cfg *sc.Config) *S3Archiver {
	return &S3Archiver{
		bucket:   cfg.S3Bucket,
		region:   cfg.S3Region,
		endpoint: cfg.S3BaseEndpoint,
		user:     cfg.S3RootUser,
		password: cfg.S3RootPassword,
	}
}

// ArchiveKey is the object key for d: diagnostics/YYYY/MM/DD/<id>.json.
func ArchiveKey(d *models.Diagnostic) string {
	t := d.CreatedAt.UTC()
	return fmt.Sprintf("diagnostics/%04d/%02d/%02d/%s.json", t.Year(), t.Month(), t.Day(), d.ID)
}

func (a *S3Archiver) Send(ctx context.Context, d *models.Diagnostic) error {
	c, err := a.getClient(ctx)
	if err != nil {
		return fmt.Errorf("s3 client: %w", err)
	}

	body, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}

	_, err = putObject(c, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(ArchiveKey(d)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put: %w", err)
	}
	return nil
}

func (a *S3Archiver) getClient(ctx context.Context) (*s3.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(a.region)}
	if a.user != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(a.user, a.password, "")))
	}
	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	a.client = newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if a.endpoint != "" {
			o.BaseEndpoint = aws.String(a.endpoint)
			o.UsePathStyle = true
		}
	})
	return a.client, nil
}
