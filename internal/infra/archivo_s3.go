package infra

// archivo_s3.go
// Uploads generated PDFs (close reports) to an S3-compatible bucket so they
// survive the host. MinIO and similar stores work through S3_ENDPOINT.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"acopio/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// objectPutter is the subset of *s3.Client used here.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver stores files under a key prefix of one bucket.
type S3Archiver struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3Archiver returns nil without error when S3_BUCKET is empty, which
// leaves archiving disabled.
func NewS3Archiver(ctx context.Context, cfg *config.Config) (*S3Archiver, error) {
	if cfg.S3Bucket == "" {
		return nil, nil
	}
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, errors.New("S3_ACCESS_KEY y S3_SECRET_KEY son obligatorios con S3_BUCKET")
	}
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey, cfg.S3SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.UsePathStyle = true
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})
	log.Info().Str("bucket", cfg.S3Bucket).Str("region", region).Msg("archivo S3 habilitado")
	return &S3Archiver{client: client, bucket: cfg.S3Bucket, prefix: "reportes"}, nil
}

// Archivar uploads the file at path under <prefix>/<key> and returns the
// object key.
func (a *S3Archiver) Archivar(ctx context.Context, key, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("abrir %s: %w", path, err)
	}
	defer f.Close()

	objectKey := strings.TrimPrefix(a.prefix+"/"+strings.TrimPrefix(key, "/"), "/")
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(objectKey),
		Body:        f,
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("subir %s a s3://%s: %w", objectKey, a.bucket, err)
	}
	return objectKey, nil
}
