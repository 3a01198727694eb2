package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jhoicas/seikyu-api/internal/application/billing"
	"github.com/jhoicas/seikyu-api/pkg/config"
)

var _ billing.DocumentStore = (*S3Store)(nil)

// PutObjectAPI la parte del cliente S3 que se usa (permite un fake en tests).
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store guarda los documentos generados en un bucket.
type S3Store struct {
	client PutObjectAPI
	bucket string
}

// NewS3Store crea el cliente con credenciales estáticas si están configuradas; si no,
// usa la cadena por defecto del SDK (rol IAM, perfil, etc.).
func NewS3Store(ctx context.Context, cfg config.StorageConfig) (*S3Store, error) {
	if cfg.AWSS3Bucket == "" {
		return nil, fmt.Errorf("storage s3: AWS_S3_BUCKET vacío")
	}
	opts := []func(*aws_config.LoadOptions) error{aws_config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}
	awsCfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage s3: cargar configuración AWS: %w", err)
	}
	return NewS3StoreWithClient(s3.NewFromConfig(awsCfg), cfg.AWSS3Bucket), nil
}

// NewS3StoreWithClient construye el store sobre un cliente ya creado.
func NewS3StoreWithClient(client PutObjectAPI, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Put sube el objeto; una clave existente se sobrescribe.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("storage s3: subir %s/%s: %w", s.bucket, key, err)
	}
	return nil
}
