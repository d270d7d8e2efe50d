package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/giftagram/gift-insights/pkg/objectstore"
)

// S3Store is the AWS S3 implementation of the objectstore.Store interface.
type S3Store struct {
	client *awss3.Client
}

// Config holds the configuration for an S3 store. Credentials are optional;
// when empty the default AWS credential chain is used.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

// Factory creates S3 store instances from a generic configuration map.
type Factory struct{}

// NewFactory creates a new S3 store factory.
func NewFactory() *Factory {
	return &Factory{}
}

// CreateStore builds an S3Store from a configuration map.
func (f *Factory) CreateStore(config map[string]interface{}) (objectstore.Store, error) {
	cfg := Config{
		Region: "us-east-1", // Default region
	}

	if region, ok := config["region"].(string); ok {
		cfg.Region = region
	}
	if accessKey, ok := config["accessKeyId"].(string); ok {
		cfg.AccessKeyID = accessKey
	}
	if secretKey, ok := config["secretAccessKey"].(string); ok {
		cfg.SecretAccessKey = secretKey
	}
	if endpoint, ok := config["endpoint"].(string); ok {
		cfg.Endpoint = endpoint
	}

	return NewS3Store(cfg)
}

// NewS3Store creates a new S3-backed store.
func NewS3Store(cfg Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			// Use a custom endpoint (e.g., for local MinIO)
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client}, nil
}

// List implements the Store interface using the ListObjectsV2 paginator.
func (s *S3Store) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string

	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &objectstore.FileListError{Bucket: bucket, Prefix: prefix, Err: err}
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}

	return keys, nil
}

// Get implements the Store interface.
func (s *S3Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &objectstore.FileFetchError{Bucket: bucket, Key: key, Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &objectstore.FileFetchError{Bucket: bucket, Key: key, Err: err}
	}

	return data, nil
}
