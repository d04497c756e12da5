//go:build integration
// +build integration

package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"

	"github.com/williamokano/s3transfer/pkg/auth"
	"github.com/williamokano/s3transfer/pkg/storage"
)

func TestTransferToS3Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	lsContainer, endpoint, err := setupLocalStackContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to start LocalStack: %v", err)
	}
	defer lsContainer.Terminate(ctx)

	keys := auth.KeyPair{AccessKey: "test", SecretKey: "test"}
	client := newS3Client(t, ctx, endpoint, keys)

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String("transfers")})
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "report")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("quarterly numbers"), 0o644))

	w := New(ctx, Options{
		Storage: storage.Config{
			Type:           "s3",
			Bucket:         "transfers",
			Region:         "us-east-1",
			Endpoint:       endpoint,
			Prefix:         "nightly",
			ForcePathStyle: true,
			Credentials:    auth.Credentials{Profile: "ignored", Keys: keys},
		},
		Logger: zerolog.New(zerolog.NewTestWriter(t)),
	})
	defer w.Close()

	archivePath, err := w.Transfer(ctx, src, "", "")
	require.NoError(t, err)

	assert.Equal(t, src+".tar.gz", archivePath)
	assert.NoDirExists(t, src)

	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String("transfers"),
		Key:    aws.String("nightly/report.tar.gz"),
	})
	require.NoError(t, err)

	info, err := os.Stat(archivePath)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), aws.ToInt64(head.ContentLength))
}

func setupLocalStackContainer(ctx context.Context) (*localstack.LocalStackContainer, string, error) {
	lsContainer, err := localstack.RunContainer(ctx,
		testcontainers.WithImage("localstack/localstack:3.0"),
		testcontainers.WithEnv(map[string]string{
			"SERVICES": "s3",
		}),
	)
	if err != nil {
		return nil, "", err
	}

	mappedPort, err := lsContainer.MappedPort(ctx, "4566/tcp")
	if err != nil {
		lsContainer.Terminate(ctx)
		return nil, "", err
	}

	host, err := lsContainer.Host(ctx)
	if err != nil {
		lsContainer.Terminate(ctx)
		return nil, "", err
	}

	return lsContainer, fmt.Sprintf("http://%s:%s", host, mappedPort.Port()), nil
}

func newS3Client(t *testing.T, ctx context.Context, endpoint string, keys auth.KeyPair) *s3.Client {
	t.Helper()

	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion("us-east-1"),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(keys.AccessKey, keys.SecretKey, ""),
		),
	)
	require.NoError(t, err)

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
}
