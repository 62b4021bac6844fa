package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"VoiceStudio/pkg/util"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AllowedUploadTypes is the MIME whitelist for user-supplied source audio.
var AllowedUploadTypes = []string{"audio/mp3", "audio/wav"}

const uploadKeyPrefix = "voice-conversion-uploads"

// Store is what the handlers depend on; MinioStore is the production
// implementation.
type Store interface {
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration, bucket string) (string, error)
	PresignedUploadURL(ctx context.Context, fileType string) (uploadURL, objectKey string, err error)
}

type MinioStore struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET"`
	UseSSL    bool   `env:"MINIO_USE_SSL"`

	// Uploads expire after this long; also the default GET expiry.
	PresignExpiry time.Duration
}

func NewMinioStore(presignExpiry time.Duration) *MinioStore {
	useSSL := util.GetEnv("MINIO_USE_SSL") == "1" || strings.ToLower(util.GetEnv("MINIO_USE_SSL")) == "true"
	if presignExpiry <= 0 {
		presignExpiry = time.Hour
	}
	return &MinioStore{
		Endpoint:      util.GetEnv("MINIO_ENDPOINT"),
		AccessKey:     util.GetEnv("MINIO_ACCESS_KEY"),
		SecretKey:     util.GetEnv("MINIO_SECRET_KEY"),
		Bucket:        util.GetEnv("MINIO_BUCKET"),
		UseSSL:        useSSL,
		PresignExpiry: presignExpiry,
	}
}

func (m *MinioStore) client() (*minio.Client, error) {
	return minio.New(m.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(m.AccessKey, m.SecretKey, ""),
		Secure: m.UseSSL,
	})
}

func (m *MinioStore) ensureBucket(ctx context.Context, cli *minio.Client) error {
	exists, err := cli.BucketExists(ctx, m.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return cli.MakeBucket(ctx, m.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Write stores generated audio under the given key.
func (m *MinioStore) Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	cli, err := m.client()
	if err != nil {
		return err
	}
	if err := m.ensureBucket(ctx, cli); err != nil {
		return err
	}
	_, err = cli.PutObject(ctx, m.Bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (m *MinioStore) Delete(ctx context.Context, key string) error {
	cli, err := m.client()
	if err != nil {
		return err
	}
	return cli.RemoveObject(ctx, m.Bucket, key, minio.RemoveObjectOptions{})
}

func (m *MinioStore) Exists(ctx context.Context, key string) (bool, error) {
	cli, err := m.client()
	if err != nil {
		return false, err
	}
	_, err = cli.StatObject(ctx, m.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PresignedGetURL returns a time-limited download URL. A zero expiry falls
// back to the configured default; an empty bucket uses the store's bucket.
func (m *MinioStore) PresignedGetURL(ctx context.Context, key string, expiry time.Duration, bucket string) (string, error) {
	cli, err := m.client()
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = m.PresignExpiry
	}
	if bucket == "" {
		bucket = m.Bucket
	}
	u, err := cli.PresignedGetObject(ctx, bucket, key, expiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// PresignedUploadURL hands the client a direct PUT target for source audio.
// Only MP3 and WAV are accepted; the caller must PUT with the same
// Content-Type it declared here.
func (m *MinioStore) PresignedUploadURL(ctx context.Context, fileType string) (string, string, error) {
	if !UploadTypeAllowed(fileType) {
		return "", "", fmt.Errorf("unsupported file type %q: only MP3 and WAV files are supported", fileType)
	}
	cli, err := m.client()
	if err != nil {
		return "", "", err
	}
	if err := m.ensureBucket(ctx, cli); err != nil {
		return "", "", err
	}

	extension := "wav"
	if fileType == "audio/mp3" {
		extension = "mp3"
	}
	objectKey := fmt.Sprintf("%s/%s.%s", uploadKeyPrefix, uuid.NewString(), extension)

	u, err := cli.PresignedPutObject(ctx, m.Bucket, objectKey, m.PresignExpiry)
	if err != nil {
		return "", "", err
	}
	return u.String(), objectKey, nil
}

func UploadTypeAllowed(fileType string) bool {
	for _, t := range AllowedUploadTypes {
		if t == fileType {
			return true
		}
	}
	return false
}
