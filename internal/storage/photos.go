package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"foodconnect/internal/utils"
	"foodconnect/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PhotoStore persists a donation photo and returns the URL to store on the
// donation record.
type PhotoStore interface {
	StorePhoto(ctx context.Context, volunteerID string, photo *types.Photo) (string, error)
}

// DetectContentType sniffs the photo bytes. The client supplied content type
// is ignored so a mislabelled upload cannot pass as an image.
func DetectContentType(photo *types.Photo) string {
	ct, _, _ := strings.Cut(http.DetectContentType(photo.Data), ";")
	return ct
}

// InlinePhotoStore embeds the photo in the record as a data URL.
type InlinePhotoStore struct{}

func (InlinePhotoStore) StorePhoto(_ context.Context, _ string, photo *types.Photo) (string, error) {
	return fmt.Sprintf("data:%s;base64,%s", DetectContentType(photo), base64.StdEncoding.EncodeToString(photo.Data)), nil
}

type s3Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3PhotoStore uploads photos to a bucket under donations/<volunteer id>/.
type S3PhotoStore struct {
	client        s3Putter
	bucketName    string
	publicBaseURL string
}

// NewS3PhotoStore creates a new S3 photo store. When publicBaseURL is empty the
// virtual-hosted bucket URL is used.
func NewS3PhotoStore(client s3Putter, bucketName, publicBaseURL string) *S3PhotoStore {
	publicBaseURL = strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucketName)
	}

	return &S3PhotoStore{
		client:        client,
		bucketName:    bucketName,
		publicBaseURL: publicBaseURL,
	}
}

func (s *S3PhotoStore) StorePhoto(ctx context.Context, volunteerID string, photo *types.Photo) (string, error) {
	contentType := DetectContentType(photo)
	key := fmt.Sprintf("donations/%s/%s%s", volunteerID, utils.NanoID(), extensionFor(contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(photo.Data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(photo.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	return s.PublicURL(key), nil
}

// PublicURL returns the public URL for a stored object key
func (s *S3PhotoStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicBaseURL, key)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
