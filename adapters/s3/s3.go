// Package s3 stores auction photos and payment-proof evidence on an
// S3-compatible object store.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"gavel/engine"
)

// Client is the slice of the S3 API the store needs.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store implements engine.ImageStore. The object key doubles as the
// public ID, so deletion needs no extra bookkeeping.
type Store struct {
	Client         Client
	Bucket         string
	PublicEndpoint *url.URL
}

func NewStore(client Client, bucket, publicBaseURL string) (*Store, error) {
	const op = "NewStore"
	publicEndpoint, err := url.Parse(publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("[%s] fail to parse public base URL, err=%w", op, err)
	}
	return &Store{Client: client, Bucket: bucket, PublicEndpoint: publicEndpoint}, nil
}

// Upload sniffs the content type, rejects anything outside the secure
// image table, and writes the object under folder/<uuid>.<ext>.
func (s *Store) Upload(ctx context.Context, content []byte, folder string) (engine.StoredImage, error) {
	const op = "Upload"
	contentType := http.DetectContentType(content)
	ok, ext := CheckSecureImageAndGetExtension(contentType)
	if !ok {
		return engine.StoredImage{}, fmt.Errorf("[%s] unsupported content type %q", op, contentType)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return engine.StoredImage{}, fmt.Errorf("[%s] fail to generate object ID, err=%w", op, err)
	}
	key := path.Join(folder, fmt.Sprintf("%s.%s", id, ext))
	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return engine.StoredImage{}, fmt.Errorf("[%s] fail to upload object, err=%w", op, err)
	}
	uri := *s.PublicEndpoint
	uri.Path = path.Join(uri.Path, key)
	return engine.StoredImage{PublicID: key, URL: uri.String()}, nil
}

// Delete removes a previously uploaded object by its public ID.
func (s *Store) Delete(ctx context.Context, publicID string) error {
	const op = "Delete"
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("[%s] fail to delete object, err=%w", op, err)
	}
	return nil
}
