// Package s3archive stores enrichment records as JSON objects in S3, one
// object per submission.
package s3archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"companywatch/internal/domain"
	"companywatch/internal/ports"
)

// ObjectAPI is the part of the S3 client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Store struct {
	client ObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

var _ ports.EnrichmentRepository = (*Store)(nil)

// New builds a store from the default AWS credential chain.
func New(ctx context.Context, bucket, prefix string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func NewWithClient(client ObjectAPI, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

func (s *Store) key(submissionID string) string {
	return s.prefix + strings.ReplaceAll(submissionID, "/", "_") + ".json"
}

// Save writes the record unless an object for the submission already
// exists.
func (s *Store) Save(ctx context.Context, rec domain.EnrichmentRecord) error {
	if rec.SubmissionID == "" {
		return errors.New("save enrichment: empty submission id")
	}
	rec.CreatedAt = s.now().UTC()
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode enrichment record: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(rec.SubmissionID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
		return ports.ErrDuplicateSubmission
	}
	if err != nil {
		return fmt.Errorf("put enrichment record: %w", err)
	}
	return nil
}

func (s *Store) GetBySubmissionID(ctx context.Context, submissionID string) (domain.EnrichmentRecord, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(submissionID)),
	})
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return domain.EnrichmentRecord{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.EnrichmentRecord{}, fmt.Errorf("get enrichment record: %w", err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return domain.EnrichmentRecord{}, fmt.Errorf("read enrichment record: %w", err)
	}
	var rec domain.EnrichmentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.EnrichmentRecord{}, fmt.Errorf("decode enrichment record: %w", err)
	}
	return rec, nil
}
