package s3archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companywatch/internal/domain"
	"companywatch/internal/ports"
)

// fakeBucket honours If-None-Match: * the way S3 does.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: make(map[string][]byte)}
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	if _, exists := f.objects[key]; exists && aws.ToString(in.IfNoneMatch) == "*" {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	}
	f.objects[key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestStore_SaveAndGet(t *testing.T) {
	bucket := newFakeBucket()
	store := NewWithClient(bucket, "records", "enrichments/")
	fixed := time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()

	rec := domain.EnrichmentRecord{
		SubmissionID: "s1",
		CountryCode:  "fr",
		CompanyName:  domain.Ptr("Acme"),
		Result: domain.EnrichmentResult{Companies: []domain.EnrichedCompany{
			{ID: "A", Name: "ACME", ConfidenceScore: domain.Ptr(0.9)},
		}},
	}
	require.NoError(t, store.Save(ctx, rec))
	assert.Contains(t, bucket.objects, "records/enrichments/s1.json")

	got, err := store.GetBySubmissionID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, fixed, got.CreatedAt)
	assert.Equal(t, "Acme", *got.CompanyName)
	assert.Equal(t, rec.Result, got.Result)
}

func TestStore_Duplicate(t *testing.T) {
	store := NewWithClient(newFakeBucket(), "records", "")
	ctx := context.Background()
	rec := domain.EnrichmentRecord{SubmissionID: "s1", CountryCode: "fr", Result: domain.EmptyResult()}

	require.NoError(t, store.Save(ctx, rec))
	assert.ErrorIs(t, store.Save(ctx, rec), ports.ErrDuplicateSubmission)
}

func TestStore_NotFound(t *testing.T) {
	store := NewWithClient(newFakeBucket(), "records", "")

	_, err := store.GetBySubmissionID(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestStore_PutFailure(t *testing.T) {
	bucket := newFakeBucket()
	bucket.putErr = errors.New("access denied")
	store := NewWithClient(bucket, "records", "")

	err := store.Save(context.Background(), domain.EnrichmentRecord{SubmissionID: "s1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrDuplicateSubmission)
	assert.Contains(t, err.Error(), "access denied")
}

func TestStore_KeyEscapesSlashes(t *testing.T) {
	store := NewWithClient(newFakeBucket(), "records", "p/")
	assert.Equal(t, "p/a_b.json", store.key("a/b"))
}
