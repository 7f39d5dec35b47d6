package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hamstudy/backend/internal/domain/result"
)

// Object layout: one JSON array per identity.
const (
	objectPrefix = "test_results/test_results_"
	objectSuffix = ".json"
)

const maxRetries = 3

// BlobConfig holds the object-store connection settings.
type BlobConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// BlobStore persists result histories as JSON objects in a MinIO bucket,
// one object per identity under test_results/.
type BlobStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-identity append locks
}

// NewBlob connects to the object store and ensures the bucket exists.
func NewBlob(ctx context.Context, cfg BlobConfig, logger *slog.Logger) (*BlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("created result bucket", "bucket", cfg.Bucket)
	}

	return &BlobStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

func objectName(identity string) string {
	return objectPrefix + identity + objectSuffix
}

func (s *BlobStore) identityLock(identity string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[identity]
	if !ok {
		l = &sync.Mutex{}
		s.locks[identity] = l
	}
	return l
}

// Append reads the identity's full history, adds r, and writes the whole
// object back. The per-identity lock serializes appends within this
// process; appends racing from a separate process can still lose one
// result (last writer wins) — a known limitation of the blob layout.
func (s *BlobStore) Append(ctx context.Context, identity string, r result.Result) error {
	identity = NormalizeIdentity(identity)

	l := s.identityLock(identity)
	l.Lock()
	defer l.Unlock()

	history, err := s.readHistory(ctx, identity)
	switch {
	case errors.Is(err, ErrNotFound):
		history = result.History{}
	case errors.Is(err, ErrMalformedRecord):
		// A fully unreadable object is replaced rather than blocking
		// the user's save forever.
		s.logger.Warn("replacing unreadable history object", "identity", identity)
		history = result.History{}
	case err != nil:
		return err
	}

	history = append(history, r)

	payload, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	return s.retry(ctx, "append", identity, func() error {
		_, err := s.client.PutObject(ctx, s.bucket, objectName(identity),
			bytes.NewReader(payload), int64(len(payload)),
			minio.PutObjectOptions{ContentType: "application/json"})
		return err
	})
}

// ReadAll returns the identity's history. Unknown identities yield an
// empty history.
func (s *BlobStore) ReadAll(ctx context.Context, identity string) (result.History, error) {
	history, err := s.readHistory(ctx, NormalizeIdentity(identity))
	if errors.Is(err, ErrNotFound) {
		return result.History{}, nil
	}
	return history, err
}

func (s *BlobStore) readHistory(ctx context.Context, identity string) (result.History, error) {
	data, err := s.rawObject(ctx, identity)
	if err != nil {
		return nil, err
	}
	return decodeHistory(data, identity, s.logger)
}

// RawJSON returns the stored object bytes untouched.
func (s *BlobStore) RawJSON(ctx context.Context, identity string) ([]byte, error) {
	return s.rawObject(ctx, NormalizeIdentity(identity))
}

func (s *BlobStore) rawObject(ctx context.Context, identity string) ([]byte, error) {
	var data []byte
	err := s.retry(ctx, "read", identity, func() error {
		obj, err := s.client.GetObject(ctx, s.bucket, objectName(identity), minio.GetObjectOptions{})
		if err != nil {
			return err
		}
		defer obj.Close()

		data, err = io.ReadAll(obj)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ListIdentities lists every identity with a stored history object.
func (s *BlobStore) ListIdentities(ctx context.Context) ([]string, error) {
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    objectPrefix,
		Recursive: true,
	})

	var identities []string
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: list objects: %v", ErrUnavailable, obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, objectPrefix)
		name = strings.TrimSuffix(name, objectSuffix)
		if name != "" {
			identities = append(identities, name)
		}
	}
	return identities, nil
}

func (s *BlobStore) Close() error { return nil }

// retry runs op with exponential backoff for transient failures.
// Not-found is terminal and mapped to ErrNotFound; anything still
// failing after the retry budget surfaces as ErrUnavailable.
func (s *BlobStore) retry(ctx context.Context, what, identity string, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(newBackoff(), maxRetries), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if isNotFound(err) {
			return backoff.Permanent(ErrNotFound)
		}
		s.logger.Warn("storage operation failed, retrying",
			"op", what, "identity", identity, "attempt", attempt, "error", err)
		return err
	}, policy)

	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, what, identity, err)
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
