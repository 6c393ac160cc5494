// Package s3 provides an S3-backed content store.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/arborfs/arborfs/pkg/store/content"
)

// S3ContentStore implements content.Store using Amazon S3 or S3-compatible
// storage.
//
// Object Key Design:
//   - Content IDs are opaque UUIDs assigned at commit time
//   - S3 key = keyPrefix + id, so one bucket can host several stores
//   - Objects are immutable once written; deletion is the only mutation
//
// S3 Characteristics:
//   - High durability and availability
//   - Batch deletes of up to 1000 objects per request
//   - Supports custom endpoints for S3-compatible storage (MinIO, Cubbit
//     DS3, etc.)
//
// Thread Safety:
// The AWS SDK client is safe for concurrent use, and the store keeps no
// mutable state of its own.
type S3ContentStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3ContentStoreConfig contains configuration for the S3 content store.
type S3ContentStoreConfig struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "arborfs/content/" results in keys like
	// "arborfs/content/550e8400-..."
	KeyPrefix string
}

// NewS3ContentStore creates a new S3-based content store.
//
// The bucket must already exist; this function verifies access with a
// HeadBucket request but does not create the bucket.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: S3 configuration
//
// Returns:
//   - *S3ContentStore: Initialized store
//   - error: Error if bucket access fails or context is cancelled
func NewS3ContentStore(ctx context.Context, cfg S3ContentStoreConfig) (*S3ContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3ContentStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// objectKey returns the full S3 object key for a content ID.
func (s *S3ContentStore) objectKey(id content.ID) string {
	return s.keyPrefix + string(id)
}

// idFromKey recovers the content ID from a full S3 object key.
func (s *S3ContentStore) idFromKey(key string) content.ID {
	if s.keyPrefix != "" && len(key) > len(s.keyPrefix) {
		key = key[len(s.keyPrefix):]
	}
	return content.ID(key)
}

// Open allocates a stream.
//
// Write mode returns a fresh staging stream; nothing touches S3 until
// Commit. Read mode downloads the object named by opts.ObjectID into a read
// stream, failing with content.ErrNotFound for unknown identifiers.
func (s *S3ContentStore) Open(ctx context.Context, opts content.OpenOptions) (*content.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Mode == content.ModeWrite {
		return content.NewWriteStream(opts.EstimatedLength, opts.InitialBytes), nil
	}

	payload, err := s.download(ctx, opts.ObjectID)
	if err != nil {
		return nil, err
	}
	return content.NewReadStream(opts.ObjectID, payload), nil
}

// Commit seals a write stream into a new committed object and uploads it.
func (s *S3ContentStore) Commit(ctx context.Context, stream *content.Stream) (content.ID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// ========================================================================
	// Step 1: Seal the stream under a fresh identifier
	// ========================================================================

	id := content.NewID()

	payload, err := stream.Seal(id)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	// ========================================================================
	// Step 2: Upload the payload
	// ========================================================================

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(id)),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object to S3: %w", err)
	}

	return id, nil
}

// Read returns the full payload of a committed object.
func (s *S3ContentStore) Read(ctx context.Context, id content.ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.download(ctx, id)
}

// download fetches an object's payload, mapping missing keys to
// content.ErrNotFound.
func (s *S3ContentStore) download(ctx context.Context, id content.ID) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("read %s: %w", id, content.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer func() { _ = result.Body.Close() }()

	payload, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to download object from S3: %w", err)
	}
	return payload, nil
}

// Delete removes a committed object. S3 delete is idempotent, so unknown
// identifiers are not an error.
func (s *S3ContentStore) Delete(ctx context.Context, id content.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}
	return nil
}

// List enumerates every committed object identifier under the key prefix.
func (s *S3ContentStore) List(ctx context.Context) ([]content.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := make([]content.ID, 0)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			ids = append(ids, s.idFromKey(*obj.Key))
		}
	}

	return ids, nil
}

// DeleteBatch removes multiple objects, chunking into S3's limit of 1000
// objects per delete request. Per-object failures are reported in the
// returned map.
func (s *S3ContentStore) DeleteBatch(ctx context.Context, ids []content.ID) (map[content.ID]error, error) {
	failures := make(map[content.ID]error)

	const maxBatchSize = 1000

	for i := 0; i < len(ids); i += maxBatchSize {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(ids); j++ {
				failures[ids[j]] = err
			}
			return failures, err
		}

		end := i + maxBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[i:end]

		objects := make([]types.ObjectIdentifier, len(batch))
		for j, id := range batch {
			objects[j] = types.ObjectIdentifier{
				Key: aws.String(s.objectKey(id)),
			}
		}

		result, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(false),
			},
		})
		if err != nil {
			for _, id := range batch {
				failures[id] = err
			}
			continue
		}

		for _, deleteErr := range result.Errors {
			if deleteErr.Key == nil {
				continue
			}
			id := s.idFromKey(*deleteErr.Key)

			errMsg := "unknown error"
			if deleteErr.Code != nil && deleteErr.Message != nil {
				errMsg = fmt.Sprintf("%s: %s", *deleteErr.Code, *deleteErr.Message)
			}
			failures[id] = errors.New(errMsg)
		}
	}

	return failures, nil
}

// Healthcheck verifies the bucket is reachable.
func (s *S3ContentStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %q is not reachable: %w", s.bucket, err)
	}
	return nil
}

// Close releases resources. The S3 client holds no local resources, so this
// is a no-op.
func (s *S3ContentStore) Close() error {
	return nil
}
