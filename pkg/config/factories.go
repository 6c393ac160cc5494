package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/arborfs/arborfs/internal/logger"
	"github.com/arborfs/arborfs/pkg/store/content"
	contentfs "github.com/arborfs/arborfs/pkg/store/content/fs"
	contentmemory "github.com/arborfs/arborfs/pkg/store/content/memory"
	contents3 "github.com/arborfs/arborfs/pkg/store/content/s3"
	"github.com/arborfs/arborfs/pkg/store/record"
	recordbadger "github.com/arborfs/arborfs/pkg/store/record/badger"
	recordmemory "github.com/arborfs/arborfs/pkg/store/record/memory"
)

// CreateRecordStore creates a record store based on configuration.
//
// This factory function uses the Type field to determine which store
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the store's constructor.
//
// Supported types:
//   - "memory": Uses pkg/store/record/memory (ephemeral, test and dev use)
//   - "badger": Uses pkg/store/record/badger (BadgerDB, persistent)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Record store configuration
//
// Returns:
//   - record.Store: Initialized record store
//   - error: Configuration or initialization error
func CreateRecordStore(ctx context.Context, cfg *RecordsConfig) (record.Store, error) {
	switch cfg.Type {
	case "memory":
		return recordmemory.NewMemoryRecordStore(ctx)
	case "badger":
		return createBadgerRecordStore(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown record store type: %q (supported: memory, badger)", cfg.Type)
	}
}

// createBadgerRecordStore creates a BadgerDB-based persistent record store.
func createBadgerRecordStore(ctx context.Context, options map[string]any) (record.Store, error) {
	type BadgerRecordStoreOptions struct {
		DBPath           string `mapstructure:"db_path"`
		BlockCacheSizeMB int64  `mapstructure:"block_cache_size_mb"`
		IndexCacheSizeMB int64  `mapstructure:"index_cache_size_mb"`
	}

	var storeOpts BadgerRecordStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode badger record store options: %w", err)
	}

	if storeOpts.DBPath == "" {
		return nil, fmt.Errorf("badger record store: db_path is required")
	}

	store, err := recordbadger.NewBadgerRecordStore(ctx, recordbadger.BadgerRecordStoreConfig{
		DBPath:           storeOpts.DBPath,
		BlockCacheSizeMB: storeOpts.BlockCacheSizeMB,
		IndexCacheSizeMB: storeOpts.IndexCacheSizeMB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger record store: %w", err)
	}

	return store, nil
}

// CreateContentStore creates a content store based on configuration.
//
// This factory function uses the Type field to determine which store
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the store's constructor.
//
// Supported types:
//   - "memory": Uses pkg/store/content/memory (ephemeral)
//   - "filesystem": Uses pkg/store/content/fs (local filesystem storage)
//   - "s3": Uses pkg/store/content/s3 (Amazon S3 or compatible storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Content store configuration
//
// Returns:
//   - content.Store: Initialized content store
//   - error: Configuration or initialization error
func CreateContentStore(ctx context.Context, cfg *ContentConfig) (content.Store, error) {
	switch cfg.Type {
	case "memory":
		return contentmemory.NewMemoryContentStore(ctx)
	case "filesystem":
		return createFilesystemContentStore(ctx, cfg.Filesystem)
	case "s3":
		return createS3ContentStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown content store type: %q (supported: memory, filesystem, s3)", cfg.Type)
	}
}

// createFilesystemContentStore creates a filesystem-based content store.
func createFilesystemContentStore(ctx context.Context, options map[string]any) (content.Store, error) {
	type FilesystemContentStoreOptions struct {
		Path string `mapstructure:"path"`
	}

	var storeOpts FilesystemContentStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem content store options: %w", err)
	}

	if storeOpts.Path == "" {
		return nil, fmt.Errorf("filesystem content store: path is required")
	}

	store, err := contentfs.NewFSContentStore(ctx, storeOpts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem content store: %w", err)
	}

	return store, nil
}

// createS3ContentStore creates an S3-based content store.
func createS3ContentStore(ctx context.Context, options map[string]any) (content.Store, error) {
	type S3ContentStoreOptions struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var storeOpts S3ContentStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 content store options: %w", err)
	}

	if storeOpts.Bucket == "" {
		return nil, fmt.Errorf("S3 content store: bucket is required")
	}
	if storeOpts.Region == "" {
		return nil, fmt.Errorf("S3 content store: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(storeOpts.Region))

	// Set custom endpoint if provided (for MinIO, Localstack, etc.)
	if storeOpts.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               storeOpts.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Set credentials if provided, otherwise use default credential chain
	if storeOpts.AccessKeyID != "" && storeOpts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeOpts.AccessKeyID,
			storeOpts.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	// Configure retries for better resilience against temporary S3 failures
	maxRetries := storeOpts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries // Retry for transient errors (502, 503, timeouts, etc.)
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Force path-style addressing for compatibility with MinIO/Localstack
		if storeOpts.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	store, err := contents3.NewS3ContentStore(ctx, contents3.S3ContentStoreConfig{
		Client:    client,
		Bucket:    storeOpts.Bucket,
		KeyPrefix: storeOpts.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 content store: %w", err)
	}

	logger.Info("S3 content store initialized: bucket=%s, region=%s, prefix=%s",
		storeOpts.Bucket, storeOpts.Region, storeOpts.KeyPrefix)

	return store, nil
}
