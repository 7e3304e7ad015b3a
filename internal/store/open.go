package store

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/emrlaunch/emrlaunch/internal/config"
)

// Open returns the store backend selected by cfg.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	sc := cfg.Store
	switch sc.Type {
	case config.StoreFile, "":
		return NewFileStore(config.ExpandHome(sc.Directory)), nil
	case config.StoreS3:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.AWS.Profile != "" {
			opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.AWS.Profile))
		}
		if cfg.AWS.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.AWS.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		return NewS3Store(s3.NewFromConfig(awsCfg), sc.Bucket, sc.Prefix), nil
	case config.StorePostgres:
		return NewPostgresStore(ctx, sc.ConnectionString, sc.Table)
	case config.StoreMongo:
		return NewMongoStore(ctx, sc.ConnectionString, sc.Database)
	}
	return nil, fmt.Errorf("unknown store type %q", sc.Type)
}
