package cli

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/sfdb"
	"github.com/hupe1980/sfdb/backup"
	"github.com/hupe1980/sfdb/blobstore"
	minioblob "github.com/hupe1980/sfdb/blobstore/minio"
	s3blob "github.com/hupe1980/sfdb/blobstore/s3"
	"github.com/hupe1980/sfdb/internal/config"
	"github.com/spf13/cobra"
)

// storeFlags override the backup section of the configuration file.
type storeFlags struct {
	target string
	dir    string
	bucket string
	prefix string
	codec  string
}

func (s *storeFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.target, "target", "", "Backup target: local|s3|minio")
	f.StringVar(&s.dir, "backup-dir", "", "Directory for the local target")
	f.StringVar(&s.bucket, "bucket", "", "Bucket for the s3 and minio targets")
	f.StringVar(&s.prefix, "prefix", "", "Key prefix for the s3 and minio targets")
}

func (s *storeFlags) apply(cfg config.BackupConfig) config.BackupConfig {
	if s.target != "" {
		cfg.Target = s.target
	}
	if s.dir != "" {
		cfg.Local.Dir = s.dir
	}
	if s.bucket != "" {
		cfg.S3.Bucket = s.bucket
		cfg.MinIO.Bucket = s.bucket
	}
	if s.prefix != "" {
		cfg.S3.Prefix = s.prefix
		cfg.MinIO.Prefix = s.prefix
	}
	if s.codec != "" {
		cfg.Codec = s.codec
	}
	return cfg
}

func openStore(ctx context.Context, cfg config.BackupConfig) (blobstore.BlobStore, error) {
	switch cfg.Target {
	case "", "local":
		return blobstore.NewLocalStore(cfg.Local.Dir), nil
	case "s3":
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 target requires a bucket")
		}
		var optFns []func(*awsconfig.LoadOptions) error
		if cfg.S3.Region != "" {
			optFns = append(optFns, awsconfig.WithRegion(cfg.S3.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
		if err != nil {
			return nil, err
		}
		return s3blob.NewStore(awss3.NewFromConfig(awsCfg), cfg.S3.Bucket, cfg.S3.Prefix), nil
	case "minio":
		if cfg.MinIO.Bucket == "" || cfg.MinIO.Endpoint == "" {
			return nil, fmt.Errorf("minio target requires an endpoint and a bucket")
		}
		store, err := minioblob.New(minioblob.Config{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Region:    cfg.MinIO.Region,
			Secure:    cfg.MinIO.Secure,
		}, cfg.MinIO.Bucket, cfg.MinIO.Prefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown backup target %q", cfg.Target)
	}
}

func newBackupCommand(g *globalOptions) *cobra.Command {
	var sf storeFlags

	cmd := &cobra.Command{
		Use:   "backup <name>",
		Short: "Save the live records to a backup blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withDB(cmd, func(e *env, db *sfdb.DB) error {
				bcfg := sf.apply(e.cfg.Backup)
				codec, err := backup.ParseCodec(bcfg.Codec)
				if err != nil {
					return err
				}
				store, err := openStore(cmd.Context(), bcfg)
				if err != nil {
					return err
				}
				m, err := backup.Save(cmd.Context(), db, store, args[0], backup.WithCodec(codec))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %d record(s) to %s (%s, %d bytes)\n",
					m.Count, args[0], m.Codec, m.StoredSize)
				return nil
			})
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVar(&sf.codec, "codec", "", "Payload codec: none|lz4|zstd")
	return cmd
}

func newRestoreCommand(g *globalOptions) *cobra.Command {
	var sf storeFlags

	cmd := &cobra.Command{
		Use:   "restore <name>",
		Short: "Append the records of a backup blob to the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withDB(cmd, func(e *env, db *sfdb.DB) error {
				store, err := openStore(cmd.Context(), sf.apply(e.cfg.Backup))
				if err != nil {
					return err
				}
				m, err := backup.Restore(cmd.Context(), store, args[0], db)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %d record(s) from %s\n", m.Count, args[0])
				return nil
			})
		},
	}
	sf.register(cmd)
	return cmd
}

func newBackupsCommand(g *globalOptions) *cobra.Command {
	var sf storeFlags

	cmd := &cobra.Command{
		Use:   "backups [prefix]",
		Short: "List backup blobs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), sf.apply(cfg.Backup))
			if err != nil {
				return err
			}

			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			names, err := store.List(cmd.Context(), prefix)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				m, err := backup.Inspect(cmd.Context(), store, name)
				if err != nil {
					fmt.Fprintf(out, "%s\tinvalid: %v\n", name, err)
					continue
				}
				fmt.Fprintf(out, "%s\trecords=%d record_len=%d codec=%s size=%d\n",
					name, m.Count, m.RecordLen, m.Codec, m.StoredSize)
			}
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}
