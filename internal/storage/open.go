package storage

import (
	"context"
	"time"

	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"coffeeshop/internal/config"
)

// Open connects the backend selected by cfg.Driver. With CACHE_ENABLE a
// bolt, scylla or minio backend is fronted by a redis cache.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	b, err := open(ctx, cfg, log)
	if err != nil || !cfg.Cache.Enable {
		return b, err
	}
	switch cfg.Driver {
	case config.DriverMemory, config.DriverRedis:
		return b, nil
	}
	client, err := dialRedis(ctx, cfg.Redis)
	if err != nil {
		b.Close()
		return nil, err
	}
	log.Info("redis cache enabled", zap.String("addr", cfg.Redis.Host), zap.Duration("ttl", cfg.Cache.TTL))
	return NewCached(b, client, cfg.Cache.TTL, log), nil
}

func dialRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Host,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "connect redis")
	}
	return client, nil
}

func open(ctx context.Context, cfg *config.Config, log *zap.Logger) (Backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Info("using in-memory storage")
		return NewMemory(), nil

	case config.DriverBolt:
		b, err := OpenBolt(cfg.Bolt.Path, cfg.Bolt.Bucket)
		if err != nil {
			return nil, err
		}
		log.Info("bolt storage opened", zap.String("path", cfg.Bolt.Path))
		return b, nil

	case config.DriverRedis:
		client, err := dialRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Host))
		return NewRedis(client, cfg.Redis.TTL), nil

	case config.DriverScylla:
		session, err := scyllaCluster(cfg.Scylla).CreateSession()
		if err != nil {
			return nil, errors.Wrap(err, "connect scylla")
		}
		s, err := NewScylla(ctx, session, cfg.Scylla.Table)
		if err != nil {
			session.Close()
			return nil, err
		}
		log.Info("connected to scylla",
			zap.Strings("hosts", cfg.Scylla.Hosts), zap.String("keyspace", cfg.Scylla.Keyspace))
		return s, nil

	case config.DriverMinIO:
		client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			return nil, errors.Wrap(err, "connect minio")
		}
		m, err := NewMinIO(ctx, client, cfg.MinIO.Bucket)
		if err != nil {
			return nil, errors.Wrapf(err, "prepare bucket %s", cfg.MinIO.Bucket)
		}
		log.Info("connected to minio",
			zap.String("endpoint", cfg.MinIO.Endpoint), zap.String("bucket", cfg.MinIO.Bucket))
		return m, nil
	}
	return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
}

func scyllaCluster(cfg config.ScyllaConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = cfg.Timeout
	cluster.ReconnectInterval = time.Second
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}
