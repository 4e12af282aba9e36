package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/itemstore/internal/config"
	"github.com/rl1809/itemstore/internal/port"
)

// Backends holds the item repository and sequence allocator selected by
// config, along with the connections behind them.
type Backends struct {
	Items    port.ItemRepository
	Sequence port.SequenceAllocator
	closers  []io.Closer
}

func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			log.Printf("close storage: %v", err)
		}
	}
	b.closers = nil
}

// Open connects every backend cfg selects. A backend used for both items
// and the sequence shares one connection.
func Open(ctx context.Context, cfg config.Config) (*Backends, error) {
	b := &Backends{}
	fail := func(err error) (*Backends, error) {
		b.Close()
		return nil, err
	}

	var sqliteAdapter *SQLiteAdapter
	if cfg.Uses(config.BackendSQLite) {
		db, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return fail(err)
		}
		b.closers = append(b.closers, db)
		sqliteAdapter = NewSQLiteAdapter(db)
		log.Printf("opened sqlite at %s", cfg.SQLitePath)
	}

	var mysqlAdapter *MySQLAdapter
	if cfg.Uses(config.BackendMySQL) {
		db, err := OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return fail(err)
		}
		b.closers = append(b.closers, db)
		mysqlAdapter = NewMySQLAdapter(db)
		log.Println("connected to mysql")
	}

	switch cfg.ItemStore {
	case config.BackendSQLite:
		b.Items = sqliteAdapter
	case config.BackendMySQL:
		b.Items = mysqlAdapter
	default:
		return fail(fmt.Errorf("unsupported item store %q", cfg.ItemStore))
	}

	switch cfg.SequenceStore {
	case config.BackendSQLite:
		b.Sequence = sqliteAdapter
	case config.BackendMySQL:
		b.Sequence = mysqlAdapter
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		b.closers = append(b.closers, rdb)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fail(fmt.Errorf("connect redis: %w", err))
		}
		b.Sequence = NewRedisAdapter(rdb)
		log.Println("connected to redis")
	case config.BackendDynamoDB:
		client, err := newDynamoDBClient(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		b.Sequence = NewDynamoDBAdapter(client, cfg.DynamoDBTable)
		log.Printf("using dynamodb table %s", cfg.DynamoDBTable)
	case config.BackendMemory:
		b.Sequence = NewMemorySequence()
	default:
		return fail(fmt.Errorf("unsupported sequence store %q", cfg.SequenceStore))
	}

	return b, nil
}

// OpenMySQL connects with the pool settings the server uses and applies the schema.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	dsn, err := mysqlDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	if err := ApplySchema(ctx, db, "mysql"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// mysqlDSN turns on parseTime, which scanning DATETIME columns into
// time.Time depends on.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func newDynamoDBClient(ctx context.Context, cfg config.Config) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	}), nil
}
