package clickhouse

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"github.com/philippevezina/blobstream/internal/config"
	"github.com/philippevezina/blobstream/internal/export"
	"github.com/philippevezina/blobstream/internal/security"
)

// ColumnSource is a ClickHouse export.ChunkSource. ClickHouse substring on
// String operates on bytes, so range fetches are byte-exact without a cast.
type ColumnSource struct {
	cfg       *config.ClickHouseConfig
	keyColumn string
	keyValue  string
	db        *sql.DB
	logger    *zap.Logger
}

func NewColumnSource(cfg *config.ClickHouseConfig, keyColumn, keyValue string, logger *zap.Logger) *ColumnSource {
	options := &clickhouse.Options{
		Addr: cfg.Addresses,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: cfg.DialTimeout,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	}

	if cfg.EnableSSL {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	return &ColumnSource{
		cfg:       cfg,
		keyColumn: keyColumn,
		keyValue:  keyValue,
		db:        clickhouse.OpenDB(options),
		logger:    logger,
	}
}

// Ping verifies the source is reachable.
func (s *ColumnSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ColumnSource) FetchRange(ctx context.Context, table, column string, offset int64, length int) ([]byte, error) {
	if offset < export.StartOffset {
		return nil, fmt.Errorf("offset must be at least %d, got %d", export.StartOffset, offset)
	}
	if length <= 0 {
		return nil, fmt.Errorf("length must be positive, got %d", length)
	}

	query, err := s.buildRangeQuery(table, column)
	if err != nil {
		return nil, err
	}

	args := []interface{}{offset, length}
	if s.keyColumn != "" {
		args = append(args, s.keyValue)
	}

	var chunk []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&chunk)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s.%s: %w", table, column, export.ErrRowNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to execute range query for %s.%s: %w", table, column, err)
	}

	return chunk, nil
}

func (s *ColumnSource) buildRangeQuery(table, column string) (string, error) {
	escapedDB, err := security.ValidateAndEscapeIdentifier(s.cfg.Database, "database name")
	if err != nil {
		return "", err
	}
	escapedTable, err := security.ValidateAndEscapeIdentifier(table, "table name")
	if err != nil {
		return "", err
	}
	escapedColumn, err := security.ValidateAndEscapeIdentifier(column, "column name")
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf("SELECT substring(%s, ?, ?) FROM %s.%s",
		escapedColumn, escapedDB, escapedTable)

	if s.keyColumn != "" {
		escapedKey, err := security.ValidateAndEscapeIdentifier(s.keyColumn, "key column name")
		if err != nil {
			return "", err
		}
		query += fmt.Sprintf(" WHERE %s = ?", escapedKey)
	}
	query += " LIMIT 1"

	return query, nil
}

// Close releases the connection pool.
func (s *ColumnSource) Close() error {
	return s.db.Close()
}

var _ export.ChunkSource = (*ColumnSource)(nil)
