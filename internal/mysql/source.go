package mysql

import (
	"context"
	"fmt"

	"github.com/go-mysql-org/go-mysql/client"
	"go.uber.org/zap"

	"github.com/philippevezina/blobstream/internal/config"
	"github.com/philippevezina/blobstream/internal/export"
	"github.com/philippevezina/blobstream/internal/mysql/connector"
	"github.com/philippevezina/blobstream/internal/security"
)

// ColumnSource is a MySQL export.ChunkSource. It reads byte ranges of one
// row's column value with SUBSTRING over the value cast to binary, so
// offsets address bytes regardless of the column's character set.
//
// The row is addressed by an optional key column/value pair; with no key the
// query takes the table's first row, which fits the single-row tables this
// tool targets.
type ColumnSource struct {
	cfg       *config.MySQLConfig
	keyColumn string
	keyValue  string
	connector *connector.Connector
	conn      *client.Conn
	logger    *zap.Logger
}

func NewColumnSource(cfg *config.MySQLConfig, keyColumn, keyValue string, logger *zap.Logger) *ColumnSource {
	return &ColumnSource{
		cfg:       cfg,
		keyColumn: keyColumn,
		keyValue:  keyValue,
		connector: connector.New(cfg, logger),
		logger:    logger,
	}
}

// Ping verifies the source is reachable, establishing the connection if
// needed.
func (s *ColumnSource) Ping(ctx context.Context) error {
	conn, err := s.connection()
	if err != nil {
		return err
	}
	return conn.Ping()
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

	conn, err := s.connection()
	if err != nil {
		return nil, err
	}

	result, err := conn.Execute(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute range query for %s.%s: %w", table, column, err)
	}

	if result.RowNumber() == 0 {
		return nil, fmt.Errorf("%s.%s: %w", table, column, export.ErrRowNotFound)
	}

	value, err := result.GetValue(0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read range value: %w", err)
	}

	switch v := value.(type) {
	case nil:
		// NULL column or range past end of value
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unexpected value type %T for %s.%s", value, table, column)
	}
}

// buildRangeQuery assembles the SUBSTRING query with validated, escaped
// identifiers. Offset, length, and the key value are bound as parameters.
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

	// CAST AS BINARY forces byte positions even for TEXT columns, where
	// plain SUBSTRING counts characters.
	query := fmt.Sprintf("SELECT SUBSTRING(CAST(%s AS BINARY), ?, ?) FROM %s.%s",
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

func (s *ColumnSource) connection() (*client.Conn, error) {
	if s.conn != nil {
		return s.conn, nil
	}

	conn, err := s.connector.Connect(s.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	s.conn = conn

	s.logger.Debug("MySQL connection established",
		zap.String("host", s.cfg.Host),
		zap.String("database", s.cfg.Database))
	return s.conn, nil
}

// Close releases the underlying connection.
func (s *ColumnSource) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

var _ export.ChunkSource = (*ColumnSource)(nil)
