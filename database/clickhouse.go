package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"nearme/api/config"
	"nearme/api/logger"
)

type ClickHouseClient struct {
	Conn clickhouse.Conn
}

func NewClickHouseDB(cfg config.ClickHouseConfig) (*ClickHouseClient, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, fmt.Errorf("CLICKHOUSE_HOST and CLICKHOUSE_DB_NAME must be set")
	}

	options := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.NativePort)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{{Name: "nearme-api", Version: "1.0.0"}},
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: time.Second * 5,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse via Native TCP: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	logger.Info("connected to ClickHouse", zap.String("addr", options.Addr[0]), zap.String("database", cfg.Database))
	return &ClickHouseClient{Conn: conn}, nil
}

func (c *ClickHouseClient) Close() {
	if c.Conn != nil {
		if err := c.Conn.Close(); err != nil {
			logger.Warn("error closing ClickHouse connection", zap.Error(err))
			return
		}
		logger.Info("ClickHouse connection closed")
	}
}
