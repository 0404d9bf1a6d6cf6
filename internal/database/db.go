// Package database opens the MySQL pool and applies schema migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/salvambiente-api/internal/config"
)

// Open connects to MySQL with the credentials in cfg and pings it.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	dsn := driverConfig(cfg)
	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql ping %s: %w", dsn.Addr, err)
	}
	return db, nil
}

func driverConfig(cfg config.Config) *mysql.Config {
	dsn := mysql.NewConfig()
	dsn.User = cfg.DBUser
	dsn.Passwd = cfg.DBPass
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	dsn.DBName = cfg.DBName
	// DATETIME columns scan into time.Time, always in UTC.
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	// RowsAffected counts matched rows, so an UPDATE that rewrites the same
	// value is not mistaken for a missing row.
	dsn.ClientFoundRows = true
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn
}
