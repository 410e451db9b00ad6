// Package database manages the PostgreSQL connection pool.
package database

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fleetops-backend/internal/config"
)

// Service exposes the connection pool to handlers and background jobs.
type Service interface {
	// GetPool returns the underlying pgx pool for queries.
	GetPool() *pgxpool.Pool

	// Health reports connectivity status for the /api/health endpoint.
	Health() map[string]string

	// Close releases all pool connections.
	Close()
}

type service struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a Service. Connection failures
// are fatal: the API cannot do anything useful without its store.
func New(cfg *config.DBConfig) Service {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		log.Fatalf("Invalid database URL: %v", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Connected to PostgreSQL")
	return &service{pool: pool}
}

func (s *service) GetPool() *pgxpool.Pool {
	return s.pool
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		return map[string]string{
			"status": "down",
			"error":  err.Error(),
		}
	}

	stats := s.pool.Stat()
	return map[string]string{
		"status":      "up",
		"total_conns": strconv.Itoa(int(stats.TotalConns())),
		"idle_conns":  strconv.Itoa(int(stats.IdleConns())),
	}
}

func (s *service) Close() {
	s.pool.Close()
}
