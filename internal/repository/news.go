package repository

import (
	"NewsComments/internal/models"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"time"
)

// NewsRepository is the news catalog the comment threads hang off. Threads
// use the news id as their thread id.
type NewsRepository struct {
	db  *dbpg.DB
	log *zap.Logger
}

const (
	createNewsQuery   = `INSERT INTO news (title,url,user_id,ctime) VALUES ($1,$2,$3,$4) RETURNING id`
	getNewsByIDQuery  = `SELECT id,title,url,user_id,ctime,comments FROM news WHERE id = $1`
	incrCommentsQuery = `UPDATE news SET comments = comments + $2 WHERE id = $1`
)

var (
	retryStrategy = retry.Strategy{
		Attempts: 5,
		Delay:    time.Millisecond,
		Backoff:  2,
	}
)

func NewNewsRepository(masterDSN string, slaveDSNs []string, log *zap.Logger) (*NewsRepository, error) {
	opts := dbpg.Options{
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, &opts)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Starting database migrations")

	if err := RunMigrations(masterDSN); err != nil {
		log.Error("Failed to run migrations", zap.Error(err))
		return nil, fmt.Errorf("failed to run migration: %w", err)
	}
	log.Info("Successfully migrated database")

	return &NewsRepository{db: db, log: log.Named("news")}, nil
}

func (r *NewsRepository) CreateNews(ctx context.Context, n models.News) (int64, error) {
	row, err := r.db.QueryRowWithRetry(ctx, retryStrategy, createNewsQuery, n.Title, n.URL, n.UserID, n.CTime)
	if err != nil {
		r.log.Error("Failed to create news", zap.Error(err))
		return 0, fmt.Errorf("failed to create news: %w", err)
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		r.log.Error("Failed to scan created news id", zap.Error(err))
		return 0, fmt.Errorf("failed to create news: %w", err)
	}
	return id, nil
}

func (r *NewsRepository) GetNewsByID(ctx context.Context, id int64) (*models.News, error) {
	var n models.News

	row, err := r.db.QueryRowWithRetry(ctx, retryStrategy, getNewsByIDQuery, id)
	if err != nil {
		r.log.Error("Failed to get news by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get news by ID: %w", err)
	}
	if err := row.Scan(&n.ID, &n.Title, &n.URL, &n.UserID, &n.CTime, &n.Comments); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("news %d: %w", id, ErrNotFound)
		}
		r.log.Error("Failed to scan news by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get news by ID: %w", err)
	}

	return &n, nil
}

// IncrCommentCount moves the denormalized comment counter of a news item.
func (r *NewsRepository) IncrCommentCount(ctx context.Context, id int64, delta int64) error {
	res, err := r.db.ExecWithRetry(ctx, retryStrategy, incrCommentsQuery, id, delta)
	if err != nil {
		r.log.Error("Failed to update news comment counter", zap.Int64("id", id), zap.Int64("delta", delta), zap.Error(err))
		return fmt.Errorf("failed to update news comment counter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		r.log.Warn("Failed to get affected rows", zap.Error(err))
		return nil
	}
	if n == 0 {
		return fmt.Errorf("news %d: %w", id, ErrNotFound)
	}
	return nil
}

func RunMigrations(connStr string) error {
	migratePath := os.Getenv("MIGRATE_PATH")
	if migratePath == "" {
		migratePath = "./migrations"
	}
	absPath, err := filepath.Abs(migratePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	absPath = filepath.ToSlash(absPath)
	migrateUrl := fmt.Sprintf("file://%s", absPath)
	m, err := migrate.New(migrateUrl, connStr)
	if err != nil {
		return fmt.Errorf("start migrations error %v", err)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration up error: %v", err)
	}
	return nil
}
