package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartCleaner periodically purges expired refresh tokens and resources
// that have been soft-deleted for longer than retention.
func StartCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res, err := db.ExecContext(ctx, `
                    DELETE FROM refresh_tokens WHERE expires_at < now()
                `)
				if err != nil {
					log.Error("failed to clean expired refresh tokens", zap.Error(err))
				} else if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned expired refresh tokens", zap.Int64("removed", rows))
				}

				cutoff := time.Now().Add(-retention)
				res, err = db.ExecContext(ctx, `
                    DELETE FROM resources
                     WHERE deleted = true
                       AND deleted_at < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to clean soft-deleted resources", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned soft-deleted resources", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
