package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"vidtube/internal/model"
)

type VideoRepository struct {
	pool *pgxpool.Pool
}

func NewVideoRepository(pool *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{pool: pool}
}

func (r *VideoRepository) Create(ctx context.Context, v model.Video) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO videos (id, owner_id, title, description, video_file, thumbnail,
		                     duration, views, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		v.ID, v.OwnerID, v.Title, v.Description, v.VideoFile, v.Thumbnail,
		v.Duration, v.Views, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

func (r *VideoRepository) AppendWatchHistory(ctx context.Context, userID string, videoID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO watch_history (user_id, position, video_id)
		 VALUES ($1,
		         (SELECT COALESCE(MAX(position), 0) + 1 FROM watch_history WHERE user_id = $1),
		         $2)`,
		userID, videoID)
	if err != nil {
		return fmt.Errorf("append watch history: %w", err)
	}
	return nil
}

// WatchHistory returns the user's watched videos in viewing order,
// duplicates included, with each video's owner resolved to a single
// minimal projection.
func (r *VideoRepository) WatchHistory(ctx context.Context, userID string) ([]model.WatchVideo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT v.id, v.title, v.description, v.video_file, v.thumbnail,
		        v.duration, v.views, v.created_at,
		        o.full_name, o.username, o.avatar
		 FROM watch_history h
		 JOIN videos v ON v.id = h.video_id
		 JOIN users o ON o.id = v.owner_id
		 WHERE h.user_id = $1
		 ORDER BY h.position`, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	history := make([]model.WatchVideo, 0)
	for rows.Next() {
		var entry model.WatchVideo
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.Description, &entry.VideoFile,
			&entry.Thumbnail, &entry.Duration, &entry.Views, &entry.CreatedAt,
			&entry.Owner.FullName, &entry.Owner.Username, &entry.Owner.Avatar); err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}
