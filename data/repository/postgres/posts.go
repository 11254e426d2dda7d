package postgres

import (
	"context"
	"log/slog"

	"github.com/ndanilin/coindash_bot/internal/converter/dbConverter"
	"github.com/ndanilin/coindash_bot/internal/model"
	"github.com/ndanilin/coindash_bot/internal/model/dbModel"
	"github.com/ndanilin/coindash_bot/utils"
)

func (r *Postgres) InsertPost(ctx context.Context, userID int64, author, content string) (postID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertPost"
	query := `INSERT INTO posts(user_id, author, content) VALUES($1, $2, $3) RETURNING post_id`

	slog.Debug("InsertPost start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Int64("userID", userID))
	defer func() {
		if err != nil {
			slog.Error("InsertPost failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertPost completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(ctx, query, userID, author, content).Scan(&postID)
	if err != nil {
		return 0, err
	}

	return postID, nil
}

func (r *Postgres) GetLatestPosts(ctx context.Context, limit int) (posts []model.Post, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetLatestPosts"
	query := `
		SELECT post_id, user_id, author, content, dt_create
		FROM posts
		ORDER BY dt_create DESC
		LIMIT $1
		`

	slog.Debug("GetLatestPosts start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Int("limit", limit))
	defer func() {
		if err != nil {
			slog.Error("GetLatestPosts failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetLatestPosts completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	posts = make([]model.Post, 0, limit)
	for rows.Next() {
		var post dbModel.Post
		err = rows.StructScan(&post)
		if err != nil {
			return nil, err
		}
		posts = append(posts, dbConverter.ConvertPost(post))
	}

	return posts, nil
}
