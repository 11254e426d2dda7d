package dbModel

import "time"

type Post struct {
	PostID    int64     `db:"post_id"`
	UserID    int64     `db:"user_id"`
	Author    string    `db:"author"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"dt_create"`
}
