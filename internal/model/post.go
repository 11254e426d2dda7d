package model

import "time"

type Post struct {
	PostID    int64
	Author    string
	Content   string
	CreatedAt time.Time
}
