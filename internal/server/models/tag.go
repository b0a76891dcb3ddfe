package models

import "time"

const DefaultTagColor = "#6366f1"

type Tag struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	UsageCount int64     `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type TagPatch struct {
	Name  *string
	Color *string
}
