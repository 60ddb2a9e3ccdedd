package models

import (
	"time"

	"github.com/google/uuid"
)

type Article struct {
	ID             uuid.UUID `json:"-"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	TagList        []string  `json:"tagList"`
	AuthorID       uuid.UUID `json:"-"`
	Author         Profile   `json:"author"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int       `json:"favoritesCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ArticleUpdate holds the optional fields of an article edit. Nil means unchanged.
type ArticleUpdate struct {
	Title       *string
	Description *string
	Body        *string
}

// ArticleFilter narrows article listings. Empty strings mean no constraint.
type ArticleFilter struct {
	Tag         string
	Author      string
	FavoritedBy string
	Limit       int
	Offset      int
}
