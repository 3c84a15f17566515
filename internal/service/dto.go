package service

import (
	"time"

	"github.com/abgdnv/shopfront/internal/catalog"
	"github.com/abgdnv/shopfront/internal/feed"
	"github.com/abgdnv/shopfront/internal/fetch"
)

// SessionView is what a session renders: its criteria, its location and the matching products.
type SessionView struct {
	ID        string            `json:"id"`
	Criteria  catalog.Criteria  `json:"criteria"`
	Location  string            `json:"location"`
	Products  []catalog.Product `json:"products"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ResourceView mirrors a fetch snapshot. Error is the message of the last failure.
type ResourceView struct {
	URL     string `json:"url"`
	State   string `json:"state"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
	Loading bool   `json:"loading"`
}

// PostsView mirrors a feed snapshot.
type PostsView struct {
	Page    int         `json:"page"`
	Items   []feed.Post `json:"items"`
	Loading bool        `json:"loading"`
	Error   string      `json:"error,omitempty"`
}

func newResourceView(url string, snap fetch.Snapshot) *ResourceView {
	v := &ResourceView{
		URL:     url,
		State:   snap.State.String(),
		Data:    snap.Data,
		Loading: snap.Loading(),
	}
	if snap.Err != nil {
		v.Error = snap.Err.Error()
	}
	return v
}

func newPostsView(snap feed.Snapshot) *PostsView {
	v := &PostsView{
		Page:    snap.Page,
		Items:   snap.Items,
		Loading: snap.Loading,
	}
	if snap.Err != nil {
		v.Error = snap.Err.Error()
	}
	return v
}
