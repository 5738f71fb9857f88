// Package feed renders the post directory as an RSS or Atom feed.
//
// A View subscribes to a PostDirectory and keeps the last published list, so
// the feed always reflects the most recent fetch or local mutation.
package feed

import (
	"fmt"
	"html"
	"io"
	"mime"
	"path"
	"strings"
	"sync"
	"time"

	"postdirectory/app/models"
	"postdirectory/app/services"

	"github.com/gorilla/feeds"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Config describes the feed channel.
type Config struct {
	Title       string
	Description string
	// Link is the site URL. Item links are Link + "/posts/" + id.
	Link string
}

// View is a post directory subscriber that renders feeds.
type View struct {
	cfg Config
	md  goldmark.Markdown

	mu    sync.Mutex
	posts []models.Post
	seen  bool
	sub   *services.Subscription

	// nowFn allows overriding time.Now() for testing.
	nowFn func() time.Time
}

// NewView creates an empty View.
func NewView(cfg Config) *View {
	cfg.Link = strings.TrimRight(cfg.Link, "/")
	if cfg.Title == "" {
		cfg.Title = "Posts"
	}
	return &View{
		cfg:   cfg,
		md:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
		nowFn: time.Now,
	}
}

// Attach subscribes the view to dir. A previous subscription is dropped.
func (v *View) Attach(dir *services.PostDirectory) {
	sub := dir.Subscribe(v.Update)

	v.mu.Lock()
	old := v.sub
	v.sub = sub
	v.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}
}

// Detach stops receiving updates. The last list is kept.
func (v *View) Detach() {
	v.mu.Lock()
	sub := v.sub
	v.sub = nil
	v.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

// Update stores the latest list. It is the view's subscription handler.
func (v *View) Update(posts []models.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posts = posts
	v.seen = true
}

// Ready reports whether the view has received at least one list.
func (v *View) Ready() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seen
}

// Feed builds the feed from the last received list, newest post first.
func (v *View) Feed() *feeds.Feed {
	v.mu.Lock()
	posts := v.posts
	v.mu.Unlock()

	now := v.nowFn()
	feed := &feeds.Feed{
		Title:       v.cfg.Title,
		Link:        &feeds.Link{Href: v.cfg.Link},
		Description: v.cfg.Description,
		Created:     now,
		Updated:     now,
	}

	for i := len(posts) - 1; i >= 0; i-- {
		post := posts[i]
		item := &feeds.Item{
			Id:          post.ID,
			Title:       post.Title,
			Link:        &feeds.Link{Href: v.cfg.Link + "/posts/" + post.ID},
			Description: v.render(post.Content),
			Created:     now,
		}
		if post.ImagePath != "" {
			item.Enclosure = &feeds.Enclosure{
				Url:    post.ImagePath,
				Length: "0",
				Type:   imageType(post.ImagePath),
			}
		}
		feed.Items = append(feed.Items, item)
	}
	return feed
}

// WriteRSS writes the feed as RSS 2.0.
func (v *View) WriteRSS(w io.Writer) error {
	if err := v.Feed().WriteRss(w); err != nil {
		return fmt.Errorf("failed to write rss: %w", err)
	}
	return nil
}

// WriteAtom writes the feed as Atom.
func (v *View) WriteAtom(w io.Writer) error {
	if err := v.Feed().WriteAtom(w); err != nil {
		return fmt.Errorf("failed to write atom: %w", err)
	}
	return nil
}

// render converts Markdown content to HTML. Raw HTML in the source is
// omitted; on failure the escaped source is returned.
func (v *View) render(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	var b strings.Builder
	if err := v.md.Convert([]byte(content), &b); err != nil {
		return html.EscapeString(content)
	}
	return b.String()
}

func imageType(imagePath string) string {
	if t := mime.TypeByExtension(path.Ext(imagePath)); t != "" {
		return t
	}
	return "application/octet-stream"
}
