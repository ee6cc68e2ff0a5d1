package web

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/papertrail-app/papertrail/internal/store"
)

// feedItemLimit caps the RSS feed length.
const feedItemLimit = 50

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link,omitempty"`
	Description string `xml:"description"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
}

// handleFeed serves a user's public papers as RSS. The feed is always
// the anonymous view: subscribers hold no session.
func (s *Server) handleFeed(c *gin.Context) {
	u, err := s.store.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	papers, _, err := s.store.ListPapers(c.Request.Context(), store.Anonymous(),
		store.PaperFilter{UserID: &u.ID, Limit: feedItemLimit})
	if err != nil {
		respondError(c, err)
		return
	}

	base := fmt.Sprintf("http://%s", c.Request.Host)
	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       fmt.Sprintf("%s's reading list", u.DisplayName),
			Link:        fmt.Sprintf("%s/api/users/%s", base, u.Username),
			Description: fmt.Sprintf("Papers read by %s", u.DisplayName),
		},
	}

	for _, p := range papers {
		link := p.PaperURL
		if link == "" && p.ArxivID != "" {
			link = "https://arxiv.org/abs/" + p.ArxivID
		}
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       p.Title,
			Link:        link,
			Description: p.Summary,
			GUID:        fmt.Sprintf("%s/api/papers/%d", base, p.ID),
			PubDate:     p.CreatedAt.UTC().Format(time.RFC1123Z),
		})
	}

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, xml.Header+string(out))
}
