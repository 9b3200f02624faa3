package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/safefeed-org/safefeed/automod/engine"
)

// Source implements engine.ContentSource against the reddit listing API.
type Source struct {
	Client *Client
}

var _ engine.ContentSource = (*Source)(nil)

func NewSource(client *Client) *Source {
	return &Source{Client: client}
}

// thing is reddit's generic typed wrapper (t1 comment, t3 submission, Listing,
// more).
type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listingData struct {
	Children []thing `json:"children"`
}

type postData struct {
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	URL        string  `json:"url"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
}

type commentData struct {
	Name       string  `json:"name"`
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	CreatedUTC float64 `json:"created_utc"`
	// either an empty string or a nested Listing thing
	Replies json.RawMessage `json:"replies"`
}

// FetchNew returns submissions in community created after since, oldest
// first. reddit lists newest first; the page is reversed here.
func (s *Source) FetchNew(ctx context.Context, community string, since time.Time) ([]engine.Post, error) {
	params := url.Values{}
	params.Set("limit", "100")

	var wrapper thing
	if err := s.Client.Get(ctx, fmt.Sprintf("/r/%s/new", community), params, &wrapper); err != nil {
		return nil, fmt.Errorf("fetching new submissions for r/%s: %w", community, err)
	}

	var ld listingData
	if err := json.Unmarshal(wrapper.Data, &ld); err != nil {
		return nil, fmt.Errorf("parsing r/%s listing: %w", community, err)
	}

	var posts []engine.Post
	for _, child := range ld.Children {
		if child.Kind != "t3" {
			continue
		}
		var pd postData
		if err := json.Unmarshal(child.Data, &pd); err != nil {
			return nil, fmt.Errorf("parsing submission in r/%s listing: %w", community, err)
		}
		created := time.Unix(int64(pd.CreatedUTC), 0)
		if !created.After(since) {
			continue
		}
		posts = append(posts, engine.Post{
			ID:        pd.Name,
			Title:     pd.Title,
			Body:      pd.Selftext,
			URL:       pd.URL,
			Author:    authorOrDeleted(pd.Author),
			CreatedAt: created,
		})
	}

	// oldest first
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
	return posts, nil
}

// FetchComments returns the full comment tree of a submission. "more"
// placeholders are skipped, matching the ingestion loop's bounded-window
// model.
func (s *Source) FetchComments(ctx context.Context, submissionID string) ([]*engine.CommentNode, error) {
	shortID := strings.TrimPrefix(submissionID, "t3_")

	params := url.Values{}
	params.Set("limit", "500")
	params.Set("depth", "10")

	// response is a two-element array: the submission listing, then comments
	var wrappers []thing
	if err := s.Client.Get(ctx, fmt.Sprintf("/comments/%s", shortID), params, &wrappers); err != nil {
		return nil, fmt.Errorf("fetching comments for %s: %w", submissionID, err)
	}
	if len(wrappers) < 2 {
		return nil, fmt.Errorf("unexpected comments response shape for %s", submissionID)
	}

	var ld listingData
	if err := json.Unmarshal(wrappers[1].Data, &ld); err != nil {
		return nil, fmt.Errorf("parsing comment listing for %s: %w", submissionID, err)
	}
	return parseCommentForest(ld.Children)
}

func parseCommentForest(children []thing) ([]*engine.CommentNode, error) {
	var nodes []*engine.CommentNode
	for _, child := range children {
		if child.Kind != "t1" {
			// "more" placeholders and anything else
			continue
		}
		var cd commentData
		if err := json.Unmarshal(child.Data, &cd); err != nil {
			return nil, fmt.Errorf("parsing comment: %w", err)
		}
		node := &engine.CommentNode{
			ID:        cd.Name,
			Author:    authorOrDeleted(cd.Author),
			Body:      cd.Body,
			CreatedAt: time.Unix(int64(cd.CreatedUTC), 0),
		}
		if replies, err := parseReplies(cd.Replies); err != nil {
			return nil, err
		} else {
			node.Replies = replies
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// parseReplies handles the replies field being either "" or a nested Listing.
func parseReplies(raw json.RawMessage) ([]*engine.CommentNode, error) {
	if len(raw) == 0 || string(raw) == `""` || string(raw) == "null" {
		return nil, nil
	}
	var wrapper thing
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("parsing replies wrapper: %w", err)
	}
	var ld listingData
	if err := json.Unmarshal(wrapper.Data, &ld); err != nil {
		return nil, fmt.Errorf("parsing replies listing: %w", err)
	}
	return parseCommentForest(ld.Children)
}

func authorOrDeleted(author string) string {
	if author == "" {
		return engine.DeletedAuthor
	}
	return author
}
