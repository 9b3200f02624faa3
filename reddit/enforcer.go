package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/safefeed-org/safefeed/automod/engine"
)

// Enforcer implements engine.Enforcer via reddit moderator endpoints. The
// authenticated account must hold mod permissions in the target communities.
type Enforcer struct {
	Client *Client
}

var _ engine.Enforcer = (*Enforcer)(nil)

func NewEnforcer(client *Client) *Enforcer {
	return &Enforcer{Client: client}
}

// Remove takes down a submission or comment. When notifyAuthor is set, the
// author is looked up and sent a private message explaining the takedown.
func (e *Enforcer) Remove(ctx context.Context, itemID, reason string, notifyAuthor bool) error {
	form := url.Values{}
	form.Set("id", itemID)
	form.Set("spam", "false")
	if err := e.Client.PostForm(ctx, "/api/remove", form, nil); err != nil {
		enforceErrorCount.WithLabelValues("remove").Inc()
		return fmt.Errorf("removing %s: %w", itemID, err)
	}
	removeCount.Inc()

	if !notifyAuthor {
		return nil
	}
	author, err := e.lookupAuthor(ctx, itemID)
	if err != nil {
		enforceErrorCount.WithLabelValues("lookup").Inc()
		return fmt.Errorf("looking up author of %s: %w", itemID, err)
	}
	if author == "" || author == engine.DeletedAuthor {
		return nil
	}
	if err := e.messageAuthor(ctx, itemID, author, reason); err != nil {
		enforceErrorCount.WithLabelValues("message").Inc()
		return fmt.Errorf("messaging author of %s: %w", itemID, err)
	}
	return nil
}

// PostNotice replies to an item, optionally distinguishing and pinning the
// reply as a moderator comment.
func (e *Enforcer) PostNotice(ctx context.Context, itemID, message string, pinned bool) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", itemID)
	form.Set("text", message)

	var resp commentResponse
	if err := e.Client.PostForm(ctx, "/api/comment", form, &resp); err != nil {
		enforceErrorCount.WithLabelValues("notice").Inc()
		return fmt.Errorf("posting notice on %s: %w", itemID, err)
	}
	noticeCount.Inc()

	if !pinned {
		return nil
	}
	noticeID := resp.noticeFullname()
	if noticeID == "" {
		enforceErrorCount.WithLabelValues("distinguish").Inc()
		return fmt.Errorf("notice on %s posted but reply ID missing from response", itemID)
	}

	df := url.Values{}
	df.Set("api_type", "json")
	df.Set("id", noticeID)
	df.Set("how", "yes")
	df.Set("sticky", "true")
	if err := e.Client.PostForm(ctx, "/api/distinguish", df, nil); err != nil {
		enforceErrorCount.WithLabelValues("distinguish").Inc()
		return fmt.Errorf("pinning notice %s: %w", noticeID, err)
	}
	return nil
}

type commentResponse struct {
	JSON struct {
		Data struct {
			Things []struct {
				Data struct {
					Name string `json:"name"`
				} `json:"data"`
			} `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

func (r *commentResponse) noticeFullname() string {
	if len(r.JSON.Data.Things) == 0 {
		return ""
	}
	return r.JSON.Data.Things[0].Data.Name
}

func (e *Enforcer) lookupAuthor(ctx context.Context, itemID string) (string, error) {
	params := url.Values{}
	params.Set("id", itemID)

	var wrapper thing
	if err := e.Client.Get(ctx, "/api/info", params, &wrapper); err != nil {
		return "", err
	}
	var ld listingData
	if err := json.Unmarshal(wrapper.Data, &ld); err != nil {
		return "", fmt.Errorf("parsing info listing: %w", err)
	}
	if len(ld.Children) == 0 {
		return "", fmt.Errorf("item %s not found", itemID)
	}
	var info struct {
		Author string `json:"author"`
	}
	if err := json.Unmarshal(ld.Children[0].Data, &info); err != nil {
		return "", fmt.Errorf("parsing item info: %w", err)
	}
	return info.Author, nil
}

func (e *Enforcer) messageAuthor(ctx context.Context, itemID, author, reason string) error {
	subject, body := removalMessage(itemID, author, reason)

	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("to", author)
	form.Set("subject", subject)
	form.Set("text", body)
	return e.Client.PostForm(ctx, "/api/compose", form, nil)
}

func removalMessage(itemID, author, reason string) (subject, body string) {
	if strings.HasPrefix(itemID, "t1_") {
		subject = "Your comment has been removed"
		body = fmt.Sprintf("Dear %s,\n\nYour comment with ID %s has been removed by SafeFeed due to a violation of community guidelines.\n\nThank you for your understanding.", author, strings.TrimPrefix(itemID, "t1_"))
		return
	}
	subject = "Your post has been taken down!"
	body = fmt.Sprintf("Dear %s,\n\nYour submission has been removed by SafeFeed due to a violation of community guidelines.\n\nReason for violation: %s \n\nThank you for your understanding", author, reason)
	return
}
