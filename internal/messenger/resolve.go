package messenger

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/mmynk/settleup/internal/errs"
)

// FriendPages yields the token owner's friend list one page at a time,
// following the provider's after_url cursor. Pages are fetched lazily and
// sequentially; iteration stops after MaxPages pages, when the provider
// returns no cursor, or after the first error.
func (c *Client) FriendPages(ctx context.Context, token string) iter.Seq2[*FriendsPage, error] {
	return func(yield func(*FriendsPage, error) bool) {
		next := c.baseURL.JoinPath(friendsPath).String()

		for fetched := 0; fetched < c.maxPages; fetched++ {
			page, err := c.fetchFriends(ctx, token, next)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}

			next = page.AfterURL
			if next == "" {
				return
			}
			if !c.sameOrigin(next) {
				yield(nil, fmt.Errorf("%w: cursor leaves provider host: %s", errs.ErrExternalService, next))
				return
			}
		}
		slog.Warn("Friend list page cap reached", "max_pages", c.maxPages)
	}
}

// ResolveHandle finds targetUserID in the token owner's friend list and
// returns the provider handle used to address messages to them.
func (c *Client) ResolveHandle(ctx context.Context, token, targetUserID string) (string, error) {
	if token == "" || targetUserID == "" {
		return "", fmt.Errorf("%w: token and target user are required", errs.ErrInvalidInput)
	}

	pages := 0
	for page, err := range c.FriendPages(ctx, token) {
		if err != nil {
			return "", err
		}
		pages++
		if handle := page.handleFor(targetUserID); handle != "" {
			slog.Debug("Resolved messenger handle", "user_id", targetUserID, "pages", pages)
			return handle, nil
		}
	}

	slog.Warn("User not found in friend list", "user_id", targetUserID, "pages", pages)
	return "", fmt.Errorf("%w: user %s", errs.ErrContactNotFound, targetUserID)
}
