package fossology

import (
	"context"
	"fmt"
	"net/url"
)

// Login performs the console's form login, establishing the session
// cookie every later call rides on. The console does not report login
// failures in a checkable way; success is implied by subsequent calls
// working.
func (c *Client) Login(ctx context.Context, username, password string) error {
	values := url.Values{
		"username": {username},
		"password": {password},
	}
	if _, err := c.session.PostForm(ctx, "?mod=auth", values); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	c.logger.Debug("logged in", "username", username)
	return nil
}
