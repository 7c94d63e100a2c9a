package fossology

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fossdrive/fossdrive/internal/parse"
)

// FolderID resolves a folder name to its numeric id. The upload page
// carries the full folder tree, so one fetch covers all folders.
func (c *Client) FolderID(ctx context.Context, name string) (int64, error) {
	resp, err := c.session.Get(ctx, "?mod=upload_file")
	if err != nil {
		return 0, fmt.Errorf("fetching folder listing: %w", err)
	}
	id, ok := parse.FolderID(resp.Body, name)
	if !ok {
		return 0, &NotFoundError{Kind: "folder", Name: name}
	}
	return id, nil
}

// CreateFolder creates a folder under the given parent. The console does
// not return the new folder's id; resolve it by name afterwards.
func (c *Client) CreateFolder(ctx context.Context, parentID int64, name, description string) error {
	values := url.Values{
		"parentid":    {strconv.FormatInt(parentID, 10)},
		"newname":     {name},
		"description": {description},
	}
	if _, err := c.session.PostForm(ctx, "?mod=folder_create", values); err != nil {
		return fmt.Errorf("creating folder %q: %w", name, err)
	}
	c.logger.Info("created folder", "name", name, "parent", parentID)
	return nil
}
