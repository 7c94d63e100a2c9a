package fossology

import (
	"context"
	"fmt"

	"github.com/fossdrive/fossdrive/internal/parse"
)

// Licenses fetches the license list the console surfaces for an upload.
// The console's license view is addressed by upload and tree item, so both
// ids are required even though the list itself is server-wide.
func (c *Client) Licenses(ctx context.Context, uploadID, itemID int64) ([]License, error) {
	endpoint := fmt.Sprintf("?mod=view-license&upload=%d&item=%d", uploadID, itemID)
	resp, err := c.session.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetching license list: %w", err)
	}

	parsed, err := parse.Licenses(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("license list for upload %d: %w", uploadID, err)
	}

	licenses := make([]License, 0, len(parsed))
	for _, lic := range parsed {
		licenses = append(licenses, License{ID: lic.ID, Name: lic.Name})
	}
	return licenses, nil
}
