package fossology

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// BulkTextMatchValues encodes a whole-upload bulk reclassification
// request. Each action becomes three fields keyed by its zero-based
// position in the input, order preserved. Conflicting actions are not
// deduplicated; the server decides last-write-wins.
func BulkTextMatchValues(refText string, itemID int64, actions []BulkTextMatchAction) url.Values {
	values := url.Values{
		"refText":       {refText},
		"bulkScope":     {"u"},
		"uploadTreeId":  {strconv.FormatInt(itemID, 10)},
		"forceDecision": {"0"},
	}
	for i, action := range actions {
		prefix := fmt.Sprintf("bulkAction[%d]", i)
		values.Set(prefix+"[licenseId]", strconv.FormatInt(action.LicenseID, 10))
		values.Set(prefix+"[licenseName]", action.LicenseName)
		values.Set(prefix+"[action]", string(action.Action))
	}
	return values
}

// StartBulkTextMatch starts the monkbulk agent to reclassify license
// findings across the upload containing itemID, matching on refText.
// itemID is a tree item id within the upload, not the upload id.
func (c *Client) StartBulkTextMatch(ctx context.Context, refText string, itemID int64, actions []BulkTextMatchAction) error {
	values := BulkTextMatchValues(refText, itemID, actions)
	if _, err := c.session.PostForm(ctx, "?mod=change-license-bulk", values); err != nil {
		return fmt.Errorf("starting bulk text match: %w", err)
	}
	c.logger.Info("started bulk text match", "item", itemID, "actions", len(actions))
	return nil
}
