package fossology

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fossdrive/fossdrive/internal/parse"
	"github.com/fossdrive/fossdrive/internal/transport"
)

// UploadID resolves an upload name within a folder to its numeric id.
// With exact set, the first entry whose name equals name wins; otherwise
// the first entry containing name as a substring. Entries are scanned in
// server order across every listing page.
func (c *Client) UploadID(ctx context.Context, folderID int64, name string, exact bool) (int64, error) {
	for start := 0; ; start += pageSize {
		endpoint := fmt.Sprintf("?mod=browse-processPost&folder=%d&iDisplayStart=%d&iDisplayLength=%d",
			folderID, start, pageSize)
		resp, err := c.session.Get(ctx, endpoint)
		if err != nil {
			return 0, fmt.Errorf("fetching upload listing: %w", err)
		}
		page, err := parse.Uploads(resp.Body)
		if err != nil {
			return 0, fmt.Errorf("upload listing for folder %d: %w", folderID, err)
		}

		for _, u := range page.Uploads {
			if exact && u.Name == name {
				return u.ID, nil
			}
			if !exact && strings.Contains(u.Name, name) {
				return u.ID, nil
			}
		}

		if len(page.Uploads) == 0 || start+pageSize >= page.Total {
			return 0, &NotFoundError{Kind: "upload", Name: name}
		}
	}
}

// UploadFile submits a file to the given folder and returns the upload id
// the console assigned. No scanning agents are triggered; every agent
// checkbox on the form is submitted disabled. The upload form requires a
// one-time token fetched from the form page itself.
func (c *Client) UploadFile(ctx context.Context, path string, folderID int64) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	token, err := c.uploadFormToken(ctx)
	if err != nil {
		return 0, err
	}

	basename := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(path))

	fields := []transport.Field{
		{Name: "uploadformbuild", Value: token},
		{Name: "folder", Value: strconv.FormatInt(folderID, 10)},
		{Name: "fileInput", Filename: basename, ContentType: contentType, Reader: file},
		{Name: "descriptionInputName", Value: basename},
		{Name: "public", Value: "private"},
		{Name: "Check_agent_bucket", Value: "0"},
		{Name: "Check_agent_copyright", Value: "0"},
		{Name: "Check_agent_ecc", Value: "0"},
		{Name: "Check_agent_mimetype", Value: "0"},
		{Name: "Check_agent_nomos", Value: "0"},
		{Name: "Check_agent_monk", Value: "0"},
		{Name: "Check_agent_pkgagent", Value: "0"},
		{Name: "deciderRules[]", Value: ""},
	}

	resp, err := c.session.PostMultipart(ctx, "?mod=upload_file", fields)
	if err != nil {
		return 0, fmt.Errorf("uploading %s: %w", basename, err)
	}

	id, err := parse.NewUploadID(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("upload %s accepted but no id in response: %w", basename, err)
	}
	c.logger.Info("uploaded file", "name", basename, "folder", folderID, "upload", id)
	return id, nil
}

// uploadFormToken fetches the hidden one-time token the upload form
// requires.
func (c *Client) uploadFormToken(ctx context.Context) (string, error) {
	resp, err := c.session.Get(ctx, "?mod=upload_file")
	if err != nil {
		return "", fmt.Errorf("fetching upload form: %w", err)
	}
	token, err := parse.UploadFormToken(resp.Body)
	if err != nil {
		return "", fmt.Errorf("upload form: %w", err)
	}
	return token, nil
}
