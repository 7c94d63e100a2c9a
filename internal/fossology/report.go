package fossology

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// FetchReport downloads the report generated by the most recent
// report-generator job for the upload and writes it verbatim to outPath.
//
// The download is gated: the most recent job for the format's agent must
// match that agent exactly and be in status Completed. A killed or still
// running report job yields no report, so a closed gate returns false
// with no error and nothing written; that is an expected outcome, not a
// failure.
func (c *Client) FetchReport(ctx context.Context, uploadID int64, format ReportFormat, outPath string) (bool, error) {
	job, err := c.MostRecentJob(ctx, uploadID, string(format))
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	if job.Agent != string(format) || job.Status != "Completed" {
		c.logger.Debug("report not ready", "upload", uploadID, "agent", job.Agent, "status", job.Status)
		return false, nil
	}

	endpoint := fmt.Sprintf("?mod=download&report=%d", job.ReportID)
	resp, err := c.session.Get(ctx, endpoint)
	if err != nil {
		return false, fmt.Errorf("downloading report %d: %w", job.ReportID, err)
	}

	if err := os.WriteFile(outPath, resp.Body, 0o644); err != nil {
		return false, fmt.Errorf("writing report to %s: %w", outPath, err)
	}
	c.logger.Info("wrote report", "upload", uploadID, "report", job.ReportID, "path", outPath)
	return true, nil
}
