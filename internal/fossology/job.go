package fossology

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/fossdrive/fossdrive/internal/parse"
)

// startAgents posts an agent-start request naming one or more agents
// against the upload. The console never returns the job id it creates;
// the job must be located afterwards through the job listing.
func (c *Client) startAgents(ctx context.Context, uploadID int64, extra url.Values, agents ...string) error {
	values := url.Values{
		"agents[]": agents,
		"upload":   {strconv.FormatInt(uploadID, 10)},
	}
	for key, vals := range extra {
		values[key] = vals
	}
	if _, err := c.session.PostForm(ctx, "?mod=agent_add", values); err != nil {
		return fmt.Errorf("starting agents %v: %w", agents, err)
	}
	c.logger.Info("started agents", "upload", uploadID, "agents", agents)
	return nil
}

// StartReuserAgent starts the reuser agent, reusing clearing decisions
// from a previous upload.
func (c *Client) StartReuserAgent(ctx context.Context, uploadID, reusedUploadID int64) error {
	// The console expects the reused upload qualified by its group id;
	// the default group is 3.
	extra := url.Values{
		"uploadToReuse": {fmt.Sprintf("%d,3", reusedUploadID)},
	}
	return c.startAgents(ctx, uploadID, extra, "agent_reuser")
}

// StartLicenseScanAgents starts the monk and nomos license scanners in a
// single request.
func (c *Client) StartLicenseScanAgents(ctx context.Context, uploadID int64) error {
	return c.startAgents(ctx, uploadID, nil, "agent_monk", "agent_nomos")
}

// StartCopyrightAgent starts the copyright scanner.
func (c *Client) StartCopyrightAgent(ctx context.Context, uploadID int64) error {
	return c.startAgents(ctx, uploadID, nil, "agent_copyright")
}

// StartReportGeneratorAgent triggers report generation for the upload in
// the given format. Like the other starters this is fire-and-forget; the
// report job is located afterwards by agent name.
func (c *Client) StartReportGeneratorAgent(ctx context.Context, uploadID int64, format ReportFormat) error {
	endpoint := fmt.Sprintf("?mod=ui_spdx2&outputFormat=%s&upload=%d", format, uploadID)
	if _, err := c.session.Get(ctx, endpoint); err != nil {
		return fmt.Errorf("starting %s report: %w", format, err)
	}
	c.logger.Info("started report generator", "upload", uploadID, "format", format)
	return nil
}

// MostRecentJob locates the most recently started job for the given agent
// on the upload and fetches its detail record. The console lists jobs in
// reverse-chronological order, so the first matching entry is the most
// recent. Returns a NotFoundError when the agent has no job.
func (c *Client) MostRecentJob(ctx context.Context, uploadID int64, agent string) (Job, error) {
	id, err := c.mostRecentJobID(ctx, uploadID, agent)
	if err != nil {
		return Job{}, err
	}
	return c.jobDetail(ctx, id)
}

// mostRecentJobID walks the job listing pages and returns the id of the
// first entry whose agent name matches.
func (c *Client) mostRecentJobID(ctx context.Context, uploadID int64, agent string) (int64, error) {
	for page := 0; ; page++ {
		values := url.Values{
			"upload":   {strconv.FormatInt(uploadID, 10)},
			"allusers": {"0"},
			"page":     {strconv.Itoa(page)},
		}
		resp, err := c.session.PostForm(ctx, "?mod=ajaxShowJobs&do=showjb", values)
		if err != nil {
			return 0, fmt.Errorf("fetching job listing: %w", err)
		}
		jobs, err := parse.Jobs(resp.Body)
		if err != nil {
			return 0, fmt.Errorf("job listing for upload %d: %w", uploadID, err)
		}
		if len(jobs) == 0 {
			return 0, &NotFoundError{Kind: "job", Name: agent}
		}
		for _, j := range jobs {
			if j.Agent == agent {
				return j.ID, nil
			}
		}
	}
}

// jobDetail fetches the single-job record for a job id.
func (c *Client) jobDetail(ctx context.Context, jobID int64) (Job, error) {
	endpoint := fmt.Sprintf("?mod=ajaxShowJobs&do=showSingleJob&jobId=%d", jobID)
	resp, err := c.session.Get(ctx, endpoint)
	if err != nil {
		return Job{}, fmt.Errorf("fetching job %d: %w", jobID, err)
	}
	detail, err := parse.SingleJob(resp.Body)
	if err != nil {
		return Job{}, fmt.Errorf("job %d: %w", jobID, err)
	}
	return Job{
		ID:       detail.ID,
		Agent:    detail.Agent,
		Status:   detail.Status,
		ReportID: detail.ReportID,
	}, nil
}

// IsAgentDone reports whether the most recent job for the agent has
// reached a terminal status. An agent with no job is not done; a job that
// cannot be found can never report itself finished.
func (c *Client) IsAgentDone(ctx context.Context, uploadID int64, agent string) (bool, error) {
	job, err := c.MostRecentJob(ctx, uploadID, agent)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return job.Done(), nil
}

// WaitForAgent polls until the most recent job for the agent reaches a
// terminal status, checking every poll interval. Cancellation or deadline
// expiry on ctx ends the wait with a PendingError; bound the worst case
// with context.WithTimeout.
func (c *Client) WaitForAgent(ctx context.Context, uploadID int64, agent string, poll time.Duration) error {
	for {
		done, err := c.IsAgentDone(ctx, uploadID, agent)
		if err != nil {
			if ctx.Err() != nil {
				return &PendingError{UploadID: uploadID, Agent: agent, Err: ctx.Err()}
			}
			return err
		}
		if done {
			return nil
		}

		c.logger.Debug("agent not done, waiting", "upload", uploadID, "agent", agent, "poll", poll)
		timer := time.NewTimer(poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &PendingError{UploadID: uploadID, Agent: agent, Err: ctx.Err()}
		case <-timer.C:
		}
	}
}
