// Package parse extracts records from FOSSology console response bodies.
//
// The console has no machine API: folder lists and license pickers arrive
// as HTML select elements, upload listings as DataTables JSON whose cells
// are HTML fragments, and job listings as JSON wrapping an HTML table.
// Every function here is a pure transformation from a response body to
// records; session state and I/O stay in the transport layer.
package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Upload is one row of a folder's upload listing.
type Upload struct {
	ID   int64
	Name string
}

// UploadPage is one page of a folder's upload listing plus the
// server-reported total row count, used to drive pagination.
type UploadPage struct {
	Total   int
	Uploads []Upload
}

// License is one entry of the console's license picker.
type License struct {
	ID   int64
	Name string
}

// JobEntry is one row of the job listing for an upload. The console
// returns rows in reverse-chronological order.
type JobEntry struct {
	ID    int64
	Agent string
}

// JobDetail is the single-job view of one agent invocation.
type JobDetail struct {
	ID       int64
	Agent    string
	Status   string
	ReportID int64
}

// FolderID scans the folder select element of the upload page for an
// option whose display text equals name. The console indents nested
// folders with non-breaking spaces, so option text is trimmed first.
func FolderID(html []byte, name string) (int64, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return 0, false
	}

	var id int64
	found := false
	doc.Find(`select[name="folder"] option`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimLeft(sel.Text(), "  \t")
		if text != name {
			return true
		}
		value, ok := sel.Attr("value")
		if !ok {
			return true
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return true
		}
		id = n
		found = true
		return false
	})
	return id, found
}

// UploadFormToken extracts the hidden one-time token the upload form
// requires on submission.
func UploadFormToken(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing upload page: %w", err)
	}
	token, ok := doc.Find(`input[name="uploadformbuild"]`).Attr("value")
	if !ok || token == "" {
		return "", fmt.Errorf("upload form token not found")
	}
	return token, nil
}

// NewUploadID finds the upload id the console assigned to a just-submitted
// file, taken from the first anchor on the result page that links to an
// upload.
func NewUploadID(html []byte) (int64, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("parsing upload result page: %w", err)
	}

	var id int64
	found := false
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		n, ok := uploadIDFromHref(href)
		if !ok {
			return true
		}
		id = n
		found = true
		return false
	})
	if !found {
		return 0, fmt.Errorf("no upload link in response")
	}
	return id, nil
}

// uploadsResponse is the DataTables envelope of browse-processPost.
type uploadsResponse struct {
	TotalDisplayRecords int                 `json:"iTotalDisplayRecords"`
	Rows                [][]json.RawMessage `json:"aaData"`
}

// Uploads decodes one page of the browse-processPost listing. Each row's
// first cell is an HTML fragment whose upload anchor carries the id in its
// href and the display name as its text.
func Uploads(body []byte) (UploadPage, error) {
	var resp uploadsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return UploadPage{}, fmt.Errorf("decoding upload listing: %w", err)
	}

	page := UploadPage{Total: resp.TotalDisplayRecords}
	for _, row := range resp.Rows {
		if len(row) == 0 {
			continue
		}
		var cell string
		if err := json.Unmarshal(row[0], &cell); err != nil {
			continue
		}
		upload, ok := uploadFromCell(cell)
		if !ok {
			continue
		}
		page.Uploads = append(page.Uploads, upload)
	}
	return page, nil
}

// uploadFromCell pulls id and name out of one listing cell's upload anchor.
func uploadFromCell(cell string) (Upload, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cell))
	if err != nil {
		return Upload{}, false
	}

	var upload Upload
	found := false
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		id, ok := uploadIDFromHref(href)
		if !ok {
			return true
		}
		upload = Upload{ID: id, Name: strings.TrimSpace(sel.Text())}
		found = true
		return false
	})
	return upload, found
}

// Licenses scans the license picker select of the view-license page.
// Placeholder options with a non-positive value are skipped.
func Licenses(html []byte) ([]License, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing license page: %w", err)
	}

	var licenses []License
	doc.Find("select#bulkLicense option").Each(func(_ int, sel *goquery.Selection) {
		value, ok := sel.Attr("value")
		if !ok {
			return
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return
		}
		licenses = append(licenses, License{ID: id, Name: strings.TrimSpace(sel.Text())})
	})
	return licenses, nil
}

// jobsResponse is the JSON envelope of ajaxShowJobs do=showjb: the job
// table itself is an embedded HTML fragment.
type jobsResponse struct {
	ShowJobsData string `json:"showJobsData"`
}

// Jobs decodes one page of the job listing. Each table row's job anchor
// carries the job id in its href and the agent name as its text. Rows are
// kept in document order, which the console emits reverse-chronologically.
func Jobs(body []byte) ([]JobEntry, error) {
	var resp jobsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding job listing: %w", err)
	}
	if resp.ShowJobsData == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.ShowJobsData))
	if err != nil {
		return nil, fmt.Errorf("parsing job table: %w", err)
	}

	var jobs []JobEntry
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		id, ok := jobIDFromHref(href)
		if !ok {
			return
		}
		jobs = append(jobs, JobEntry{ID: id, Agent: strings.TrimSpace(sel.Text())})
	})
	return jobs, nil
}

// singleJobResponse is the JSON shape of ajaxShowJobs do=showSingleJob.
type singleJobResponse struct {
	JobID     int64  `json:"jobId"`
	AgentName string `json:"agentName"`
	Status    string `json:"status"`
	ReportID  int64  `json:"reportId"`
}

// SingleJob decodes the single-job detail record.
func SingleJob(body []byte) (JobDetail, error) {
	var resp singleJobResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return JobDetail{}, fmt.Errorf("decoding job detail: %w", err)
	}
	if resp.JobID == 0 {
		return JobDetail{}, fmt.Errorf("job detail has no job id")
	}
	return JobDetail{
		ID:       resp.JobID,
		Agent:    resp.AgentName,
		Status:   resp.Status,
		ReportID: resp.ReportID,
	}, nil
}

// uploadIDFromHref extracts the upload query parameter from a console href.
func uploadIDFromHref(href string) (int64, bool) {
	return queryID(href, "upload")
}

// jobIDFromHref extracts the job query parameter from a console href.
func jobIDFromHref(href string) (int64, bool) {
	return queryID(href, "job")
}

func queryID(href, param string) (int64, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return 0, false
	}
	value := u.Query().Get(param)
	if value == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
