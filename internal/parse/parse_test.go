package parse

import "testing"

const uploadPageHTML = `<html><body>
<form enctype="multipart/form-data" method="post">
<input type="hidden" name="uploadformbuild" value="restoken.1234abcd" />
<select name="folder">
<option value="1">Software Repository</option>
<option value="7">&nbsp;&nbsp;incoming</option>
<option value="12">&nbsp;&nbsp;released</option>
</select>
</form>
</body></html>`

func TestFolderID(t *testing.T) {
	id, ok := FolderID([]byte(uploadPageHTML), "incoming")
	if !ok {
		t.Fatal("expected folder to be found")
	}
	if id != 7 {
		t.Errorf("expected folder id 7, got %d", id)
	}

	id, ok = FolderID([]byte(uploadPageHTML), "Software Repository")
	if !ok || id != 1 {
		t.Errorf("expected root folder id 1, got %d (found=%v)", id, ok)
	}
}

func TestFolderIDNotFound(t *testing.T) {
	if _, ok := FolderID([]byte(uploadPageHTML), "no-such-folder"); ok {
		t.Error("expected folder to be absent")
	}
}

func TestUploadFormToken(t *testing.T) {
	token, err := UploadFormToken([]byte(uploadPageHTML))
	if err != nil {
		t.Fatalf("UploadFormToken: %v", err)
	}
	if token != "restoken.1234abcd" {
		t.Errorf("unexpected token: %q", token)
	}
}

func TestUploadFormTokenMissing(t *testing.T) {
	if _, err := UploadFormToken([]byte("<html><body></body></html>")); err == nil {
		t.Error("expected error for page without token")
	}
}

func TestNewUploadID(t *testing.T) {
	html := `<html><body>
<p>The file pkg.tar.gz has been uploaded.
<a href="?mod=showjobs&upload=42">view jobs</a></p>
</body></html>`
	id, err := NewUploadID([]byte(html))
	if err != nil {
		t.Fatalf("NewUploadID: %v", err)
	}
	if id != 42 {
		t.Errorf("expected upload id 42, got %d", id)
	}
}

func TestNewUploadIDMissing(t *testing.T) {
	if _, err := NewUploadID([]byte(`<html><body><a href="?mod=home">home</a></body></html>`)); err == nil {
		t.Error("expected error for page without upload link")
	}
}

func TestUploads(t *testing.T) {
	body := `{
  "sEcho": 1,
  "iTotalRecords": 2,
  "iTotalDisplayRecords": 102,
  "aaData": [
    ["<a href='?mod=browse&upload=31&folder=7'>lib-1.0</a>", "2026-08-01"],
    ["<a href='?mod=browse&upload=29&folder=7'>lib-1.0-old</a>", "2026-07-15"]
  ]
}`
	page, err := Uploads([]byte(body))
	if err != nil {
		t.Fatalf("Uploads: %v", err)
	}
	if page.Total != 102 {
		t.Errorf("expected total 102, got %d", page.Total)
	}
	if len(page.Uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(page.Uploads))
	}
	if page.Uploads[0].ID != 31 || page.Uploads[0].Name != "lib-1.0" {
		t.Errorf("unexpected first upload: %+v", page.Uploads[0])
	}
	if page.Uploads[1].ID != 29 || page.Uploads[1].Name != "lib-1.0-old" {
		t.Errorf("unexpected second upload: %+v", page.Uploads[1])
	}
}

func TestUploadsEmpty(t *testing.T) {
	page, err := Uploads([]byte(`{"sEcho":1,"iTotalRecords":0,"iTotalDisplayRecords":0,"aaData":[]}`))
	if err != nil {
		t.Fatalf("Uploads: %v", err)
	}
	if page.Total != 0 || len(page.Uploads) != 0 {
		t.Errorf("expected empty page, got %+v", page)
	}
}

func TestUploadsMalformed(t *testing.T) {
	if _, err := Uploads([]byte("<html>not json</html>")); err == nil {
		t.Error("expected error for non-JSON body")
	}
}

func TestLicenses(t *testing.T) {
	html := `<html><body>
<select id="bulkLicense" name="bulkLicense">
<option value="0">Select license</option>
<option value="10">MIT</option>
<option value="22">GPL-2.0-only</option>
</select>
</body></html>`
	licenses, err := Licenses([]byte(html))
	if err != nil {
		t.Fatalf("Licenses: %v", err)
	}
	if len(licenses) != 2 {
		t.Fatalf("expected 2 licenses, got %d", len(licenses))
	}
	if licenses[0].ID != 10 || licenses[0].Name != "MIT" {
		t.Errorf("unexpected first license: %+v", licenses[0])
	}
	if licenses[1].ID != 22 || licenses[1].Name != "GPL-2.0-only" {
		t.Errorf("unexpected second license: %+v", licenses[1])
	}
}

func TestJobs(t *testing.T) {
	body := `{"showJobsData": "<table><tr><td><a href='?mod=showjobs&upload=4&job=9'>monk</a></td></tr><tr><td><a href='?mod=showjobs&upload=4&job=7'>nomos</a></td></tr><tr><td><a href='?mod=showjobs&upload=4&job=5'>monk</a></td></tr></table>"}`
	jobs, err := Jobs([]byte(body))
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != 9 || jobs[0].Agent != "monk" {
		t.Errorf("unexpected first job: %+v", jobs[0])
	}
	if jobs[2].ID != 5 || jobs[2].Agent != "monk" {
		t.Errorf("unexpected last job: %+v", jobs[2])
	}
}

func TestJobsEmptyPage(t *testing.T) {
	jobs, err := Jobs([]byte(`{"showJobsData": ""}`))
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(jobs))
	}
}

func TestSingleJob(t *testing.T) {
	body := `{"jobId": 9, "agentName": "spdx2tv", "status": "Completed", "reportId": 17}`
	job, err := SingleJob([]byte(body))
	if err != nil {
		t.Fatalf("SingleJob: %v", err)
	}
	if job.ID != 9 || job.Agent != "spdx2tv" || job.Status != "Completed" || job.ReportID != 17 {
		t.Errorf("unexpected job detail: %+v", job)
	}
}

func TestSingleJobMissingID(t *testing.T) {
	if _, err := SingleJob([]byte(`{"status": "Completed"}`)); err == nil {
		t.Error("expected error for detail without job id")
	}
}
