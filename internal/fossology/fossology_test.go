package fossology

import (
	"context"
	"testing"
)

func TestParseAction(t *testing.T) {
	for _, s := range []string{"add", "remove"} {
		action, err := ParseAction(s)
		if err != nil {
			t.Errorf("ParseAction(%q): %v", s, err)
		}
		if string(action) != s {
			t.Errorf("ParseAction(%q) = %q", s, action)
		}
	}
	if _, err := ParseAction("replace"); err == nil {
		t.Error("expected error for unknown action")
	}
	if _, err := ParseAction(""); err == nil {
		t.Error("expected error for empty action")
	}
}

func TestNewBulkTextMatchAction(t *testing.T) {
	lic := License{ID: 10, Name: "MIT"}

	action, err := NewBulkTextMatchAction(lic, ActionAdd)
	if err != nil {
		t.Fatalf("NewBulkTextMatchAction: %v", err)
	}
	if action.LicenseID != 10 || action.LicenseName != "MIT" || action.Action != ActionAdd {
		t.Errorf("unexpected action: %+v", action)
	}

	if _, err := NewBulkTextMatchAction(lic, Action("drop")); err == nil {
		t.Error("expected error for unknown verb")
	}
}

func TestFindLicense(t *testing.T) {
	licenses := []License{
		{ID: 10, Name: "MIT"},
		{ID: 22, Name: "GPL-2.0-only"},
	}

	lic, err := FindLicense(licenses, "GPL-2.0-only")
	if err != nil {
		t.Fatalf("FindLicense: %v", err)
	}
	if lic.ID != 22 {
		t.Errorf("expected license 22, got %d", lic.ID)
	}

	_, err = FindLicense(licenses, "Apache-2.0")
	if !isNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestLicenses(t *testing.T) {
	f := newFakeConsole(t)
	f.licenseHTML = `<html><body><select id="bulkLicense">
<option value="0">Select license</option>
<option value="10">MIT</option>
<option value="22">GPL-2.0-only</option>
</select></body></html>`
	c := newTestClient(t, f)

	licenses, err := c.Licenses(context.Background(), 4, 55)
	if err != nil {
		t.Fatalf("Licenses: %v", err)
	}
	if len(licenses) != 2 {
		t.Fatalf("expected 2 licenses, got %d", len(licenses))
	}
	if licenses[0].Name != "MIT" || licenses[1].ID != 22 {
		t.Errorf("unexpected licenses: %+v", licenses)
	}
}
