package fossology

import (
	"context"
	"testing"
)

func TestBulkTextMatchValues(t *testing.T) {
	actions := []BulkTextMatchAction{
		{LicenseID: 10, LicenseName: "MIT", Action: ActionAdd},
		{LicenseID: 22, LicenseName: "GPL-2.0", Action: ActionRemove},
	}
	values := BulkTextMatchValues("Permission is hereby granted", 55, actions)

	if values.Get("refText") != "Permission is hereby granted" {
		t.Errorf("unexpected refText: %q", values.Get("refText"))
	}
	if values.Get("bulkScope") != "u" {
		t.Errorf("expected whole-upload scope, got %q", values.Get("bulkScope"))
	}
	if values.Get("uploadTreeId") != "55" {
		t.Errorf("unexpected uploadTreeId: %q", values.Get("uploadTreeId"))
	}
	if values.Get("forceDecision") != "0" {
		t.Errorf("unexpected forceDecision: %q", values.Get("forceDecision"))
	}

	checks := map[string]string{
		"bulkAction[0][licenseId]":   "10",
		"bulkAction[0][licenseName]": "MIT",
		"bulkAction[0][action]":      "add",
		"bulkAction[1][licenseId]":   "22",
		"bulkAction[1][licenseName]": "GPL-2.0",
		"bulkAction[1][action]":      "remove",
	}
	for key, want := range checks {
		if got := values.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}

	// Exactly four fixed fields plus three per action.
	if len(values) != 4+3*len(actions) {
		t.Errorf("expected %d fields, got %d", 4+3*len(actions), len(values))
	}
}

func TestBulkTextMatchValuesPreservesEncounterOrder(t *testing.T) {
	// Index follows input position, not license id ordering.
	actions := []BulkTextMatchAction{
		{LicenseID: 22, LicenseName: "GPL-2.0", Action: ActionRemove},
		{LicenseID: 10, LicenseName: "MIT", Action: ActionAdd},
	}
	values := BulkTextMatchValues("ref", 55, actions)

	if values.Get("bulkAction[0][licenseId]") != "22" {
		t.Errorf("expected first input at index 0, got %q", values.Get("bulkAction[0][licenseId]"))
	}
	if values.Get("bulkAction[1][licenseId]") != "10" {
		t.Errorf("expected second input at index 1, got %q", values.Get("bulkAction[1][licenseId]"))
	}
}

func TestStartBulkTextMatch(t *testing.T) {
	f := newFakeConsole(t)
	c := newTestClient(t, f)

	actions := []BulkTextMatchAction{{LicenseID: 10, LicenseName: "MIT", Action: ActionAdd}}
	if err := c.StartBulkTextMatch(context.Background(), "ref text", 55, actions); err != nil {
		t.Fatalf("StartBulkTextMatch: %v", err)
	}
	if len(f.bulkCalls) != 1 {
		t.Fatalf("expected 1 bulk post, got %d", len(f.bulkCalls))
	}
	form := f.bulkCalls[0]
	if form.Get("refText") != "ref text" {
		t.Errorf("unexpected refText: %q", form.Get("refText"))
	}
	if form.Get("bulkAction[0][action]") != "add" {
		t.Errorf("unexpected action field: %q", form.Get("bulkAction[0][action]"))
	}
}
