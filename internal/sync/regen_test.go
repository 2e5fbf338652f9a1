package sync

import (
	"strings"
	"testing"
)

const guidanceTemplate = `# Project Guide

{{PROJECT_DESCRIPTION}}

## Domain

{{DOMAIN_SPECIFICS}}

## Onboarding

1. Read the README
2. Review schema documentation (check ` + "`docs/db/`" + ` for schema baselines)
3. Run the dev server
`

const projectConfig = `# Config

## PROJECT_DESCRIPTION
A billing portal for veterinary clinics.

## DOMAIN_SPECIFICS
Invoices are immutable once issued.
Refunds create compensating entries.

## DATABASE_SCHEMA_REF
docs/db/schema-v3.md
`

func TestRegenerateGuidance(t *testing.T) {
	hub := t.TempDir()
	spoke := t.TempDir()
	writeFile(t, hub, GuidanceFile, guidanceTemplate)
	writeFile(t, spoke, ProjectConfigFile, projectConfig)

	eng, _ := newTestEngine(Options{})
	if err := eng.RegenerateGuidance(hub, spoke); err != nil {
		t.Fatal(err)
	}

	out := readFile(t, spoke, GuidanceFile)
	if !strings.Contains(out, "A billing portal for veterinary clinics.") {
		t.Errorf("description not substituted:\n%s", out)
	}
	if !strings.Contains(out, "Refunds create compensating entries.") {
		t.Errorf("domain specifics not substituted:\n%s", out)
	}
	if !strings.Contains(out, "2. Review `docs/db/schema-v3.md`") {
		t.Errorf("schema line not replaced:\n%s", out)
	}
	if strings.Contains(out, "{{") {
		t.Errorf("unreplaced placeholder remains:\n%s", out)
	}
}

func TestRegenerateGuidanceKeepsDefaultSchemaLine(t *testing.T) {
	hub := t.TempDir()
	spoke := t.TempDir()
	writeFile(t, hub, GuidanceFile, guidanceTemplate)
	writeFile(t, spoke, ProjectConfigFile, "## PROJECT_DESCRIPTION\nA thing.\n\n## DOMAIN_SPECIFICS\nNone.\n")

	eng, _ := newTestEngine(Options{})
	if err := eng.RegenerateGuidance(hub, spoke); err != nil {
		t.Fatal(err)
	}

	out := readFile(t, spoke, GuidanceFile)
	if !strings.Contains(out, defaultSchemaLine) {
		t.Errorf("default schema line should be preserved:\n%s", out)
	}
}

func TestRegenerateGuidanceMissingConfigIsWarning(t *testing.T) {
	hub := t.TempDir()
	spoke := t.TempDir()
	writeFile(t, hub, GuidanceFile, guidanceTemplate)

	eng, buf := newTestEngine(Options{})
	if err := eng.RegenerateGuidance(hub, spoke); err != nil {
		t.Fatalf("missing config should not error: %v", err)
	}
	if !strings.Contains(buf.String(), "skipping regeneration") {
		t.Errorf("missing skip warning:\n%s", buf.String())
	}
}

func TestRegenerateGuidanceDryRun(t *testing.T) {
	hub := t.TempDir()
	spoke := t.TempDir()
	writeFile(t, hub, GuidanceFile, guidanceTemplate)
	writeFile(t, spoke, ProjectConfigFile, projectConfig)

	eng, _ := newTestEngine(Options{DryRun: true})
	if err := eng.RegenerateGuidance(hub, spoke); err != nil {
		t.Fatal(err)
	}
	if fileExists(spoke, GuidanceFile) {
		t.Error("guidance doc written during dry run")
	}
}
