package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Guidance-doc regeneration inputs and outputs, relative to roots.
const (
	// GuidanceFile is the agent guidance document kept current from the
	// hub template during pulls.
	GuidanceFile = "CLAUDE.md"

	// ProjectConfigFile holds the per-project sections substituted into
	// the template.
	ProjectConfigFile = ".claude/PROJECT_CONFIG.md"
)

// Template placeholders and the default schema-review line replaced
// when a project declares its own schema reference.
const (
	placeholderDescription = "{{PROJECT_DESCRIPTION}}"
	placeholderDomain      = "{{DOMAIN_SPECIFICS}}"
	defaultSchemaLine      = "2. Review schema documentation (check `docs/db/` for schema baselines)"
)

var sectionRe = regexp.MustCompile(`(?m)^## (\S+)$`)

// RegenerateGuidance rebuilds a spoke's guidance document by merging
// the hub's template with the spoke's project config sections. It is
// best effort: a missing template or config is a warning, not an error,
// since a spoke may not use guidance docs at all.
func (e *Engine) RegenerateGuidance(hubRoot, spokeRoot string) error {
	templatePath := filepath.Join(hubRoot, GuidanceFile)
	template, err := os.ReadFile(templatePath)
	if err != nil {
		e.warnf("guidance template %s not readable, skipping regeneration", templatePath)
		return nil
	}

	configPath := filepath.Join(spokeRoot, ProjectConfigFile)
	config, err := os.ReadFile(configPath)
	if err != nil {
		e.warnf("project config %s not readable, skipping regeneration", configPath)
		return nil
	}

	sections := splitSections(string(config))
	output := strings.ReplaceAll(string(template), placeholderDescription, sections["PROJECT_DESCRIPTION"])
	output = strings.ReplaceAll(output, placeholderDomain, sections["DOMAIN_SPECIFICS"])

	if ref := sections["DATABASE_SCHEMA_REF"]; ref != "" {
		output = strings.Replace(output, defaultSchemaLine, fmt.Sprintf("2. Review `%s`", ref), 1)
	}

	outPath := filepath.Join(spokeRoot, GuidanceFile)
	if e.opts.DryRun {
		e.printf("regenerate %s", GuidanceFile)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(output), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	e.printf("regenerate %s", GuidanceFile)
	return nil
}

// splitSections maps `## NAME` headings to their trimmed body text.
func splitSections(config string) map[string]string {
	sections := map[string]string{}

	matches := sectionRe.FindAllStringSubmatchIndex(config, -1)
	for i, m := range matches {
		name := config[m[2]:m[3]]
		start := m[1]
		end := len(config)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections[name] = strings.TrimSpace(config[start:end])
	}
	return sections
}
