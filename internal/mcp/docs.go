package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `photobook stores photobook projects: a project owns an ordered list of pages, a version history and an optional production lock.

Core concepts:
- Project: name, format, paper and cover type plus layout settings. current_version goes up by one on every write.
- Page: numbered 1..N. Pages sharing a spread_id form a pair; pages are added and removed in pairs.
- Guard pages (guard_front, guard_back) stay first and last and can't be removed.
- Version: an immutable snapshot. Restoring one writes a new version; history is never rewritten.
- Production lock: freezes content. Only restore_version unlocks it.

Default workflow:
1) list_catalog, then create_project with a format_id so page limits and trim size apply.
2) open_editor_session, then schedule_autosave with the latest state as the user edits. Saves are debounced.
3) force_autosave before leaving, or when the user asks to save now. get_autosave_status shows failures.
4) create_version at milestones; lock_for_production when the book is final.

Writes that pass expected_version fail with CONFLICT when someone else saved first; reload with get_project and retry.

Docs:
- photobook://docs/index
- photobook://docs/concepts
- photobook://docs/workflows/editing
- photobook://docs/workflows/versions
- photobook://docs/pages
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "photobook://docs/index",
		Name:        "docs_index",
		Title:       "photobook docs index",
		Description: "Entry point: which doc answers which question.",
		Content: `# photobook docs

- **concepts**: projects, pages, spreads, versions, locks and the error codes tools return.
- **workflows/editing**: editor sessions and background saving.
- **workflows/versions**: snapshots, restore and the production lock.
- **pages**: page pair rules, guard pages and page limits.

Read concepts first if a tool returns an error code you don't recognise.
`,
	},
	{
		URI:         "photobook://docs/concepts",
		Name:        "docs_concepts",
		Title:       "Concepts and error codes",
		Description: "Glossary and the error codes tools return.",
		Content: `# Concepts

## Project

A photobook with a format (trim size, bleed, margins, page limits), a paper stock and a cover type.
The spine width is derived from page count, paper thickness and cover tolerance, rounded to 0.5mm.

current_version is an optimistic concurrency token. Every write increments it by exactly one.

## Status

draft, editing, pending_approval, approved, production, submitted, completed and locked.
locked is only reached through lock_for_production.

## Error codes

| Code | Meaning | What to do |
|---|---|---|
| NOT_FOUND | project, page, version or catalog entry doesn't exist for you | check the id |
| CONFLICT | expected_version was stale, or the project is already locked | reload, merge, retry |
| PROJECT_LOCKED | content change on a production-locked project | restore a version to unlock |
| INVALID_OPERATION | the change breaks a page rule | see pages doc |
| INVALID_INPUT | missing or malformed arguments | fix the call |
| TRANSIENT | storage hiccup | retry shortly |
| NO_SESSION | no editor session open | call open_editor_session |
`,
	},
	{
		URI:         "photobook://docs/workflows/editing",
		Name:        "docs_workflow_editing",
		Title:       "Workflow: editing with auto-save",
		Description: "How editor sessions debounce, retry and report background saves.",
		Content: `# Editing with auto-save

1. open_editor_session(project_id). Opening again replaces the previous session.
2. schedule_autosave(project_id, changes) after each edit. Only the latest changes are kept;
   a save runs after the edits pause (2s by default).
3. Storage hiccups are retried with exponential backoff (1s, 2s, 4s, capped at 10s, 3 retries).
4. If a save still fails, get_autosave_status reports state "failed" with last_error. The pending
   changes are dropped, so resend them with force_autosave.
5. force_autosave saves right away and returns the saved project or the error.
6. close_editor_session when done. It doesn't flush pending changes.

Background saves don't check expected_version; the last save wins.
`,
	},
	{
		URI:         "photobook://docs/workflows/versions",
		Name:        "docs_workflow_versions",
		Title:       "Workflow: versions and production",
		Description: "Snapshots, restore semantics, retention and the production lock.",
		Content: `# Versions and production

- create_version snapshots the project and all pages. Version numbers count 1, 2, 3... per project.
- restore_version copies a snapshot back and records a new version
  ("Restored from version N"). Restoring version 3 of 7 creates version 8.
- Restoring returns the project to draft and clears any production lock.
- lock_for_production writes a production version and freezes content. A second lock is a CONFLICT.
- Retention keeps the latest 5 versions, anything newer than 30 days and every production version.
`,
	},
	{
		URI:         "photobook://docs/pages",
		Name:        "docs_pages",
		Title:       "Page rules",
		Description: "Pairs, spreads, guard pages and page limits.",
		Content: `# Page rules

- Pages are numbered 1..N with no gaps.
- Pages are added and removed in pairs. add_page_pair inserts two pages sharing a new spread.
- remove_page_pair removes the page and its spread partner.
- Guard pages stay first and last. They can't be removed, duplicated or moved.
- The format's min and max pages bound the total count (2..200 when no format is set).
- reorder_pages needs every page id exactly once; only page numbers change.
- duplicate_page copies a page's content and adds a blank partner page after it.
- display_page_count leaves out guard, title and dedication pages.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
