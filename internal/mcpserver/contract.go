package mcpserver

// DocFormatContract is the canonical document format and edit discipline
// exposed to LLM clients via the get_doc_contract tool and the
// scribe://doc-format resource.
const DocFormatContract = `# Scribe Document Contract

Every managed document is Markdown with optional YAML frontmatter:

    ---
    title: Architecture Overview
    related_docs:
      - decisions
      - runbook#deploys
    ---
    # Architecture Overview
    ...

Rules:

1. **Frontmatter** is delimited by lines that are exactly ` + "`---`" + `.
   The engine owns ` + "`last_updated`" + ` and stamps it on every write;
   do not set it yourself. Other keys you supply are merged as-is.

2. **Line numbers are body-relative.** Line 1 is the first line after
   the closing frontmatter delimiter. Use these numbers in
   replace_range and read them back from list_checklist_items and
   error details.

3. **Prefer structured edits.** replace_block targets the unique line
   containing your anchor text and extends to the next blank line.
   If the anchor is ambiguous you get every matching line number back;
   switch to replace_range instead of retrying. replace_section
   (` + "`<!-- ID: name -->`" + ` markers) is legacy scaffolding only.

4. **Never hand-write diffs.** apply_patch only accepts diffs the
   engine produced earlier. Pass the document checksum you read as
   pre_hash so a concurrent change fails loudly (STALE_SOURCE) instead
   of corrupting the document.

5. **Fenced code blocks are opaque.** Header normalization, TOC
   generation, and anchor matching all skip ` + "```" + ` regions.

6. **TOC markers.** The generated table of contents lives between
   ` + "`<!-- TOC:start -->`" + ` and ` + "`<!-- TOC:end -->`" + `; leave them in place.
`
