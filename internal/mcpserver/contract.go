package mcpserver

// IndexFormat describes the outputs of render_index so LLM consumers can
// read them without guessing.
const IndexFormat = `# Index Output Format

render_index walks the wiki page tree below a root page and lays it out as a
nested index. Three encodings are available through the ` + "`format`" + ` argument.

## Arguments

- ` + "`path`" + `: page path such as ` + "`/en/docs/guide`" + `. One leading slash and a
  two-letter locale segment are stripped before lookup, so ` + "`/en/docs`" + `,
  ` + "`/docs`" + ` and ` + "`docs`" + ` all resolve to the page ` + "`docs`" + `.
- ` + "`depth`" + `: number of levels below the root to show. Read like an HTML
  integer attribute: ` + "`3px`" + ` is 3; empty, zero, negative, or non-numeric
  values mean 1.
- ` + "`format`" + `: ` + "`text`" + ` (default here), ` + "`html`" + `, or ` + "`json`" + `.

## text

` + "```" + `
Index
Intro (/docs/intro)
---
Guide (/docs/guide)
» How to use the product
  Install (/docs/guide/install)
---
` + "```" + `

- The first line is the heading.
- Each page is ` + "`Title (/path)`" + `, indented two spaces per level.
- ` + "`» text`" + ` is the description of the page above it. Descriptions appear
  only on pages that have children and sit above the deepest level.
- ` + "`---`" + ` separates top-level entries.

## html

An ` + "`<h1>`" + ` heading followed by one ` + "`<div>`" + ` per non-empty level. Each page is a
` + "`<p>`" + ` holding a link; font size shrinks from 1.4rem by 0.1rem per level and the
deepest level uses the default size. ` + "`<hr>`" + ` follows each top-level entry.

## json

` + "```" + `json
{"heading": "Index", "index": {"blocks": [
  {"kind": "row", "title": "Intro", "href": "/docs/intro", "indent": 0, "font_scale": 1.4},
  {"kind": "separator", "indent": 0}
]}}
` + "```" + `

Block kinds are row, description, group (nested ` + "`group.blocks`" + `), and separator.
` + "`index`" + ` is null when the root page has no children.

## Errors

- ` + "`page not found`" + `: no page has exactly the normalized path.
- ` + "`content tree unavailable`" + `: the wiki did not answer; nothing is rendered.
`
