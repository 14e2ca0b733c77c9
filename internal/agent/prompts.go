package agent

import (
	"fmt"
	"strings"
)

// PromptKind selects which prompt template a provider renders.
type PromptKind int

const (
	// PromptDefault carries the full wiki style conventions.
	PromptDefault PromptKind = iota
	// PromptFallback is the reduced prompt used for the single retry after
	// output failed validation.
	PromptFallback
)

func (k PromptKind) String() string {
	if k == PromptFallback {
		return "fallback"
	}
	return "default"
}

// wikiConventions are appended to every default prompt. The generated page
// must begin with a `#` heading, which is what ValidateOutput checks for.
const wikiConventions = `Follow the repository wiki conventions described in skill.md at the workspace root:
1. Start the document with a single "# <title>" heading and use "##"/"###" for sections.
2. Declare the files you cite in a <cite> block directly under the title.
3. End every section with a "Section sources" list naming the files and line ranges used.
4. Use Mermaid diagrams to visualize flows, structures and dependencies.
5. Link related wiki pages with relative Markdown links.
6. Put code examples in fenced blocks with a language tag.
7. Keep the content consistent with the current code.`

const preserveStructure = `This is an update: preserve the existing document structure and only change the parts affected by the source changes.`

// fallbackPrompt is deliberately generic: no citations, diagrams or links.
const fallbackPrompt = `Write a Markdown documentation page titled "%s" for the following source files: %s.

Requirements:
- Begin with a "# %s" heading.
- Organize the content into clear sections with "##" headings.
- Include short code examples where they help.

Output only the Markdown document.`

// BuildPrompt renders the prompt of the given kind for req.
func BuildPrompt(req Request, kind PromptKind) string {
	if kind == PromptFallback {
		return fmt.Sprintf(fallbackPrompt, req.Title, sourceList(req.SourceFiles, "the files relevant to this topic"), req.Title)
	}
	return defaultPrompt(req)
}

func defaultPrompt(req Request) string {
	action := "Create"
	if req.IsUpdate {
		action = "Update"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s the documentation page: %s\n\n", action, req.Title)
	fmt.Fprintf(&b, "Document path: %s\n", req.DocPath)
	if len(req.SourceFiles) > 0 {
		fmt.Fprintf(&b, "Source files: %s\n\n", strings.Join(req.SourceFiles, ", "))
	} else {
		b.WriteString("Source files: none were given. Find the files in the workspace that are relevant to this topic and document them.\n\n")
	}
	b.WriteString(wikiConventions)
	if req.IsUpdate {
		b.WriteString("\n\n")
		b.WriteString(preserveStructure)
	}
	return b.String()
}

func sourceList(files []string, empty string) string {
	if len(files) == 0 {
		return empty
	}
	return strings.Join(files, ", ")
}
