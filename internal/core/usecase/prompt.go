package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/grc-evidence-pipeline/internal/core/domain"
)

const (
	maxControlTextChars = 200
	maxChunkPromptChars = 2000
)

const analystSystemMessage = "You are a GRC analyst. Always respond with valid JSON arrays only."

// buildFamilyAnalysisPrompt asks the backend for one judgment per control in
// the family, as a JSON array. Control descriptions and the chunk excerpt are
// truncated to keep the prompt bounded.
func buildFamilyAnalysisPrompt(chunkText string, family domain.ControlFamily) string {
	var controls strings.Builder
	for _, c := range family.Controls {
		controls.WriteString(fmt.Sprintf("- %s (ID: %d): %s...\n", c.Name, c.ID, truncate(c.Text, maxControlTextChars)))
	}

	return fmt.Sprintf(`You are a GRC (Governance, Risk, and Compliance) analyst. Analyze the following document chunk against the control family %q.

Control Family: %s
Controls in this family:
%s
Document Chunk:
%s...

For each control in the family, provide a JSON response with:
1. control_id: The control ID
2. family_name: %q
3. relevance_score: A number from 0-100 indicating how relevant the chunk is to this control
4. evidence: A brief quote or summary of evidence found in the chunk (empty string if none)
5. is_mentioned: true if the control requirement is mentioned or implemented in the chunk, false otherwise

Return ONLY a valid JSON array of objects, one per control. Example format:
[
  {
    "control_id": 123,
    "family_name": %q,
    "relevance_score": 75,
    "evidence": "The document mentions authentication requirements...",
    "is_mentioned": true
  }
]`, family.Name, family.Name, controls.String(), truncate(chunkText, maxChunkPromptChars), family.Name, family.Name)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// extractJSONArray pulls the first bracketed array out of a raw completion,
// tolerating prose around it. Empty string means no array was found.
func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
