package prompts

// Prompt IDs used by the research collaborators.
const (
	ResearchNotesID = "research_notes"
	QualityScoreID  = "quality_score"
	FinalReportID   = "final_report"
)

const researchNotesPrompt = `You are a research assistant gathering information on a topic.

Topic: "{{topic}}"

{{prior_context}}Write a set of factual research notes on the topic: concrete findings,
named sources where you know them, dates, and figures. Prefer breadth on a
first pass and depth on follow-up passes. Do not editorialize; notes only.`

const qualityScorePrompt = `Analyze the quality of these research notes for the topic: "{{topic}}"

Research Notes:
{{notes}}

Rate the quality from 0-10 where:
- 0-3: Poor quality, irrelevant or insufficient
- 4-6: Moderate quality, some useful info
- 7-10: High quality, comprehensive and relevant

Respond with ONLY a JSON object of the form {"score": <number>, "rationale": "<one sentence>"}.`

const finalReportPrompt = `Based on the research notes below, create a comprehensive summary about: "{{topic}}"

Research Notes:
{{notes}}

Please provide:
1. A clear, well-structured summary (3-5 paragraphs)
2. List 5 key points (bullet points)

Format your response as:

SUMMARY:
[Your summary here]

KEY POINTS:
- Point 1
- Point 2
- Point 3
- Point 4
- Point 5`

// registerResearchPrompts registers the prompt set driving the refinement
// loop's collaborators.
func registerResearchPrompts(r *PromptRegistry) {
	r.Register(&Prompt{
		ID:          ResearchNotesID,
		Version:     PromptV1,
		Content:     researchNotesPrompt,
		Description: "Drafts research notes for one produce attempt",
		Tags:        []string{"research", "produce"},
	})
	r.Register(&Prompt{
		ID:          QualityScoreID,
		Version:     PromptV1,
		Content:     qualityScorePrompt,
		Description: "Rates notes quality 0-10 as a JSON verdict",
		Tags:        []string{"research", "evaluate"},
	})
	r.Register(&Prompt{
		ID:          FinalReportID,
		Version:     PromptV1,
		Content:     finalReportPrompt,
		Description: "Merges all attempts into a summary with key points",
		Tags:        []string{"research", "finalize"},
	})
}
