package prompt

// GetImagePrompt provides the instruction sent alongside every image. The
// field list must stay in sync with analysis.AnalyticalFields.
func GetImagePrompt() string {
	return `
Please analyze this image in detail and return your response ONLY as valid JSON with exactly these fields:

{
    "summary": "Brief one-sentence description",
    "objects": "List main objects visible (comma-separated)",
    "people_count": "Number of people (0 if none, or specific count)",
    "people_description": "What people are doing (or 'None' if no people)",
    "colors": "Dominant colors and color characteristics",
    "mood": "Overall mood/atmosphere",
    "emotion": "Emotional quality conveyed",
    "movement": "Sense of movement or stillness",
    "setting": "Location/environment type",
    "lighting": "Lighting characteristics and quality",
    "composition": "Compositional elements and structure",
    "elements_list": "Detailed comma-separated list of all visible elements",
    "full_description": "Comprehensive 2-3 paragraph description covering all aspects"
}

Important: Return ONLY the JSON object, no other text before or after.
`
}
