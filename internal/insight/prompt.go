package insight

import "fmt"

// systemPromptFormat is the fixed task description handed to the completion
// service alongside every anonymized dataset.
const systemPromptFormat = `
You are an expert diabetes management assistant analyzing glucose data.
The CSV data provided contains the following columns: timestamp, glucose_level (in mg/dL), and insulin_value.
The user's target range is %d mg/dL to %d mg/dL.

Analyze the data and provide:
1. A summary of glucose control (time in range, patterns of highs and lows)
2. Identified patterns (e.g., overnight trends, post-meal spikes)
3. Potential correlations between insulin doses and glucose levels
4. Actionable recommendations to improve glucose management
5. Any other insights that might be helpful

Format your response in clear sections with headers, and focus on being helpful and actionable.
`

func buildSystemPrompt(min, max int) string {
	return fmt.Sprintf(systemPromptFormat, min, max)
}

func buildUserMessage(csvData string) string {
	return "Here is my glucose data:\n\n" + csvData
}
