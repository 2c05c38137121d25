package voice

// FormatBatchResponse renders the canonical tool-result list into every shape
// the channel's consumers expect at once: the current key, the tool-call
// alias, the first result alone and the legacy-cased key. All four are views
// of the same list, computed once.
func FormatBatchResponse(results []ToolResult) map[string]any {
	response := map[string]any{
		"results":         results,
		"toolCallResults": results,
		"Results":         results,
	}
	if len(results) > 0 {
		response["result"] = results[0]
	}
	return response
}
