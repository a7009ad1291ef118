package server

// Examples returns the snippets behind the page's example buttons.
func Examples() map[string]string {
	return map[string]string{
		"heading": "# Hello, playground\n\nRendered by the fixture server.\n",
		"list":    "- alpha\n- beta\n- gamma\n",
		"table":   "| name | value |\n| ---- | ----- |\n| a    | 1     |\n| b    | 2     |\n",
		"broken":  "# Broken\n\nraise: undefined component `card`\n",
	}
}
