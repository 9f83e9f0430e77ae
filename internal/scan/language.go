package scan

import "strings"

var languageByExt = map[string]string{
	".js":    "JavaScript",
	".jsx":   "JavaScript (React)",
	".ts":    "TypeScript",
	".tsx":   "TypeScript (React)",
	".py":    "Python",
	".rb":    "Ruby",
	".php":   "PHP",
	".java":  "Java",
	".cs":    "C#",
	".cpp":   "C++",
	".c":     "C",
	".go":    "Go",
	".rs":    "Rust",
	".swift": "Swift",
	".kt":    "Kotlin",
	".scala": "Scala",
	".sql":   "SQL",
	".html":  "HTML",
	".xml":   "XML",
	".sh":    "Shell",
	".bash":  "Bash",
	".ps1":   "PowerShell",
}

// DetectLanguage maps a filename to a display language for the analysis
// prompt. Unrecognised extensions report "Unknown".
func DetectLanguage(filename string) string {
	lower := strings.ToLower(filename)
	i := strings.LastIndexByte(lower, '.')
	if i < 0 {
		return "Unknown"
	}
	if lang, ok := languageByExt[lower[i:]]; ok {
		return lang
	}
	return "Unknown"
}
