package repofetch

import (
	"path/filepath"
	"strings"
)

// codeExtensions is the allowlist of file extensions worth ingesting from a
// cloned repository. Everything else is build output, media, or binaries.
var codeExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".java": true, ".cpp": true, ".c": true, ".h": true, ".hpp": true,
	".cs": true, ".go": true, ".rs": true, ".rb": true, ".php": true,
	".swift": true, ".kt": true, ".scala": true,
	".sql": true, ".html": true, ".css": true, ".json": true, ".xml": true,
	".yaml": true, ".yml": true,
	".md": true, ".txt": true, ".sh": true, ".bash": true, ".r": true,
	".m": true, ".vue": true, ".svelte": true,
	".dart": true, ".lua": true, ".pl": true, ".pm": true,
	".gradle": true, ".proto": true, ".thrift": true,
}

// ignoreDirs are directory names skipped entirely during extraction.
var ignoreDirs = map[string]bool{
	".git": true, ".svn": true, ".hg": true,
	"node_modules": true, "__pycache__": true, ".pytest_cache": true,
	"venv": true, "env": true, ".env": true, "virtualenv": true, ".venv": true,
	"dist": true, "build": true,
	".idea": true, ".vscode": true, ".vs": true,
	"target": true, "bin": true, "obj": true, "out": true,
	"coverage": true, ".nyc_output": true, ".next": true, ".nuxt": true,
	"vendor": true,
}

// IncludeFile reports whether a filename's extension is on the code allowlist.
func IncludeFile(name string) bool {
	return codeExtensions[strings.ToLower(filepath.Ext(name))]
}

// SkipDir reports whether a directory name should be pruned from the walk.
func SkipDir(name string) bool {
	return ignoreDirs[name]
}
