package ignore

// DefaultIgnorePatterns contains patterns that are always skipped during discovery.
// Names without glob characters match any path component.
var DefaultIgnorePatterns = []string{
	// Version control
	".git",
	".svn",
	".hg",

	// Dependencies and build output
	"node_modules",
	"vendor",
	"__pycache__",
	".venv",
	"venv",

	// IDE / Editor
	".idea",
	".vscode",
	".vs",
	"*.swp",
	"*~",

	// OS files
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	"$RECYCLE.BIN",
	".Trash",

	// Office lock and temporary files
	"~$*",
	".~lock.*",
	"*.tmp",

	// Caches
	".cache",
}

// defaultSkipDirs are directory names skipped without consulting ignore files.
var defaultSkipDirs = map[string]struct{}{
	".git": {}, ".svn": {}, ".hg": {}, "node_modules": {}, "__pycache__": {},
	".idea": {}, ".vscode": {}, ".vs": {}, ".cache": {}, ".venv": {}, "venv": {},
	"$RECYCLE.BIN": {}, ".Trash": {},
}

// IgnoreFileNames are the ignore files read from the root directory.
var IgnoreFileNames = []string{".gitignore", ".docindexignore"}
