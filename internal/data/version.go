package data

// populated at build time via -ldflags "-X"
var (
	Version   string
	GitCommit string
	GitBranch string
)
