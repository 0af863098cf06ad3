package global

// Node in the CLI command tree
type CommandSet struct {
	CommandName     string
	UsageOption     string // Trailing argument shown on the usage line
	Description     string // Shown in the parent's subcommand list
	FullDescription string // Shown on the command's own help page
	ChildCommands   map[string]*CommandSet
}

// Context value keys
type CtxKey string
