package global

var (
	CmdOpts *CommandSet // Command tree for help menus
	PID     int         // Own process ID, suffixes private upstream queue names

	// Log detail requested on the command line:
	//	0 None, errors only
	//	1 Standard progress
	//	2 Progress, per-connection detail
	//	3 Data, message summaries
	//	4 FullData, message bodies
	//	5 Debug, raw bytes
	Verbosity int = VerbosityStandard
)
