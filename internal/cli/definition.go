package cli

import "sonarfeed/internal/global"

// Command tree used for parsing and help output
func DefineOptions() (root *global.CommandSet) {
	root = &global.CommandSet{
		CommandName:     RootCLICommand,
		Description:     "Sonar Feed Distributor (sonarfeed)",
		FullDescription: "  Fans out sonar tracks, display frames and echo metrics to TCP consumers",
		ChildCommands:   make(map[string]*global.CommandSet),
	}

	for _, command := range []global.CommandSet{
		{
			CommandName:     "serve",
			Description:     "Run Distribution Server",
			FullDescription: "Reads tracker output from the upstream queues and shared memory, and streams it to every connected consumer",
		},
		{
			CommandName:     "listen",
			Description:     "Consume a Feed",
			FullDescription: "Connects to a distribution server, reconnects when idle, and prints or forwards every received message",
		},
		{
			CommandName:     "configure",
			Description:     "Setup Actions",
			FullDescription: "Install the daemon as a service, remove it, or write a configuration template",
		},
		{
			CommandName:     "version",
			Description:     "Show Version Information",
			FullDescription: "Print the program version, with build details at higher verbosity",
		},
	} {
		root.ChildCommands[command.CommandName] = &command
	}
	return
}
