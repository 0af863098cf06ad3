package beats

// Lumberjack client surface used by the output
type sender interface {
	Send(events []interface{}) (sent int, err error)
	Close() (err error)
}

// Forwards decoded feed messages to a Beats/Logstash endpoint
type OutModule struct {
	sink       sender
	sourceHost string // Distributor the messages came from
}
