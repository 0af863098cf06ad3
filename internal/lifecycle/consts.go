package lifecycle

const (
	EnvNameNotifySocket string = "NOTIFY_SOCKET"

	msgReady     string = "READY=1"
	msgStopping  string = "STOPPING=1"
	msgReloading string = "RELOADING=1"
	msgStatus    string = "STATUS="
)
