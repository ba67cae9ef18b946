package ui

// InitState tracks how far startup got
type InitState int

const (
	InitStateUnconfigured    InitState = iota // no token, nothing will be requested
	InitStateConnecting                       // waiting for the current user
	InitStateDisconnected                     // the user request failed
	InitStateLoadingChannels                  // user known, channel list in flight
	InitStateReady                            // channel list loaded at least once
)

func (s InitState) String() string {
	switch s {
	case InitStateUnconfigured:
		return "Unconfigured"
	case InitStateConnecting:
		return "Connecting"
	case InitStateDisconnected:
		return "Disconnected"
	case InitStateLoadingChannels:
		return "LoadingChannels"
	case InitStateReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// Connected reports whether the current user has been fetched
func (s InitState) Connected() bool {
	return s == InitStateLoadingChannels || s == InitStateReady
}
