package ui

// ViewState says which pane owns the keyboard
type ViewState int

const (
	ViewChannelList ViewState = iota // sidebar has focus
	ViewChat                         // message input has focus
)

func (v ViewState) String() string {
	switch v {
	case ViewChannelList:
		return "ChannelList"
	case ViewChat:
		return "Chat"
	default:
		return "Unknown"
	}
}
