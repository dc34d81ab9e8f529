package bot

// Event is one inbound chat update, already flattened by the transport:
// a slash command, a button press (callback data), or free text. Exactly
// one of Command, Callback and Text is expected to be set.
type Event struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`

	Command  string `json:"command,omitempty"`
	Callback string `json:"callback,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Button is one inline keyboard button: a label the user sees and the
// callback data the next event carries back.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Reply is what the transport renders back into the chat.
type Reply struct {
	Text     string     `json:"text"`
	Keyboard [][]Button `json:"keyboard,omitempty"`
}
