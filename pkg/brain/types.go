package brain

// DialogsKey is the conversation key holding the dialog stack.
const DialogsKey = "_dialogs"

const newConversationField = "isNewConversation"

// DialogFrame is one dialog entry of the stack.
type DialogFrame struct {
	Name            string         `json:"name"`
	Characteristics map[string]any `json:"characteristics,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
}

// DialogsData is the dialog state of a conversation.
type DialogsData struct {
	Stack    []DialogFrame `json:"stack"`
	Previous []DialogFrame `json:"previous"`

	// IsNewConversation asks the brain to open a new conversation before
	// storing. It is never persisted.
	IsNewConversation bool `json:"isNewConversation,omitempty"`
}

// NewDialogsData returns empty dialog state.
func NewDialogsData() *DialogsData {
	return &DialogsData{Stack: []DialogFrame{}, Previous: []DialogFrame{}}
}
