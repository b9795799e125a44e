package agent

import (
	provmodels "github.com/autofyn/linkedgen/provider/models"
)

// Conversation accumulates the message history of one loop run. Turns
// alternate between the caller side and the model side; tool results are
// always folded into a single user turn directly after the assistant turn
// that requested them, in emission order.
type Conversation struct {
	messages []provmodels.Message
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// AddUserText appends a plain text user turn.
func (c *Conversation) AddUserText(text string) {
	c.messages = append(c.messages, provmodels.TextMessage(provmodels.RoleUser, text))
}

// AddAssistant appends the model's turn content unchanged, tool-use blocks
// included, so result blocks can be correlated against it on the next call.
func (c *Conversation) AddAssistant(content []provmodels.ContentBlock) {
	c.messages = append(c.messages, provmodels.Message{Role: provmodels.RoleAssistant, Content: content})
}

// AddToolResults appends all results of one assistant turn as a single user
// turn.
func (c *Conversation) AddToolResults(results []provmodels.ContentBlock) {
	if len(results) == 0 {
		return
	}
	c.messages = append(c.messages, provmodels.Message{Role: provmodels.RoleUser, Content: results})
}

// Messages returns the history handed to the provider.
func (c *Conversation) Messages() []provmodels.Message {
	return c.messages
}

// Len reports the number of turns recorded so far.
func (c *Conversation) Len() int {
	return len(c.messages)
}
