package models

import "time"

// Role identifies which side of a conversation an actor is on.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Valid reports whether r is one of the two conversation roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// Counterpart returns the opposite role. Anything that is not a teacher is
// treated as a student viewer.
func (r Role) Counterpart() Role {
	if r == RoleTeacher {
		return RoleStudent
	}
	return RoleTeacher
}

// Participant is a lightweight reference to a chat member.
type Participant struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Image string `json:"image"`
}

// Participants holds the fixed student/teacher pair of a chat.
type Participants struct {
	Student Participant `json:"student"`
	Teacher Participant `json:"teacher"`
}

// ByRole returns the participant on the given side.
func (p Participants) ByRole(role Role) Participant {
	if role == RoleTeacher {
		return p.Teacher
	}
	return p.Student
}

// Message is one chat entry. IDs are unique within the parent chat only.
type Message struct {
	ID        string    `json:"id" validate:"required"`
	Sender    Role      `json:"sender" validate:"required,oneof=student teacher"`
	Text      string    `json:"text" validate:"required"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat is a conversation thread; Messages is append-only.
type Chat struct {
	ID           string       `json:"id" validate:"required"`
	Participants Participants `json:"participants"`
	Messages     []Message    `json:"messages" validate:"dive"`
}

// LastMessage returns the final message, or false for an empty thread.
func (c Chat) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// Clone returns a copy that shares no message storage with c.
func (c Chat) Clone() Chat {
	cp := c
	cp.Messages = append([]Message(nil), c.Messages...)
	return cp
}

// SidebarEntry is one row of the conversation list.
type SidebarEntry struct {
	ChatID      string      `json:"chatId"`
	Counterpart Participant `json:"counterpart"`
	LastMessage Message     `json:"lastMessage"`
}

// SelectChatRequest changes the active thread.
type SelectChatRequest struct {
	ChatID string `json:"chatId" binding:"required"`
}

// SelectChatResponse reports the active thread after a selection attempt.
// Selected is false when the requested id was unknown.
type SelectChatResponse struct {
	ActiveChatID string `json:"activeChatId"`
	Selected     bool   `json:"selected"`
}

// SendMessageRequest carries the text of a new message. The sender is always
// the session role.
type SendMessageRequest struct {
	Text string `json:"text"`
}
