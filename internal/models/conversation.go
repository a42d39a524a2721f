package models

import (
	"time"
)

type ConversationType string

const (
	ConversationProject ConversationType = "project_discussion"
	ConversationTask    ConversationType = "task_discussion"
)

func (c ConversationType) Valid() bool {
	return c == ConversationProject || c == ConversationTask
}

func ParseConversationType(s string) (ConversationType, error) {
	kind := ConversationType(s)
	if !kind.Valid() {
		return "", ErrInvalidConversation
	}
	return kind, nil
}

// ChatMessage is immutable once created.
type ChatMessage struct {
	ID               string           `json:"id" gorm:"primaryKey"`
	ConversationType ConversationType `json:"conversation_type" gorm:"not null;index:idx_conversation"`
	TargetID         string           `json:"target_id" gorm:"not null;index:idx_conversation"`
	SenderID         string           `json:"sender_id" gorm:"not null"`
	SenderName       string           `json:"sender_name"`
	Content          string           `json:"content" gorm:"type:text;not null"`
	Timestamp        time.Time        `json:"timestamp" gorm:"index"`
	// Seq is the 1-based position in the conversation.
	Seq int64 `json:"seq"`
}
