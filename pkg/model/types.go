package model

import (
	"fmt"
	"strings"
	"time"
)

// Item is the payload carried by every outline node
type Item struct {
	Title    string    `json:"title" yaml:"title"`
	Kind     Kind      `json:"kind,omitempty" yaml:"kind,omitempty"`
	Status   Status    `json:"status,omitempty" yaml:"status,omitempty"`
	Priority int       `json:"priority,omitempty" yaml:"priority,omitempty"`
	Tags     []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Notes    string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	Created  time.Time `json:"created,omitzero" yaml:"created,omitempty"`
	Updated  time.Time `json:"updated,omitzero" yaml:"updated,omitempty"`
}

// NewItem returns a note with the given title, stamped now.
func NewItem(title string) Item {
	now := time.Now().UTC()
	return Item{Title: title, Kind: KindNote, Created: now, Updated: now}
}

// DisplayName is the label shown in tree rows.
func (i Item) DisplayName() string {
	return i.Title
}

// Clone creates a deep copy of the item
func (i Item) Clone() Item {
	clone := i
	if i.Tags != nil {
		clone.Tags = make([]string, len(i.Tags))
		copy(clone.Tags, i.Tags)
	}
	return clone
}

// HasTag reports whether the item carries tag, ignoring case.
func (i Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Validate checks if the item data is logically valid
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("item title cannot be empty")
	}
	if i.Kind != "" && !i.Kind.IsValid() {
		return fmt.Errorf("invalid kind: %s", i.Kind)
	}
	if i.Status != "" && !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", i.Status)
	}
	if i.Priority < 0 || i.Priority > MaxPriority {
		return fmt.Errorf("priority (%d) must be between 0 and %d", i.Priority, MaxPriority)
	}
	if !i.Updated.IsZero() && !i.Created.IsZero() && i.Updated.Before(i.Created) {
		return fmt.Errorf("updated (%v) cannot be before created (%v)", i.Updated, i.Created)
	}
	return nil
}

// MaxPriority is the lowest urgency. 1 is the most urgent; 0 means unset
// and sorts after every set priority.
const MaxPriority = 4

// Kind categorizes an outline entry
type Kind string

const (
	KindFolder Kind = "folder"
	KindNote   Kind = "note"
	KindTask   Kind = "task"
)

// IsValid returns true if the kind is a recognized value
func (k Kind) IsValid() bool {
	switch k {
	case KindFolder, KindNote, KindTask:
		return true
	}
	return false
}

// KindOrder ranks kinds for sorting: folders first, then tasks, then notes.
// Unknown and empty kinds sort last.
func KindOrder(k Kind) int {
	switch k {
	case KindFolder:
		return 0
	case KindTask:
		return 1
	case KindNote:
		return 2
	}
	return 3
}

// Status is the progress state of a task
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
)

// IsValid returns true if the status is a recognized value
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusBlocked, StatusDone:
		return true
	}
	return false
}

// IsDone returns true if the status represents a finished task
func (s Status) IsDone() bool {
	return s == StatusDone
}
