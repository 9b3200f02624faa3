package models

import (
	"time"
)

// Community is a monitored community (a subreddit-like scope). LastPolledAt
// is the ingestion watermark: only items created after it are fetched on the
// next cycle.
type Community struct {
	ID           uint   `gorm:"primarykey"`
	Name         string `gorm:"uniqueIndex"`
	CreatedAt    time.Time
	LastPolledAt time.Time
}

// SignalColumns are the classifier-derived attributes persisted alongside an
// item. The five category booleans are ORs of the raw classifier
// sub-categories (see signals package).
type SignalColumns struct {
	Flagged       bool
	Sentiment     string
	HateSpeech    bool
	Harassment    bool
	SelfHarm      bool
	SexualContent bool
	Violence      bool
	ImageTags     string
}

// DecisionColumns are the terminal moderation verdict for an item. Rows are
// written once and never updated; a correction is a new row, not an edit.
type DecisionColumns struct {
	Removed        bool
	Questionable   bool
	Reason         string
	ImageGeneral   bool
	ImageSensitive bool
	ImageExplicit  bool
}

type Submission struct {
	ID          string `gorm:"primarykey"`
	CommunityID uint   `gorm:"index"`
	Author      string
	Title       string
	Body        string
	URL         string
	ImageURL    string
	PostedAt    time.Time
	IngestedAt  time.Time
	SignalColumns   `gorm:"embedded"`
	DecisionColumns `gorm:"embedded"`
}

type Comment struct {
	ID           string `gorm:"primarykey"`
	SubmissionID string `gorm:"index"`
	CommunityID  uint   `gorm:"index"`
	Author       string
	Body         string
	RepliedTo    string
	Level        int
	PostedAt     time.Time
	IngestedAt   time.Time
	SignalColumns   `gorm:"embedded"`
	DecisionColumns `gorm:"embedded"`
}

// Violator accumulates removals per (community, author). ViolationCount only
// ever increases; increments happen via an atomic upsert (see ledger package).
type Violator struct {
	ID             uint   `gorm:"primarykey"`
	CommunityID    uint   `gorm:"uniqueIndex:idx_violator_community_author"`
	AuthorName     string `gorm:"uniqueIndex:idx_violator_community_author"`
	ViolationCount int64
}

// PolicyDocument holds moderation policy text per community. The row with an
// empty CommunityName is the platform-wide default.
type PolicyDocument struct {
	ID            uint   `gorm:"primarykey"`
	CommunityName string `gorm:"uniqueIndex"`
	Body          string
	UpdatedAt     time.Time
}

// AllTables is the AutoMigrate list for service startup.
func AllTables() []any {
	return []any{
		&Community{},
		&Submission{},
		&Comment{},
		&Violator{},
		&PolicyDocument{},
	}
}
