package models

import (
	"time"

	"gorm.io/gorm"
)

// Gif represents an embeddable gif item
type Gif struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Content   string    `gorm:"type:text" json:"gif_instance"` // rich text
	OuterFile string    `gorm:"size:512" json:"outer_file"`
	Audio     string    `gorm:"size:512" json:"audio"`
	UserEmail string    `gorm:"size:255;not null;index" json:"user_email"`
	Role      Role      `gorm:"size:32;not null" json:"role"` // role at creation time
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Post represents a "satsang" post. Archived posts are soft deleted.
type Post struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"` // rich text
	Category    int            `gorm:"not null;default:0;index" json:"category"`
	UserEmail   string         `gorm:"size:255;not null;index" json:"user_email"`
	Role        Role           `gorm:"size:32;not null" json:"role"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Survey represents a poll with keyed choices
type Survey struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	Choices    []SurveyChoice `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"choices,omitempty"`
	TotalVotes int64          `gorm:"not null;default:0" json:"total_votes"`
	UserEmail  string         `gorm:"size:255;not null;index" json:"user_email"`
	Role       Role           `gorm:"size:32;not null" json:"role"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// SurveyChoice is one votable choice within a survey
type SurveyChoice struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	SurveyID uint   `gorm:"not null;uniqueIndex:idx_survey_choice_key" json:"survey_id"`
	Key      string `gorm:"column:choice_key;size:64;not null;uniqueIndex:idx_survey_choice_key" json:"key"`
	Label    string `gorm:"size:255;not null" json:"label"`
	Votes    int64  `gorm:"not null;default:0" json:"votes"`
}
