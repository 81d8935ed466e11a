package model

import (
	"time"

	"gorm.io/gorm"
)

// Questionnaire is the reusable question container an Activity runs against.
type Questionnaire struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description,omitempty"`
	Sections    []Section      `json:"sections,omitempty" gorm:"foreignKey:QuestionnaireID"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type Section struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	QuestionnaireID uint           `json:"questionnaire_id" gorm:"not null;index"`
	Title           string         `json:"title" gorm:"not null"`
	Order           int            `json:"order" gorm:"not null;column:section_order"`
	Questions       []Question     `json:"questions,omitempty" gorm:"foreignKey:SectionID"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
