package models

// SuccessStory is a flat testimonial record, separate from the member store
type SuccessStory struct {
	StoryID string `gorm:"primarykey;column:story_id" json:"storyId"`
	Title   string `gorm:"column:title;not null" json:"title"`
	Content string `gorm:"column:content;not null" json:"content"`
	Author  string `gorm:"column:author" json:"author,omitempty"`
	BaseModel
}

// TableName sets the table name for GORM
func (SuccessStory) TableName() string {
	return "success_stories"
}
