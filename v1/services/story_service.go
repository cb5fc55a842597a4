package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apierrors "github.com/enrollhub/enrollment-backend/pkg/errors"
	"github.com/enrollhub/enrollment-backend/v1/models"
)

// StoryService manages the flat success-story collection
type StoryService struct {
	db *gorm.DB
}

// NewStoryService creates a new story service
func NewStoryService(db *gorm.DB) *StoryService {
	return &StoryService{db: db}
}

// CreateStory appends a new success story
func (s *StoryService) CreateStory(ctx context.Context, req *models.SuccessStoryRequest) (*models.SuccessStory, error) {
	if req.Title == "" || req.Content == "" {
		return nil, apierrors.InvalidInput("title and content are required")
	}

	story := models.SuccessStory{
		StoryID: "story_" + uuid.New().String(),
		Title:   req.Title,
		Content: req.Content,
		Author:  req.Author,
	}
	if err := s.db.WithContext(ctx).Create(&story).Error; err != nil {
		return nil, fmt.Errorf("failed to create success story: %w", err)
	}
	return &story, nil
}

// UpdateStory edits an existing success story by ID
func (s *StoryService) UpdateStory(ctx context.Context, storyID string, req *models.SuccessStoryRequest) (*models.SuccessStory, error) {
	if req.Title == "" || req.Content == "" {
		return nil, apierrors.InvalidInput("title and content are required")
	}

	var story models.SuccessStory
	err := s.db.WithContext(ctx).First(&story, "story_id = ?", storyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("success story")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load success story: %w", err)
	}

	story.Title = req.Title
	story.Content = req.Content
	story.Author = req.Author
	if err := s.db.WithContext(ctx).Save(&story).Error; err != nil {
		return nil, fmt.Errorf("failed to update success story: %w", err)
	}
	return &story, nil
}

// GetStories lists all success stories, oldest first
func (s *StoryService) GetStories(ctx context.Context) ([]models.SuccessStory, error) {
	var stories []models.SuccessStory
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&stories).Error; err != nil {
		return nil, fmt.Errorf("failed to load success stories: %w", err)
	}
	return stories, nil
}
