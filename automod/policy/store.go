package policy

import (
	"context"
	"errors"

	"github.com/safefeed-org/safefeed/models"

	"gorm.io/gorm"
)

// Store resolves the policy document for a community. An empty community name
// addresses the platform-wide default document.
type Store interface {
	GetPolicy(ctx context.Context, communityName string) (string, error)
}

type GormStore struct {
	DB *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) GetPolicy(ctx context.Context, communityName string) (string, error) {
	var doc models.PolicyDocument
	err := s.DB.WithContext(ctx).Where("community_name = ?", communityName).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return doc.Body, nil
}

func (s *GormStore) SetPolicy(ctx context.Context, communityName, body string) error {
	var doc models.PolicyDocument
	err := s.DB.WithContext(ctx).Where("community_name = ?", communityName).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.DB.WithContext(ctx).Create(&models.PolicyDocument{
			CommunityName: communityName,
			Body:          body,
		}).Error
	}
	if err != nil {
		return err
	}
	doc.Body = body
	return s.DB.WithContext(ctx).Save(&doc).Error
}

// MemStore is an in-memory Store, for tests and one-off CLI use.
type MemStore struct {
	Docs map[string]string
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{Docs: make(map[string]string)}
}

func (s *MemStore) GetPolicy(ctx context.Context, communityName string) (string, error) {
	return s.Docs[communityName], nil
}

func (s *MemStore) SetPolicy(ctx context.Context, communityName, body string) error {
	s.Docs[communityName] = body
	return nil
}
