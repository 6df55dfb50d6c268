package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertIssue inserts the issue or, if a row with the same key exists,
// replaces every non-key field. There is no merge and no history: the table
// holds only the latest run's view of each key.
func UpsertIssue(db *gorm.DB, issue *Issue) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "category", "impact", "confidence",
			"screen", "source", "evidence", "recommendation", "created_at",
		}),
	}).Create(issue).Error
}

// ListIssues returns up to limit issues, newest first.
func ListIssues(db *gorm.DB, limit int) ([]Issue, error) {
	if limit <= 0 {
		limit = 50
	}
	var issues []Issue
	if err := db.Order("created_at DESC").Limit(limit).Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

// IssueByKey looks up a single issue. Returns gorm.ErrRecordNotFound when
// the key is unknown.
func IssueByKey(db *gorm.DB, key string) (*Issue, error) {
	var issue Issue
	if err := db.Where("key = ?", key).First(&issue).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}
