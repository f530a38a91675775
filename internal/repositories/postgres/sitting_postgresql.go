package postgres

import (
	"context"
	"fmt"

	"github.com/campus-hq/academics-service/internal/cache"
	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SittingPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewSittingPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.SittingRepository {
	return &SittingPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *SittingPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *SittingPostgreSQL) Create(ctx context.Context, tx *gorm.DB, sitting *models.Sitting) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Create(sitting).Error
}

func (s *SittingPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Sitting, error) {
	db := s.getDB(tx)
	var sitting models.Sitting
	if err := db.WithContext(ctx).First(&sitting, id).Error; err != nil {
		return nil, err
	}
	return &sitting, nil
}

func (s *SittingPostgreSQL) GetByIDWithQuiz(ctx context.Context, tx *gorm.DB, id uint) (*models.Sitting, error) {
	db := s.getDB(tx)
	var sitting models.Sitting
	if err := db.WithContext(ctx).Preload("Quiz").First(&sitting, id).Error; err != nil {
		return nil, err
	}
	return &sitting, nil
}

func (s *SittingPostgreSQL) Update(ctx context.Context, tx *gorm.DB, sitting *models.Sitting) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Save(sitting).Error
}

func (s *SittingPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Delete(&models.Sitting{}, id).Error
}

func (s *SittingPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SittingFilters) ([]*models.Sitting, int64, error) {
	db := s.getDB(tx)
	var sittings []*models.Sitting
	var total int64

	query := db.WithContext(ctx).Model(&models.Sitting{})
	query = s.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Quiz").Find(&sittings).Error; err != nil {
		return nil, 0, err
	}

	return sittings, total, nil
}

func (s *SittingPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.SittingFilters) ([]*models.Sitting, int64, error) {
	filters.StudentID = &studentID
	return s.List(ctx, tx, filters)
}

func (s *SittingPostgreSQL) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint, filters repositories.SittingFilters) ([]*models.Sitting, int64, error) {
	filters.QuizID = &quizID
	return s.List(ctx, tx, filters)
}

func (s *SittingPostgreSQL) GetActiveByStudent(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) (*models.Sitting, error) {
	db := s.getDB(tx)
	var sitting models.Sitting
	err := db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ? AND status IN ?",
			quizID, studentID, []models.SittingStatus{models.SittingInProgress, models.SittingAbandoned}).
		Order("created_at DESC").
		First(&sitting).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sitting, nil
}

func (s *SittingPostgreSQL) GetActiveBySession(ctx context.Context, tx *gorm.DB, quizID uint, sessionToken string) (*models.Sitting, error) {
	db := s.getDB(tx)
	var sitting models.Sitting
	err := db.WithContext(ctx).
		Where("quiz_id = ? AND session_token = ? AND status IN ?",
			quizID, sessionToken, []models.SittingStatus{models.SittingInProgress, models.SittingAbandoned}).
		Order("created_at DESC").
		First(&sitting).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sitting, nil
}

func (s *SittingPostgreSQL) CountCompletedByStudent(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) (int64, error) {
	db := s.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.Sitting{}).
		Where("quiz_id = ? AND student_id = ? AND status = ?", quizID, studentID, models.SittingCompleted).
		Count(&count).Error
	return count, err
}

func (s *SittingPostgreSQL) CountCompletedBySession(ctx context.Context, tx *gorm.DB, quizID uint, sessionToken string) (int64, error) {
	db := s.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.Sitting{}).
		Where("quiz_id = ? AND session_token = ? AND status = ?", quizID, sessionToken, models.SittingCompleted).
		Count(&count).Error
	return count, err
}

func (s *SittingPostgreSQL) CountByStudent(ctx context.Context, tx *gorm.DB, quizID uint, studentID string) (int64, error) {
	db := s.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.Sitting{}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Count(&count).Error
	return count, err
}

func (s *SittingPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, quizID uint) (*repositories.SittingStats, error) {
	db := s.getDB(tx)
	stats := &repositories.SittingStats{}

	cacheKey := fmt.Sprintf("quiz:%d:sittings", quizID)
	err := s.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		fresh := &repositories.SittingStats{
			StatusBreakdown: make(map[models.SittingStatus]int),
		}

		type statusCount struct {
			Status models.SittingStatus
			Count  int64
		}
		var counts []statusCount
		err := db.WithContext(ctx).Model(&models.Sitting{}).
			Select("status, COUNT(*) AS count").
			Where("quiz_id = ?", quizID).
			Group("status").
			Scan(&counts).Error
		if err != nil {
			return nil, err
		}

		for _, sc := range counts {
			fresh.StatusBreakdown[sc.Status] = int(sc.Count)
			fresh.TotalSittings += int(sc.Count)
		}

		completed := fresh.StatusBreakdown[models.SittingCompleted]
		if fresh.TotalSittings > 0 {
			fresh.CompletionRate = float64(completed) / float64(fresh.TotalSittings) * 100
		}

		if completed > 0 {
			type completedAgg struct {
				AvgPct float64
				Passed int64
			}
			var agg completedAgg
			err = db.WithContext(ctx).Model(&models.Sitting{}).
				Select("COALESCE(AVG(percent), 0) AS avg_pct, COUNT(*) FILTER (WHERE passed) AS passed").
				Where("quiz_id = ? AND status = ?", quizID, models.SittingCompleted).
				Scan(&agg).Error
			if err != nil {
				return nil, err
			}
			fresh.AveragePercent = agg.AvgPct
			fresh.PassRate = float64(agg.Passed) / float64(completed) * 100
		}

		return fresh, nil
	})

	return stats, err
}

func (s *SittingPostgreSQL) applyFilters(query *gorm.DB, filters repositories.SittingFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

func (p *ProgressPostgreSQL) Get(ctx context.Context, tx *gorm.DB, userID, category string) (*models.CategoryProgress, error) {
	db := p.getDB(tx)
	var progress models.CategoryProgress
	if err := db.WithContext(ctx).First(&progress, "user_id = ? AND category = ?", userID, category).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (p *ProgressPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.CategoryProgress, error) {
	db := p.getDB(tx)
	var records []*models.CategoryProgress
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("category ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (p *ProgressPostgreSQL) AddScore(ctx context.Context, tx *gorm.DB, userID, category string, score, possible float64) error {
	db := p.getDB(tx)
	progress := models.CategoryProgress{
		UserID:   userID,
		Category: category,
		Score:    score,
		Possible: possible,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "category"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"score":    gorm.Expr("category_progress.score + ?", score),
			"possible": gorm.Expr("category_progress.possible + ?", possible),
		}),
	}).Create(&progress).Error
}
