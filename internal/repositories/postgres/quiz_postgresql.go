package postgres

import (
	"context"
	"fmt"

	"github.com/campus-hq/academics-service/internal/cache"
	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuizPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuizPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Create(quiz).Error
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var quiz models.Quiz

	err := q.cacheManager.Quiz.CacheOrExecute(ctx, cacheKey, &quiz, cache.QuizCacheConfig.TTL, func() (interface{}, error) {
		var dbQuiz models.Quiz
		if err := db.WithContext(ctx).First(&dbQuiz, id).Error; err != nil {
			return nil, err
		}
		return &dbQuiz, nil
	})

	return &quiz, err
}

func (q *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	db := q.getDB(tx)
	var quiz models.Quiz
	if err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.\"order\" ASC")
		}).
		Preload("Questions.Question").
		Preload("Questions.Question.Category").
		First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Quiz, error) {
	db := q.getDB(tx)
	var quiz models.Quiz
	if err := db.WithContext(ctx).First(&quiz, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(quiz).Error; err != nil {
		return err
	}
	cache.InvalidateQuizCache(ctx, q.cacheManager, quiz.ID)
	return nil
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Quiz{}, id).Error; err != nil {
		return err
	}
	cache.InvalidateQuizCache(ctx, q.cacheManager, id)
	return nil
}

func (q *QuizPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	db := q.getDB(tx)
	var quizzes []*models.Quiz
	var total int64

	query := db.WithContext(ctx).Model(&models.Quiz{})
	query = q.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Course").Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

func (q *QuizPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	filters.CourseID = &courseID
	return q.List(ctx, tx, filters)
}

func (q *QuizPostgreSQL) GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	filters.CreatedBy = &creatorID
	return q.List(ctx, tx, filters)
}

func (q *QuizPostgreSQL) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	filters.Query = query
	return q.List(ctx, tx, filters)
}

func (q *QuizPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.QuizStatus) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Model(&models.Quiz{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return err
	}
	cache.InvalidateQuizCache(ctx, q.cacheManager, id)
	return nil
}

func (q *QuizPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.QuizStats, error) {
	db := q.getDB(tx)
	stats := &repositories.QuizStats{}

	cacheKey := fmt.Sprintf("quiz:%d:stats", id)
	err := q.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		fresh := &repositories.QuizStats{}

		type sittingAgg struct {
			Total     int64
			Completed int64
			AvgPct    float64
			Passed    int64
		}
		var agg sittingAgg
		err := db.WithContext(ctx).Model(&models.Sitting{}).
			Select(`COUNT(*) AS total,
				COUNT(*) FILTER (WHERE status = ?) AS completed,
				COALESCE(AVG(percent) FILTER (WHERE status = ?), 0) AS avg_pct,
				COUNT(*) FILTER (WHERE status = ? AND passed) AS passed`,
				models.SittingCompleted, models.SittingCompleted, models.SittingCompleted).
			Where("quiz_id = ?", id).
			Scan(&agg).Error
		if err != nil {
			return nil, err
		}

		fresh.TotalSittings = int(agg.Total)
		fresh.CompletedSittings = int(agg.Completed)
		fresh.AveragePercent = agg.AvgPct
		if agg.Completed > 0 {
			fresh.PassRate = float64(agg.Passed) / float64(agg.Completed) * 100
		}

		var questionCount int64
		if err := db.WithContext(ctx).Model(&models.QuizQuestion{}).
			Where("quiz_id = ?", id).Count(&questionCount).Error; err != nil {
			return nil, err
		}
		fresh.QuestionCount = int(questionCount)

		var maxScore int64
		err = db.WithContext(ctx).Model(&models.QuizQuestion{}).
			Select("COALESCE(SUM(COALESCE(quiz_questions.points, questions.points)), 0)").
			Joins("JOIN questions ON questions.id = quiz_questions.question_id").
			Where("quiz_questions.quiz_id = ?", id).
			Scan(&maxScore).Error
		if err != nil {
			return nil, err
		}
		fresh.MaxScore = int(maxScore)

		return fresh, nil
	})

	return stats, err
}

func (q *QuizPostgreSQL) ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID *uint) (bool, error) {
	db := q.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Quiz{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (q *QuizPostgreSQL) HasQuestions(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := q.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.QuizQuestion{}).
		Where("quiz_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (q *QuizPostgreSQL) applyFilters(query *gorm.DB, filters repositories.QuizFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Query != "" {
		query = query.Where("title ILIKE ?", "%"+filters.Query+"%")
	}
	return query
}
