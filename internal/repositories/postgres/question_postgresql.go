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

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Create(question).Error
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).First(&dbQuestion, id).Error; err != nil {
			return nil, err
		}
		return &dbQuestion, nil
	})

	return &question, err
}

func (q *QuestionPostgreSQL) GetByIDWithCategory(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).Preload("Category").First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return err
	}
	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.ID)
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Question{}, id).Error; err != nil {
		return err
	}
	cache.InvalidateQuestionCache(ctx, q.cacheManager, id)
	return nil
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	db := q.getDB(tx)
	return db.WithContext(ctx).CreateInBatches(questions, 100).Error
}

func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db := q.getDB(tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	var total int64

	query := db.WithContext(ctx).Model(&models.Question{})
	query = q.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Category").Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

func (q *QuestionPostgreSQL) GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	filters.CreatedBy = &creatorID
	return q.List(ctx, tx, filters)
}

func (q *QuestionPostgreSQL) GetByCategory(ctx context.Context, tx *gorm.DB, categoryID uint, filters repositories.QuestionFilters) ([]*models.Question, error) {
	db := q.getDB(tx)
	var questions []*models.Question

	query := db.WithContext(ctx).Where("category_id = ?", categoryID)
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.Question, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	err := db.WithContext(ctx).
		Joins("JOIN quiz_questions ON quiz_questions.question_id = questions.id").
		Where("quiz_questions.quiz_id = ?", quizID).
		Order("quiz_questions.\"order\" ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) IsUsedInQuizzes(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := q.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.QuizQuestion{}).
		Where("question_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (q *QuestionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	return query
}

type QuestionCategoryPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionCategoryPostgreSQL(db *gorm.DB) repositories.QuestionCategoryRepository {
	return &QuestionCategoryPostgreSQL{db: db}
}

func (q *QuestionCategoryPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuestionCategoryPostgreSQL) Create(ctx context.Context, tx *gorm.DB, category *models.QuestionCategory) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Create(category).Error
}

func (q *QuestionCategoryPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionCategory, error) {
	db := q.getDB(tx)
	var category models.QuestionCategory
	if err := db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (q *QuestionCategoryPostgreSQL) GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.QuestionCategory, error) {
	db := q.getDB(tx)
	var category models.QuestionCategory
	if err := db.WithContext(ctx).First(&category, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (q *QuestionCategoryPostgreSQL) Update(ctx context.Context, tx *gorm.DB, category *models.QuestionCategory) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Save(category).Error
}

func (q *QuestionCategoryPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Delete(&models.QuestionCategory{}, id).Error
}

func (q *QuestionCategoryPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.QuestionCategory, error) {
	db := q.getDB(tx)
	var categories []*models.QuestionCategory
	err := db.WithContext(ctx).Model(&models.QuestionCategory{}).
		Select("question_categories.*, COUNT(questions.id) AS question_count").
		Joins("LEFT JOIN questions ON questions.category_id = question_categories.id").
		Group("question_categories.id").
		Order("question_categories.name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (q *QuestionCategoryPostgreSQL) ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error) {
	db := q.getDB(tx)
	query := db.WithContext(ctx).Model(&models.QuestionCategory{}).Where("name = ?", name)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

type QuizQuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuizQuestionPostgreSQL(db *gorm.DB) repositories.QuizQuestionRepository {
	return &QuizQuestionPostgreSQL{db: db}
}

func (q *QuizQuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuizQuestionPostgreSQL) Add(ctx context.Context, tx *gorm.DB, quizQuestion *models.QuizQuestion) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Create(quizQuestion).Error
}

func (q *QuizQuestionPostgreSQL) AddBatch(ctx context.Context, tx *gorm.DB, quizQuestions []*models.QuizQuestion) error {
	if len(quizQuestions) == 0 {
		return nil
	}
	db := q.getDB(tx)
	return db.WithContext(ctx).CreateInBatches(quizQuestions, 100).Error
}

func (q *QuizQuestionPostgreSQL) Remove(ctx context.Context, tx *gorm.DB, quizID, questionID uint) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).
		Where("quiz_id = ? AND question_id = ?", quizID, questionID).
		Delete(&models.QuizQuestion{}).Error
}

func (q *QuizQuestionPostgreSQL) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.QuizQuestion, error) {
	db := q.getDB(tx)
	var quizQuestions []*models.QuizQuestion
	err := db.WithContext(ctx).
		Preload("Question").
		Where("quiz_id = ?", quizID).
		Find(&quizQuestions).Error
	if err != nil {
		return nil, err
	}
	return quizQuestions, nil
}

func (q *QuizQuestionPostgreSQL) GetByQuizOrdered(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.QuizQuestion, error) {
	db := q.getDB(tx)
	var quizQuestions []*models.QuizQuestion
	err := db.WithContext(ctx).
		Preload("Question").
		Where("quiz_id = ?", quizID).
		Order("\"order\" ASC").
		Find(&quizQuestions).Error
	if err != nil {
		return nil, err
	}
	return quizQuestions, nil
}

func (q *QuizQuestionPostgreSQL) UpdateOrder(ctx context.Context, tx *gorm.DB, quizID uint, questionIDs []uint) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Transaction(func(innerTx *gorm.DB) error {
		for i, questionID := range questionIDs {
			result := innerTx.Model(&models.QuizQuestion{}).
				Where("quiz_id = ? AND question_id = ?", quizID, questionID).
				Update("order", i+1)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("question %d is not part of quiz %d", questionID, quizID)
			}
		}
		return nil
	})
}

func (q *QuizQuestionPostgreSQL) UpdatePoints(ctx context.Context, tx *gorm.DB, quizID, questionID uint, points int) error {
	db := q.getDB(tx)
	result := db.WithContext(ctx).Model(&models.QuizQuestion{}).
		Where("quiz_id = ? AND question_id = ?", quizID, questionID).
		Update("points", points)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (q *QuizQuestionPostgreSQL) CountByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error) {
	db := q.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.QuizQuestion{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count, err
}

func (q *QuizQuestionPostgreSQL) TotalPoints(ctx context.Context, tx *gorm.DB, quizID uint) (int, error) {
	db := q.getDB(tx)
	var total int64
	err := db.WithContext(ctx).Model(&models.QuizQuestion{}).
		Select("COALESCE(SUM(COALESCE(quiz_questions.points, questions.points)), 0)").
		Joins("JOIN questions ON questions.id = quiz_questions.question_id").
		Where("quiz_questions.quiz_id = ?", quizID).
		Scan(&total).Error
	return int(total), err
}

func (q *QuizQuestionPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, quizID, questionID uint) (bool, error) {
	db := q.getDB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.QuizQuestion{}).
		Where("quiz_id = ? AND question_id = ?", quizID, questionID).
		Count(&count).Error
	return count > 0, err
}
