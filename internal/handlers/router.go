package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/campus-hq/academics-service/internal/config"
	"github.com/campus-hq/academics-service/internal/models"
	"github.com/campus-hq/academics-service/internal/repositories"
	"github.com/campus-hq/academics-service/internal/services"
	"github.com/campus-hq/academics-service/internal/utils"
	"github.com/campus-hq/academics-service/internal/validator"
)

type HandlerManager struct {
	studentHandler  *StudentHandler
	lecturerHandler *LecturerHandler
	courseHandler   *CourseHandler
	scoreHandler    *ScoreHandler
	quizHandler     *QuizHandler
	sittingHandler  *SittingHandler
	reportHandler   *ReportHandler
	authMiddleware  *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		studentHandler:  NewStudentHandler(serviceManager.Student(), validator, logger),
		lecturerHandler: NewLecturerHandler(serviceManager.Lecturer(), validator, logger),
		courseHandler:   NewCourseHandler(serviceManager.Course(), validator, logger),
		scoreHandler:    NewScoreHandler(serviceManager.Score(), validator, logger),
		quizHandler:     NewQuizHandler(serviceManager.Quiz(), validator, logger),
		sittingHandler:  NewSittingHandler(serviceManager.Sitting(), validator, logger),
		reportHandler:   NewReportHandler(serviceManager.Report(), logger),
		authMiddleware:  authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	staffOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleLecturer, models.RoleAdmin)
	adminOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)

	// Sitting routes use optional auth: authenticated students own their
	// sittings, everyone else is tracked by session token.
	taking := router.Group("/api/v1")
	taking.Use(hm.authMiddleware.OptionalAuthMiddleware())
	{
		taking.POST("/sittings/start", hm.sittingHandler.StartSitting)
		taking.POST("/sittings/:id/answer", hm.sittingHandler.AnswerQuestion)
		taking.POST("/sittings/:id/complete", hm.sittingHandler.CompleteSitting)
		taking.POST("/sittings/:id/abandon", hm.sittingHandler.AbandonSitting)
		taking.POST("/quizzes/:id/resume", hm.sittingHandler.ResumeSitting)
		taking.GET("/quizzes/slug/:slug", hm.quizHandler.GetQuizBySlug)
	}

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Student records - Admins manage, owners and staff read
		students := v1.Group("/students")
		{
			students.POST("", adminOnly, hm.studentHandler.CreateStudent)
			students.PUT("/:id", adminOnly, hm.studentHandler.UpdateStudent)
			students.DELETE("/:id", adminOnly, hm.studentHandler.DeleteStudent)
			students.GET("", staffOnly, hm.studentHandler.ListStudents)

			students.GET("/me/progress", hm.sittingHandler.GetProgress)

			students.GET("/:id", hm.studentHandler.RequireSelfOrStaff(), hm.studentHandler.GetStudent)
			students.GET("/:id/results/:semester_id", hm.studentHandler.RequireSelfOrStaff(), hm.studentHandler.GetSemesterResult)
			students.GET("/:id/cgpa", hm.studentHandler.RequireSelfOrStaff(), hm.studentHandler.GetCGPA)
			students.GET("/:id/enrollments", hm.studentHandler.RequireSelfOrStaff(), hm.courseHandler.GetEnrollments)
			students.GET("/:id/sittings", hm.studentHandler.RequireSelfOrStaff(), hm.sittingHandler.GetStudentSittings)
		}

		// Lecturer records - Admins manage, staff read
		lecturers := v1.Group("/lecturers")
		{
			lecturers.POST("", adminOnly, hm.lecturerHandler.CreateLecturer)
			lecturers.PUT("/:id", adminOnly, hm.lecturerHandler.UpdateLecturer)
			lecturers.DELETE("/:id", adminOnly, hm.lecturerHandler.DeleteLecturer)
			lecturers.GET("", staffOnly, hm.lecturerHandler.ListLecturers)
			lecturers.GET("/:id", staffOnly, hm.lecturerHandler.GetLecturer)
			lecturers.GET("/:id/courses", staffOnly, hm.lecturerHandler.GetLecturerCourses)
		}

		// Semester routes
		semesters := v1.Group("/semesters")
		{
			semesters.POST("", adminOnly, hm.courseHandler.CreateSemester)
			semesters.PUT("/:id/current", adminOnly, hm.courseHandler.SetCurrentSemester)
			semesters.GET("", hm.courseHandler.ListSemesters)
			semesters.GET("/current", hm.courseHandler.GetCurrentSemester)
		}

		// Course catalog and enrollment
		courses := v1.Group("/courses")
		{
			courses.POST("", adminOnly, hm.courseHandler.CreateCourse)
			courses.PUT("/:id", adminOnly, hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", adminOnly, hm.courseHandler.DeleteCourse)

			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/slug/:slug", hm.courseHandler.GetCourseBySlug)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.GET("/:id/quizzes", hm.quizHandler.GetCourseQuizzes)

			// Enrollment - students act on their own record
			courses.POST("/:id/enroll", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.courseHandler.Enroll)
			courses.DELETE("/:id/enroll", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.courseHandler.Drop)

			courses.GET("/:id/roster", staffOnly, hm.courseHandler.GetCourseRoster)
			courses.GET("/:id/gradebook", staffOnly, hm.scoreHandler.GetGradebook)
		}

		// Lecturer allocations
		allocations := v1.Group("/allocations")
		allocations.Use(adminOnly)
		{
			allocations.POST("", hm.courseHandler.AllocateCourse)
			allocations.DELETE("/:lecturer_id", hm.courseHandler.DeallocateCourse)
		}

		// Score entry - staff only
		enrollments := v1.Group("/enrollments")
		enrollments.Use(staffOnly)
		{
			enrollments.PUT("/:id/score", hm.scoreHandler.SubmitScore)
			enrollments.GET("/:id/score", hm.scoreHandler.GetScore)
			enrollments.DELETE("/:id/score", hm.scoreHandler.DeleteScore)
		}
		v1.GET("/grade-policy", hm.scoreHandler.GetGradePolicy)

		// Quiz authoring - staff only for mutation, all users can view
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", staffOnly, hm.quizHandler.CreateQuiz)
			quizzes.PUT("/:id", staffOnly, hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", staffOnly, hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/publish", staffOnly, hm.quizHandler.PublishQuiz)
			quizzes.POST("/:id/archive", staffOnly, hm.quizHandler.ArchiveQuiz)

			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)

			quizzes.POST("/:id/questions", staffOnly, hm.quizHandler.AddQuizQuestion)
			quizzes.DELETE("/:id/questions/:question_id", staffOnly, hm.quizHandler.RemoveQuizQuestion)
			quizzes.PUT("/:id/questions/reorder", staffOnly, hm.quizHandler.ReorderQuizQuestions)

			quizzes.GET("/:id/stats", staffOnly, hm.quizHandler.GetQuizStats)
			quizzes.GET("/:id/sittings", staffOnly, hm.sittingHandler.GetQuizSittings)
			quizzes.GET("/:id/sittings/stats", staffOnly, hm.sittingHandler.GetSittingStats)
		}

		// Question bank - staff only
		questions := v1.Group("/questions")
		questions.Use(staffOnly)
		{
			questions.POST("", hm.quizHandler.CreateQuestion)
			questions.GET("", hm.quizHandler.ListQuestions)
			questions.GET("/:id", hm.quizHandler.GetQuestion)
			questions.PUT("/:id", hm.quizHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.quizHandler.DeleteQuestion)
		}

		categories := v1.Group("/question-categories")
		categories.Use(staffOnly)
		{
			categories.POST("", hm.quizHandler.CreateCategory)
			categories.GET("", hm.quizHandler.ListCategories)
		}

		// Sitting review - staff only
		sittings := v1.Group("/sittings")
		sittings.Use(staffOnly)
		{
			sittings.GET("/:id", hm.sittingHandler.GetSitting)
			sittings.GET("/:id/result", hm.sittingHandler.GetSittingResult)
		}

		// Report exports - staff only
		reports := v1.Group("/reports")
		reports.Use(staffOnly)
		{
			reports.GET("/courses/:id/gradebook", hm.reportHandler.CourseGradebookReport)
			reports.GET("/students/:id/results/:semester_id", hm.reportHandler.StudentResultReport)
			reports.GET("/quizzes/:id/results", hm.reportHandler.QuizResultReport)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "academics-service",
		})
	})
}
