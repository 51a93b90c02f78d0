package app

import (
	"exam_manager/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		a.registerSubjectRoutes(api, c)
		a.registerQuestionRoutes(api, c)
		a.registerExamRoutes(api, c)
	}
}

func (a *App) registerSubjectRoutes(api *gin.RouterGroup, c *controllers) {
	subjects := api.Group("/subjects")
	{
		subjects.GET("", c.subject.List)
		subjects.POST("", c.subject.Create)
	}
}

func (a *App) registerQuestionRoutes(api *gin.RouterGroup, c *controllers) {
	questions := api.Group("/questions")
	{
		questions.GET("", c.question.List)
		questions.POST("", c.question.Create)
		questions.GET("/:id", c.question.Get)
		questions.PUT("/:id", c.question.Update)
		questions.DELETE("/:id", c.question.Delete)
	}
}

func (a *App) registerExamRoutes(api *gin.RouterGroup, c *controllers) {
	exams := api.Group("/exams")
	{
		exams.GET("", c.exam.List)
		exams.POST("/manual", c.exam.CreateManual)
		exams.POST("/auto", c.exam.CreateAuto)
		exams.GET("/:id", c.exam.Show)
		exams.PUT("/:id", c.exam.Update)
		exams.DELETE("/:id", c.exam.Delete)
	}
}
