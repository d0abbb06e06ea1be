package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/afhamha/afhamha/internal/app/controllers"
	"github.com/afhamha/afhamha/internal/middleware"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Auth        *controllers.AuthController
	User        *controllers.UserController
	Explanation *controllers.ExplanationController
	Curriculum  *controllers.CurriculumController
	Admin       *controllers.AdminController
	Health      *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/ping", c.Health.Ping)

	v1 := router.Group("/api/v1")
	v1.GET("/health", c.Health.Health)

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
	}

	curriculum := v1.Group("/curriculum")
	{
		curriculum.GET("/years", c.Curriculum.GetYears)
		curriculum.GET("/years/:year/subjects", c.Curriculum.GetSubjects)
		curriculum.GET("/years/:year/references", c.Curriculum.GetReferences)
	}
	v1.GET("/lessons", c.Curriculum.GetLessons)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		users := authenticated.Group("/users")
		{
			users.GET("/me", c.User.GetProfile)
			users.PUT("/me", c.User.UpdateProfile)
		}

		explanations := authenticated.Group("/explanations")
		{
			explanations.POST("", c.Explanation.Explain)
			explanations.GET("", c.Explanation.List)
			explanations.GET("/:id", c.Explanation.Get)
			explanations.DELETE("/:id", c.Explanation.Delete)
		}

		admin := authenticated.Group("/admin")
		admin.Use(authMiddleware.AdminRequired())
		{
			admin.GET("/stats", c.Admin.GetStats)
			admin.GET("/users", c.Admin.ListUsers)
			admin.GET("/users/:id", c.Admin.GetUser)
			admin.POST("/users/:id/credits", c.Admin.AddCredits)
			admin.PUT("/users/:id/admin", c.Admin.SetAdmin)
			admin.DELETE("/users/:id", c.Admin.DeleteUser)
		}
	}

	router.NoRoute(middleware.NotFound())
}
