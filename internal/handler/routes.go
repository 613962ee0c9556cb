package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/middleware"
	"github.com/noah-isme/edu-center-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth         *AuthHandler
	Roots        *RootHandler
	Branches     *BranchHandler
	Employees    *EmployeeHandler
	Finance      *FinanceHandler
	Subjects     *SubjectHandler
	Teachers     *TeacherHandler
	Subscription *SubscriptionHandler
	Wallet       *WalletHandler
	StudentExams *StudentExamHandler
	Authority    *AuthorityHandler
	Content      *ContentHandler
	Export       *ExportHandler
}

// Guards are the middleware chained in front of authenticated routes. Auth
// must set the session; the others run after it in order.
type Guards struct {
	Auth        gin.HandlerFunc
	AntiForgery gin.HandlerFunc
	InFlight    gin.HandlerFunc
	Audit       middleware.AuditWriter
}

var (
	staffRoles = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleEmployee}
	adminRoles = []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin}
)

// RegisterRoutes mounts the API on group.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, g Guards) {
	auth := group.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	protected := group.Group("")
	for _, mw := range []gin.HandlerFunc{g.Auth, g.AntiForgery, g.InFlight} {
		if mw != nil {
			protected.Use(mw)
		}
	}

	session := protected.Group("/auth")
	session.POST("/logout", middleware.Audit(g.Audit, models.AuditActionLogout, "sessions"), h.Auth.Logout)
	session.GET("/antiforgery", h.Auth.AntiForgery)
	session.GET("/me", h.Auth.Me)

	roots := protected.Group("/roots", middleware.RequireRoles(models.RoleSuperAdmin))
	roots.GET("", h.Roots.List)
	roots.GET("/centers", h.Roots.ListKind(models.RootKindCenter))
	roots.GET("/teachers", h.Roots.ListKind(models.RootKindTeacher))
	roots.GET("/:code", h.Roots.Get)
	roots.POST("", middleware.Audit(g.Audit, models.AuditActionRootCreate, "roots"), h.Roots.Create)
	roots.PUT("/:code", middleware.Audit(g.Audit, models.AuditActionRootUpdate, "roots"), h.Roots.Update)
	roots.DELETE("/:code", middleware.Audit(g.Audit, models.AuditActionRootDelete, "roots"), h.Roots.Delete)

	staff := protected.Group("", middleware.RequireRoles(staffRoles...))
	crud(staff.Group("/branches"), h.Branches.List, h.Branches.Get, h.Branches.Create, h.Branches.Update, h.Branches.Delete)
	crud(staff.Group("/employees"), h.Employees.List, h.Employees.Get, h.Employees.Create, h.Employees.Update, h.Employees.Delete)
	crud(staff.Group("/expenses"), h.Finance.ListExpenses, h.Finance.GetExpense, h.Finance.CreateExpense, h.Finance.UpdateExpense, h.Finance.DeleteExpense)
	crud(staff.Group("/income"), h.Finance.ListIncome, h.Finance.GetIncome, h.Finance.CreateIncome, h.Finance.UpdateIncome, h.Finance.DeleteIncome)
	crud(staff.Group("/subjects"), h.Subjects.List, h.Subjects.Get, h.Subjects.Create, h.Subjects.Update, h.Subjects.Delete)
	crud(staff.Group("/wallet-exams"), h.Wallet.List, h.Wallet.Get, h.Wallet.Create, h.Wallet.Update, h.Wallet.Delete)

	teachers := staff.Group("/teacher-management")
	crud(teachers.Group("/teachers"), h.Teachers.List, h.Teachers.Get, h.Teachers.Create, h.Teachers.Update, h.Teachers.Delete)
	teachers.GET("/teaches", h.Teachers.ListTeaches)
	teachers.POST("/teaches", h.Teachers.CreateTeach)
	teachers.DELETE("/teaches/:code", h.Teachers.DeleteTeach)

	subs := staff.Group("/subscriptions")
	subs.GET("/years", h.Subscription.Years)
	subs.GET("/years/:yearCode/subjects", h.Subscription.Subjects)
	crud(subs, h.Subscription.List, h.Subscription.Get, h.Subscription.Create, h.Subscription.Update, h.Subscription.Delete)

	staff.GET("/content/colors", h.Content.Colors)
	staff.PUT("/content/colors", middleware.Audit(g.Audit, models.AuditActionColorsUpdate, "color_settings"), h.Content.SaveColors)
	staff.GET("/finance/export", h.Export.Finance)

	authority := protected.Group("/view-authority", middleware.RequireRoles(adminRoles...))
	authority.GET("/roots/:rootCode", h.Authority.Cascade)
	authority.GET("/roots/:rootCode/groups/:groupCode/available-pages", h.Authority.AvailablePages)
	authority.POST("/permissions", h.Authority.Grant)
	authority.DELETE("/permissions/:groupCode/:pageCode", h.Authority.Revoke)

	exams := protected.Group("/student-exams", middleware.RequireRoles(models.RoleStudent))
	exams.GET("", h.StudentExams.List)
	exams.POST("/:examCode/start", h.StudentExams.Start)
	exams.GET("/:examCode/session", h.StudentExams.Session)
	exams.POST("/:examCode/submit", middleware.Audit(g.Audit, models.AuditActionExamSubmit, "student_exams"), h.StudentExams.Submit)
}

func crud(group *gin.RouterGroup, list, get, create, update, remove gin.HandlerFunc) {
	group.GET("", list)
	group.GET("/:code", get)
	group.POST("", create)
	group.PUT("/:code", update)
	group.DELETE("/:code", remove)
}
