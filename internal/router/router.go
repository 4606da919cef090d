package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/handler"
	internalmiddleware "github.com/noah-isme/school-records-api/internal/middleware"
	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-records-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by New.
type Handlers struct {
	Students   *handler.StudentHandler
	Teachers   *handler.TeacherHandler
	Staff      *handler.StaffHandler
	Fees       *handler.FeeHandler
	Attendance *handler.AttendanceHandler
	Exams      *handler.ExamHandler
	Schedules  *handler.ScheduleHandler
	Settings   *handler.SettingsHandler
	Recycle    *handler.RecycleHandler
	Directory  *handler.DirectoryHandler
	Export     *handler.ExportHandler
	Metrics    *handler.MetricsHandler
}

// Options tunes the engine.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
	MetricsService *service.MetricsService
}

// New builds the gin engine with the middleware chain and every route.
func New(h Handlers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(opts.MetricsService))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	r.GET("/metrics/snapshot", h.Metrics.Snapshot)

	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)

	students := api.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/:id", h.Students.Get)
	students.PATCH("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)
	students.GET("/:id/fee-status", h.Students.FeeStatus)
	students.GET("/:id/attendance-summary", h.Students.AttendanceSummary)
	students.GET("/:id/id-card", h.Students.IDCard)

	teachers := api.Group("/teachers")
	teachers.GET("", h.Teachers.List)
	teachers.POST("", h.Teachers.Create)
	teachers.GET("/:id", h.Teachers.Get)
	teachers.PATCH("/:id", h.Teachers.Update)
	teachers.DELETE("/:id", h.Teachers.Delete)

	staff := api.Group("/staff")
	staff.GET("", h.Staff.List)
	staff.POST("", h.Staff.Create)
	staff.GET("/:id", h.Staff.Get)
	staff.PATCH("/:id", h.Staff.Update)
	staff.DELETE("/:id", h.Staff.Delete)

	structures := api.Group("/fee-structures")
	structures.GET("", h.Fees.ListStructures)
	structures.POST("", h.Fees.CreateStructure)
	structures.GET("/:id", h.Fees.GetStructure)
	structures.PATCH("/:id", h.Fees.UpdateStructure)
	structures.DELETE("/:id", h.Fees.DeleteStructure)

	payments := api.Group("/fee-payments")
	payments.GET("", h.Fees.ListPayments)
	payments.POST("", h.Fees.CreatePayment)
	payments.GET("/:id", h.Fees.GetPayment)
	payments.PATCH("/:id", h.Fees.UpdatePayment)
	payments.DELETE("/:id", h.Fees.DeletePayment)
	payments.GET("/:id/receipt", h.Fees.Receipt)

	api.GET("/fees/summary", h.Fees.Summary)

	attendance := api.Group("/attendance")
	attendance.GET("", h.Attendance.List)
	attendance.POST("", h.Attendance.Create)
	attendance.GET("/:id", h.Attendance.Get)
	attendance.PATCH("/:id", h.Attendance.Update)
	attendance.DELETE("/:id", h.Attendance.Delete)

	exams := api.Group("/exams")
	exams.GET("", h.Exams.List)
	exams.POST("", h.Exams.Create)
	exams.GET("/:id", h.Exams.Get)
	exams.PATCH("/:id", h.Exams.Update)
	exams.DELETE("/:id", h.Exams.Delete)

	results := api.Group("/exam-results")
	results.GET("", h.Exams.ListResults)
	results.POST("", h.Exams.CreateResult)
	results.GET("/:id", h.Exams.GetResult)
	results.PATCH("/:id", h.Exams.UpdateResult)
	results.DELETE("/:id", h.Exams.DeleteResult)

	schedules := api.Group("/schedules")
	schedules.GET("", h.Schedules.List)
	schedules.POST("", h.Schedules.Create)
	schedules.GET("/:id", h.Schedules.Get)
	schedules.PATCH("/:id", h.Schedules.Update)
	schedules.DELETE("/:id", h.Schedules.Delete)

	api.GET("/timetable/:class", h.Schedules.Timetable)

	api.GET("/settings", h.Settings.Get)
	api.PATCH("/settings", h.Settings.Update)

	api.GET("/recycle-bin", h.Recycle.List)
	api.POST("/recycle-bin/:index/restore", h.Recycle.Restore)

	api.GET("/directory/options", h.Directory.Options)
	api.GET("/export/:kind", h.Export.Export)

	return r
}
