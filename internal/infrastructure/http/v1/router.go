// Package v1 wires the HTTP API.
package v1

import (
	"github.com/gin-gonic/gin"

	"pharmapos/internal/domain/auth"
	"pharmapos/internal/domain/catalogs/medicine"
	"pharmapos/internal/domain/documents/dose"
	"pharmapos/internal/domain/documents/returns"
	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/domain/policy"
	"pharmapos/internal/domain/registers/stock"
	"pharmapos/internal/domain/reports"
	"pharmapos/internal/infrastructure/http/v1/handlers"
	"pharmapos/internal/infrastructure/http/v1/middleware"
	"pharmapos/internal/infrastructure/storage/postgres"
	"pharmapos/pkg/logger"
	"pharmapos/pkg/sequence"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Logger       *logger.Logger
	Pool         *postgres.Pool
	JWTService   *auth.JWTService
	AuthService  *auth.Service
	DiscountRule string
}

// NewRouter builds the Gin engine with all routes and middleware.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(
		middleware.Recovery(),
		middleware.Trace(),
		middleware.Logger(cfg.Logger),
		middleware.ErrorHandler(),
	)

	txManager := postgres.NewTxManager(cfg.Pool)

	auditRepo, err := postgres.NewAuditRepo(txManager)
	if err != nil {
		return nil, err
	}
	medicineRepo := postgres.NewMedicineRepo(txManager)
	stockRepo := postgres.NewStockRepo(txManager)
	saleRepo := postgres.NewSaleRepo(txManager)
	doseRepo := postgres.NewDoseRepo(txManager)

	discountPolicy, err := policy.NewDiscountPolicy(cfg.DiscountRule)
	if err != nil {
		return nil, err
	}

	stockService := stock.NewService(stockRepo)
	medicineService := medicine.NewService(medicineRepo, auditRepo)
	sequencer := sequence.New(txManager)
	saleService := sale.NewService(saleRepo, medicineRepo, stockService, sequencer, discountPolicy, txManager, auditRepo)
	doseService := dose.NewService(doseRepo, saleRepo, stockService, txManager, auditRepo)
	returnService := returns.NewService(saleRepo, stockService, txManager, auditRepo)
	reportService := reports.NewService(saleRepo)

	base := handlers.NewBaseHandler()
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
	medicineHandler := handlers.NewMedicineHandler(base, medicineService)
	saleHandler := handlers.NewSaleHandler(base, saleService, returnService, reportService)
	doseHandler := handlers.NewDoseHandler(base, doseService)
	auditHandler := handlers.NewAuditHandler(base, auditRepo)

	health := engine.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := engine.Group("/api/v1")
	api.POST("/admin/verify", authHandler.Verify)

	protected := api.Group("")
	protected.Use(middleware.Auth(cfg.JWTService))
	{
		medicines := protected.Group("/medicines")
		{
			medicines.GET("", medicineHandler.List)
			medicines.POST("", medicineHandler.Create)
			medicines.GET("/search", medicineHandler.Search)
			medicines.GET("/expiring", medicineHandler.Expiring)
			medicines.GET("/:id", medicineHandler.Get)
			medicines.PUT("/:id", medicineHandler.Update)
			medicines.DELETE("/:id", middleware.RequireAdmin(), medicineHandler.Delete)

			medicines.POST("/dose", doseHandler.RecordPending)
			medicines.POST("/dose/quick", doseHandler.DispenseQuick)
			medicines.GET("/dose/pending", doseHandler.ListPending)
			medicines.POST("/dose/resolve", doseHandler.Resolve)
		}

		sales := protected.Group("/sales")
		{
			sales.POST("", saleHandler.Create)
			sales.GET("/next-id", saleHandler.NextID)
			sales.GET("/filter", saleHandler.Filter)
			sales.GET("/:id", saleHandler.Get)
			sales.PUT("/:id", saleHandler.Update)
			sales.DELETE("/:id", saleHandler.Delete)
			sales.POST("/:id/return", saleHandler.Return)
		}

		protected.GET("/admin/audit/:entityType/:id", middleware.RequireAdmin(), auditHandler.EntityHistory)
	}

	return engine, nil
}
