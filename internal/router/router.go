package router

import (
	"time"

	"github.com/anikmoz/green-firm-house/internal/config"
	"github.com/anikmoz/green-firm-house/internal/handler"
	"github.com/anikmoz/green-firm-house/internal/infra"
	"github.com/anikmoz/green-firm-house/internal/middleware"
	"github.com/anikmoz/green-firm-house/internal/repository"
	"github.com/anikmoz/green-firm-house/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies are the infrastructure handles the router wires into the
// services. Redis is optional; without it records are not cached.
type Dependencies struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSAllowList, cfg.AppName))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitRPM, time.Minute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	var cache service.Cache
	if deps.Redis != nil {
		cache = infra.NewRedisCache(deps.Redis, "gfh:", cfg.CacheTTL)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	productTypeRepo := repository.NewProductTypeRepository(deps.DB)
	customerRepo := repository.NewCustomerRepository(deps.DB)
	customerBoughtRepo := repository.NewCustomerBoughtRepository(deps.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	productTypeSvc := service.NewProductTypeService(productTypeRepo, cache)
	customerSvc := service.NewCustomerService(customerRepo, cache)
	customerBoughtSvc := service.NewCustomerBoughtService(customerBoughtRepo, productTypeRepo, customerRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	paging := handler.Paging{DefaultSize: cfg.ListDefault, MaxSize: cfg.ListMaxSize}
	productTypesH := handler.NewEntityHandler(productTypeSvc, cfg.AppName, paging)
	customersH := handler.NewEntityHandler(customerSvc, cfg.AppName, paging)
	customerBoughtsH := handler.NewEntityHandler(customerBoughtSvc, cfg.AppName, paging)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(cfg.AppName, deps.DB, deps.Redis))

	api := r.Group("/api")
	{
		productTypesH.Register(api.Group("/product-types"))
		customersH.Register(api.Group("/customers"))
		customerBoughtsH.Register(api.Group("/customer-boughts"))
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
