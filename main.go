package main

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"protein-atlas/config"
	"protein-atlas/models"
	"protein-atlas/services"
)

var proteinsAnalyzedCounter prometheus.Counter

func init() {
	proteinsAnalyzedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "proteins_analyzed_total",
			Help: "Total number of protein sequences analyzed and stored.",
		},
	)
	prometheus.MustRegister(proteinsAnalyzedCounter)
}

// proteinInput ist der Request-Body für Analyse und Bearbeitung.
type proteinInput struct {
	ProteinName string `json:"protein_name" form:"protein_name"`
	Sequence    string `json:"sequence" form:"sequence"`
}

// bindProteinInput liest den Body je nach Content-Type als JSON oder als
// Formulardaten. Fehlt beides, bleibt die Eingabe leer statt einen Fehler
// auszulösen; die fachliche Validierung übernimmt der Analyzer.
func bindProteinInput(c *gin.Context) proteinInput {
	var in proteinInput
	switch c.ContentType() {
	case gin.MIMEPOSTForm, gin.MIMEMultipartPOSTForm:
		_ = c.ShouldBind(&in)
	default:
		_ = c.ShouldBindJSON(&in)
	}
	return in
}

// respondValidationError übersetzt Analyzer-Fehler in 400er-Antworten.
// Liefert false, wenn der Fehler kein Validierungsfehler ist.
func respondValidationError(c *gin.Context, err error) bool {
	var invalid *services.InvalidSequenceError
	switch {
	case errors.Is(err, services.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Protein name and sequence are required."})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
	default:
		return false
	}
	return true
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to protein database", zap.Error(err))
	}
	logging.Info("Successfully connected to protein database.")

	// Idempotente Schema-Erstellung beim Start
	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(&models.Protein{}); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	router := buildRouter(db, logging)

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// buildRouter konfiguriert Middleware und alle Routen.
func buildRouter(db *gorm.DB, logging *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	// Panics enden als JSON-500, nie als leere Fehlerseite
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.Error("Unhandled panic in handler", zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))
	// Alle Origins erlaubt, inkl. Preflight für DELETE/POST
	router.Use(cors.Default())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	analyzer := services.NewSequenceAnalyzer(logging)
	setupAnalyzeRoutes(router, db, analyzer, logging)
	setupProteinRoutes(router, db, analyzer, logging)
	setupHealthRoutes(router)
	return router
}

// setupAnalyzeRoutes konfiguriert Analyse und Suche.
func setupAnalyzeRoutes(router *gin.Engine, db *gorm.DB, analyzer *services.SequenceAnalyzer, log *zap.Logger) {
	router.POST("/analyze", func(c *gin.Context) {
		in := bindProteinInput(c)

		analysis, err := analyzer.Analyze(in.ProteinName, in.Sequence)
		if err != nil {
			if !respondValidationError(c, err) {
				log.Error("Sequence analysis failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		record := analysis.Record()
		if err := db.Create(&record).Error; err != nil {
			log.Error("Failed to store protein record", zap.String("name", analysis.Name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		proteinsAnalyzedCounter.Inc()
		log.Info("Protein analyzed and stored",
			zap.Uint("id", record.ID),
			zap.String("name", record.Name),
			zap.Int("length", record.Length))

		c.JSON(http.StatusOK, gin.H{
			"message": "success",
			"data":    analysis.Summary(),
		})
	})

	router.GET("/search", func(c *gin.Context) {
		queryName := strings.TrimSpace(c.Query("protein_name"))
		querySequence := strings.ToUpper(strings.TrimSpace(c.Query("sequence")))

		query := db.Model(&models.Protein{})
		if queryName != "" {
			query = query.Where("name ILIKE ?", "%"+queryName+"%")
		}
		if querySequence != "" {
			query = query.Where("sequence LIKE ?", "%"+querySequence+"%")
		}
		// Ohne Filter: die letzten 20 Einträge
		if queryName == "" && querySequence == "" {
			query = query.Limit(20)
		}

		var proteins []models.Protein
		if err := query.Order("id desc").Find(&proteins).Error; err != nil {
			log.Error("Database query for proteins failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, proteins)
	})
}

// setupProteinRoutes konfiguriert Abruf, Löschung und Bearbeitung einzelner Datensätze.
func setupProteinRoutes(router *gin.Engine, db *gorm.DB, analyzer *services.SequenceAnalyzer, log *zap.Logger) {
	getProtein := func(c *gin.Context) {
		id := c.Param("id")
		var protein models.Protein
		if err := db.First(&protein, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Protein not found"})
				return
			}
			log.Error("Database error while fetching protein", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, protein)
	}

	// Kein Existenz-Check vor dem Löschen: ein unbekannter Datensatz meldet
	// ebenfalls Erfolg (Löschen ist idempotent).
	deleteProtein := func(c *gin.Context) {
		id := c.Param("id")
		if err := db.Delete(&models.Protein{}, id).Error; err != nil {
			log.Error("Failed to delete protein", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	}

	// Bearbeitung validiert wie die Analyse und berechnet alle abgeleiteten
	// Felder neu. Ein Update ohne Treffer meldet weiterhin Erfolg.
	editProtein := func(c *gin.Context) {
		id := c.Param("id")
		in := bindProteinInput(c)

		analysis, err := analyzer.Analyze(in.ProteinName, in.Sequence)
		if err != nil {
			if !respondValidationError(c, err) {
				log.Error("Sequence analysis failed on edit", zap.String("id", id), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		record := analysis.Record()
		updates := map[string]interface{}{
			"name":             record.Name,
			"sequence":         record.Sequence,
			"length":           record.Length,
			"molecular_weight": record.MolecularWeight,
			"unique_count":     record.UniqueCount,
			"frequencies":      record.Frequencies,
		}
		if err := db.Model(&models.Protein{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			log.Error("Failed to update protein", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	}

	router.GET("/protein/:id", getProtein)
	router.DELETE("/protein/:id", deleteProtein)
	router.POST("/protein/:id/edit", editProtein)

	// Kompatibilitäts-Aliase der ursprünglichen API
	router.DELETE("/delete/:id", deleteProtein)
	router.POST("/edit/:id", editProtein)
}

// setupHealthRoutes konfiguriert den Health-Check.
func setupHealthRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "protein-atlas",
		})
	})
}
