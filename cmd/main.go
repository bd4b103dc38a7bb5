package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/lookjihoon/AI-Interview-System-V2/config"
	"github.com/lookjihoon/AI-Interview-System-V2/infrastructure"
	"github.com/lookjihoon/AI-Interview-System-V2/interfaces"
	"github.com/lookjihoon/AI-Interview-System-V2/services"
)

func main() {
	// Load .env
	_ = godotenv.Load()

	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect DB
	db := infrastructure.NewMySQLConnection(cfg.DBDSN)

	// Connect RabbitMQ
	rmq := infrastructure.NewRabbitMQ(cfg.RabbitMQURL)

	// LLM provider: OpenAI-compatible by default, Vertex AI on GCP.
	// Embeddings always come from the OpenAI-compatible client so they stay
	// in the same vector space as the question bank.
	openaiClient := infrastructure.NewOpenAIClient(cfg.LLM, logger)
	var generator services.TextGenerator = openaiClient
	if cfg.LLM.Provider == "vertex" {
		vertex, err := infrastructure.NewVertexClient(context.Background(),
			cfg.LLM.GCPProjectID, cfg.LLM.GCPLocation, cfg.LLM.Models, logger)
		if err != nil {
			log.Fatalf("failed to init vertex provider: %v", err)
		}
		defer vertex.Close()
		generator = vertex
	}

	// Interviewer brain: constructed once, shared read-only.
	svc := services.NewInterview(db, generator, openaiClient,
		services.NewBankRepository(db), cfg.Interview, logger)

	// Worker consumer → generates reports for completed sessions
	rmq.ConsumeReportJobs(func(job infrastructure.ReportJob) {
		logger.WithField("session_id", job.SessionID).Info("📥 Worker processing report job")

		report, err := svc.GenerateReport(context.Background(), job.SessionID)
		if err != nil {
			logger.WithError(err).WithField("session_id", job.SessionID).
				Error("❌ Report generation failed")
			return
		}

		logger.WithField("session_id", job.SessionID).WithField("total", report.TotalScore).
			Info("✅ Worker finished report job")
	})

	// Setup Gin router
	router := gin.Default()
	interfaces.NewHTTPHandler(router, db, rmq, svc, logger)

	logger.Infof("🚀 Server running on http://localhost:%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
