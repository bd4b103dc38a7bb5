package infrastructure

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/lookjihoon/AI-Interview-System-V2/domain"
)

func NewMySQLConnection(dsn string) *gorm.DB {
	if dsn == "" {
		log.Fatal("DB_DSN is not set in environment")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// Auto migrate schema
	err = db.AutoMigrate(
		&domain.User{},
		&domain.JobPosting{},
		&domain.InterviewSession{},
		&domain.Transcript{},
		&domain.QuestionBank{},
		&domain.EvaluationReport{},
	)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	seedJobs(db)

	log.Println("✅ Connected to MySQL and migrated schema")
	return db
}

func seedJobs(db *gorm.DB) {
	var count int64
	if err := db.Model(&domain.JobPosting{}).Count(&count).Error; err != nil {
		log.Fatalf("failed to count job postings: %v", err)
	}
	if count > 0 {
		return
	}

	backendReq := "Go 또는 Python 백엔드 개발 경험, MySQL 등 RDB 활용 능력, REST API 설계 경험, 메시지 큐(RabbitMQ) 사용 경험"
	backendCap := "대규모 트래픽 처리, 장애 대응, AI/LLM 연동 기능 개발"
	frontendReq := "React 기반 프론트엔드 개발 경험, TypeScript, 웹 성능 최적화 경험"

	jobs := []domain.JobPosting{
		{
			Title:              "백엔드 개발자",
			Description:        "AI 면접 플랫폼의 백엔드 서비스를 설계하고 운영합니다.",
			Requirements:       &backendReq,
			TargetCapabilities: &backendCap,
			MinExperience:      2,
			Status:             domain.JobActive,
		},
		{
			Title:         "프론트엔드 개발자",
			Description:   "지원자용 면접 화면과 관리자 대시보드를 개발합니다.",
			Requirements:  &frontendReq,
			MinExperience: 1,
			Status:        domain.JobActive,
		},
	}

	if err := db.Create(&jobs).Error; err != nil {
		log.Fatalf("failed to seed job postings: %v", err)
	}

	log.Println("✅ Seeded initial job postings")
}
