package wire

import (
	"Crewboard/internal/api"
	"Crewboard/internal/api/config"
	"Crewboard/internal/api/handler"
	"Crewboard/internal/job"
	"Crewboard/internal/pkg/cron"
	"Crewboard/internal/pkg/kafka"
	"Crewboard/internal/repository"
	"Crewboard/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router   *gin.Engine
	DB       *gorm.DB
	CronMgr  *cron.Manager
	Producer *kafka.Producer
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	convRepo := repository.NewConversationRepo(db)
	messageRepo := repository.NewMessageRepo(db)
	reactionRepo := repository.NewReactionRepo(db)
	aggRepo := repository.NewAggregateRepo(db)
	userRepo := repository.NewUserRepo(db)

	broadcaster := service.NewRedisBroadcaster()

	var producer *kafka.Producer
	if cfg.Push.Mode == "kafka" {
		p, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		producer = p
	}
	notifier := service.NewNotifier(cfg.Push, producer)
	tempMedia := service.NewRedisTempMediaStore()

	convService := service.NewConversationService(convRepo, messageRepo, userRepo, broadcaster)
	messageService := service.NewMessageService(convRepo, messageRepo, aggRepo, userRepo, broadcaster, notifier, tempMedia)
	reactionService := service.NewReactionService(convRepo, messageRepo, reactionRepo, aggRepo, broadcaster)

	expiryJob := job.NewConversationExpiryJob(convRepo)

	handlers := &api.HandlersGroup{
		ConversationHandler: handler.NewConversationHandler(convService),
		MessageHandler:      handler.NewMessageHandler(messageService, reactionService, convService),
		MediaHandler:        handler.NewMediaHandler(),
		AdminHandler:        handler.NewAdminHandler(expiryJob),
		WsHandler:           handler.NewWsHandler(convService),
	}

	router := api.SetupRouter(handlers)

	cronMgr := cron.NewCronManager(
		expiryJob,
		job.NewMediaCleanupJob(),
	)

	return &ApplicationContainer{
		Router:   router,
		DB:       db,
		CronMgr:  cronMgr,
		Producer: producer,
	}, nil
}
