package api

import (
	"context"
	"fmt"

	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"gavel/adapters/mailer"
	internalS3 "gavel/adapters/s3"
	"gavel/engine"
	"gavel/models"
	"gavel/sweep"
)

// Server wires the settlement engine, its collaborators, and the two
// periodic sweeps behind the request surface.
type Server struct {
	engine  *engine.Engine
	runners []*sweep.Runner

	config ServerConfig
}

// NewServer builds the full production assembly: database, image store,
// notifier, engine, and the close/settle sweep runners.
func NewServer(config ServerConfig) (*Server, error) {
	const op = "NewServer"

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s",
		config.DB.User, config.DB.Password, config.DB.Host, config.DB.Port, config.DB.Database, config.DB.Schema)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: config.DB.Schema + ".",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] fail to connect to database, err=%w", op, err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Auction{},
		&models.Bid{},
		&models.PaymentProof{},
		&models.Commission{},
	); err != nil {
		return nil, fmt.Errorf("[%s] fail to migrate schema, err=%w", op, err)
	}

	s3Cfg, err := awsCfg.LoadDefaultConfig(
		context.Background(),
		awsCfg.WithBaseEndpoint(config.S3.Endpoint),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(config.S3.AccessKeyID, config.S3.SecretAccessKey, "")),
		awsCfg.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] fail to load AWS config, err=%w", op, err)
	}
	images, err := internalS3.NewStore(s3.NewFromConfig(s3Cfg), config.S3.Bucket, config.S3.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("[%s] fail to create image store, err=%w", op, err)
	}

	var notifier engine.Notifier = mailer.LogNotifier{}
	if config.SMTP.Host != "" {
		smtp, err := mailer.New(config.SMTP.Host, config.SMTP.Port, config.SMTP.Username, config.SMTP.Password, config.SMTP.From)
		if err != nil {
			return nil, fmt.Errorf("[%s] fail to create mailer, err=%w", op, err)
		}
		notifier = smtp
	}

	eng := engine.New(db, images, notifier, engine.SystemClock{}, engine.Config{
		CommissionRate: config.Settlement.CommissionRate,
	})
	server := NewWithEngine(eng)
	server.config = config
	server.runners = []*sweep.Runner{
		sweep.NewRunner("AuctionCloser", config.Settlement.ClosePeriod, eng.CloseEndedAuctions),
		sweep.NewRunner("ProofSettler", config.Settlement.SettlePeriod, eng.SettleApprovedProofs),
	}
	return server, nil
}

// NewWithEngine builds a Server around an existing engine, without
// sweepers. Used by tests and by NewServer.
func NewWithEngine(eng *engine.Engine) *Server {
	return &Server{engine: eng}
}

// Start launches the periodic sweeps.
func (s *Server) Start() {
	for _, runner := range s.runners {
		runner.Start()
	}
}

// Close stops the sweeps and waits for in-flight passes.
func (s *Server) Close() {
	for _, runner := range s.runners {
		runner.Close()
	}
}
