package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/orgpost/orgpost/pkg/asyncx"
	"github.com/orgpost/orgpost/pkg/attachstore"
	"github.com/orgpost/orgpost/pkg/config"
	"github.com/orgpost/orgpost/pkg/fsx"
	"github.com/orgpost/orgpost/pkg/fsx/fsxlocal"
	"github.com/orgpost/orgpost/pkg/fsx/fsxs3"
	"github.com/orgpost/orgpost/pkg/jobx"
	"github.com/orgpost/orgpost/pkg/jobx/jobxredis"
	"github.com/orgpost/orgpost/pkg/logx"
	"github.com/orgpost/orgpost/pkg/mailbox/mailboxapi"
	"github.com/orgpost/orgpost/pkg/mailbox/mailboximap"
	"github.com/orgpost/orgpost/pkg/mailbox/mailboxsrv"
	"github.com/orgpost/orgpost/pkg/newsletter/newsletterapi"
	"github.com/orgpost/orgpost/pkg/newsletter/newsletterinfra"
	"github.com/orgpost/orgpost/pkg/newsletter/newslettersrv"
	"github.com/orgpost/orgpost/pkg/notifx"
	"github.com/orgpost/orgpost/pkg/notifx/notifxconsole"
	"github.com/orgpost/orgpost/pkg/notifx/notifxses"
)

// Container holds every wired dependency of the service.
type Container struct {
	Config *config.Config
	DB     *sqlx.DB
	Redis  *redis.Client

	FileSystem  fsx.FileSystem
	Attachments *attachstore.Store
	Jobs        *jobx.Client

	MailboxHandlers    *mailboxapi.MailboxHandlers
	NewsletterHandlers *newsletterapi.NewsletterHandlers

	jobsCancel context.CancelFunc
}

// NewContainer wires the whole dependency graph from configuration. Any
// failure here is fatal; the process cannot serve without its backends.
func NewContainer() *Container {
	cfg := config.Load()

	db := connectDatabase(cfg.Database)
	fileSystem := buildFileSystem(cfg.Storage)
	attachments := attachstore.New(fileSystem)

	mailStore := mailboximap.NewStore(cfg.Mailbox)
	mailboxService := mailboxsrv.NewMailboxService(mailStore, attachments, cfg.Mailbox)

	mailer := notifx.NewClient(buildEmailProvider(cfg.Notifx))
	records := newsletterinfra.NewPostgresRecordRepository(db)
	newsletterService, err := newslettersrv.NewNewsletterService(mailer, records, cfg.Notifx, cfg.Dispatch)
	if err != nil {
		logx.Fatalf("Failed to build newsletter service: %v", err)
	}

	var rdb *redis.Client
	var jobs *jobx.Client
	if cfg.Jobx.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		jobs = jobx.NewClient(jobxredis.NewRedisQueue(rdb),
			jobx.WithQueues(withQueue(cfg.Jobx.Queues, newslettersrv.JobQueue)...),
			jobx.WithConcurrency(cfg.Jobx.Concurrency),
			jobx.WithPollInterval(cfg.Jobx.PollInterval),
			jobx.WithShutdownTimeout(cfg.Jobx.ShutdownTimeout),
			jobx.WithDequeueTimeout(cfg.Jobx.DequeueTimeout),
			jobx.WithDefaultRetryDelay(cfg.Jobx.DefaultRetryDelay),
		)
		jobs.Register(newslettersrv.JobTypeDispatch, newsletterService.DispatchJobHandler())
	} else {
		logx.Info("Background job processing disabled")
	}

	return &Container{
		Config:             cfg,
		DB:                 db,
		Redis:              rdb,
		FileSystem:         fileSystem,
		Attachments:        attachments,
		Jobs:               jobs,
		MailboxHandlers:    mailboxapi.NewMailboxHandlers(mailboxService, attachments, cfg.Server.RequestTimeout),
		NewsletterHandlers: newsletterapi.NewNewsletterHandlers(newsletterService, jobs, cfg.Server.RequestTimeout),
	}
}

// StartBackgroundServices launches the job workers. No-op when the queue
// is disabled.
func (c *Container) StartBackgroundServices() {
	if c.Jobs == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.jobsCancel = cancel

	asyncx.Do(func() {
		if err := c.Jobs.Start(ctx); err != nil {
			logx.WithError(err).Error("Job workers stopped unexpectedly")
		}
	})
	logx.Info("✓ Job workers started")
}

// Cleanup releases every held resource in reverse wiring order.
func (c *Container) Cleanup() {
	if c.jobsCancel != nil {
		c.jobsCancel()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.WithError(err).Warn("Failed to close Redis connection")
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.WithError(err).Warn("Failed to close database connection")
		}
	}
	logx.Info("Container cleaned up")
}

func connectDatabase(cfg config.DatabaseConfig) *sqlx.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logx.Infof("✓ Connected to database %s@%s:%d", cfg.Name, cfg.Host, cfg.Port)
	return db
}

func buildFileSystem(cfg config.StorageConfig) fsx.FileSystem {
	switch cfg.Mode {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logx.Fatalf("Failed to load AWS config: %v", err)
		}
		logx.Infof("✓ Attachment storage: s3://%s", cfg.AWSBucket)
		return fsxs3.NewS3FileSystem(s3.NewFromConfig(awsCfg), cfg.AWSBucket, "attachments")

	default:
		local, err := fsxlocal.NewLocalFileSystem(cfg.LocalDir)
		if err != nil {
			logx.Fatalf("Failed to create attachment directory: %v", err)
		}
		logx.Infof("✓ Attachment storage: %s", local.GetBasePath())
		return local
	}
}

func buildEmailProvider(cfg config.NotifxConfig) notifx.EmailSender {
	switch cfg.Provider {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logx.Fatalf("Failed to load AWS config for SES: %v", err)
		}
		logx.Info("✓ Email provider: SES")
		return notifxses.NewSESProvider(ses.NewFromConfig(awsCfg), cfg.FromAddress)

	default:
		logx.Info("✓ Email provider: console (emails are logged, not sent)")
		return notifxconsole.NewConsoleProvider()
	}
}

func withQueue(queues []string, queue string) []string {
	for _, q := range queues {
		if q == queue {
			return queues
		}
	}
	return append(queues, queue)
}
