package main

import (
	"database/sql"
	"errors"

	"github.com/Aashish23092/payslip-ledger/client"
	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/Aashish23092/payslip-ledger/events"
	"github.com/Aashish23092/payslip-ledger/repository"
	"github.com/Aashish23092/payslip-ledger/service"
)

// application holds the wired services shared by the commands.
type application struct {
	db        *sql.DB
	publisher events.Publisher
	paySlips  *service.PaySlipService
	ledger    *service.LedgerService
}

// newApplication opens the database, applies migrations and builds the
// service graph from cfg.
func newApplication() (*application, error) {
	db, err := repository.NewConnection(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db, cfg.Database.Driver); err != nil {
		db.Close()
		return nil, err
	}

	locale := dto.ParseLocale(cfg.Locale)

	var engines []service.OCREngine
	if cfg.OCR.PaddleURL != "" {
		engines = append(engines, client.NewPaddleClient(cfg.OCR.PaddleURL, log))
	}
	engines = append(engines, client.NewTesseractClient(cfg.OCR.TessdataPrefix, cfg.OCR.Language, log))

	extractor := service.NewDocumentTextExtractor(
		service.NewPDFProcessor(),
		engines,
		client.NewQRReader(),
		cfg.OCR.MinTextLength,
		log,
	)

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing ledger events to kafka")
	}

	ledger := service.NewLedgerService(repository.NewSalaryRepository(db), publisher, locale, log)
	paySlips := service.NewPaySlipService(
		repository.NewPaySlipRepository(db),
		extractor,
		ledger,
		service.WithLocale(locale),
		service.WithLogger(log),
		service.WithStorageDir(cfg.Storage.Dir),
	)

	return &application{
		db:        db,
		publisher: publisher,
		paySlips:  paySlips,
		ledger:    ledger,
	}, nil
}

func (a *application) Close() error {
	return errors.Join(a.publisher.Close(), a.db.Close())
}
