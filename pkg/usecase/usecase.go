package usecase

import (
	"github.com/doctriage-lab/grammateus/pkg/domain/interfaces"
	"github.com/doctriage-lab/grammateus/pkg/domain/model/config"
	"github.com/doctriage-lab/grammateus/pkg/service/archive"
	"github.com/doctriage-lab/grammateus/pkg/service/classifier"
	"github.com/doctriage-lab/grammateus/pkg/service/extract"
	"github.com/doctriage-lab/grammateus/pkg/service/notify"
)

type UseCases struct {
	repo       interfaces.Repository
	classifier classifier.Service
	dispatcher *extract.Dispatcher
	book       *config.IntentBook
	archive    archive.Archive
	notifier   notify.Service

	Triage  *TriageUseCase
	History *HistoryUseCase
}

type Option func(*UseCases)

// WithClassifier sets the format/intent classifier used at intake
func WithClassifier(svc classifier.Service) Option {
	return func(uc *UseCases) {
		uc.classifier = svc
	}
}

// WithDispatcher sets the extraction handler dispatcher
func WithDispatcher(d *extract.Dispatcher) Option {
	return func(uc *UseCases) {
		uc.dispatcher = d
	}
}

// WithIntentBook sets the intent configuration consulted for extraction
// field specs
func WithIntentBook(book *config.IntentBook) Option {
	return func(uc *UseCases) {
		uc.book = book
	}
}

// WithArchive sets the raw-payload store for oversized documents
func WithArchive(a archive.Archive) Option {
	return func(uc *UseCases) {
		uc.archive = a
	}
}

// WithNotifier sets the notifier for high-urgency processed documents
func WithNotifier(n notify.Service) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Triage = NewTriageUseCase(repo, uc.classifier, uc.dispatcher, uc.book, uc.archive, uc.notifier)
	uc.History = NewHistoryUseCase(repo)

	return uc
}
