package messaging

import (
	"context"

	"github.com/providingshelter/ingest/internal/domain"
)

const (
	// SubjectImportCompleted is the subject of ImportCompletedEvent
	SubjectImportCompleted = "opendata.import.completed"
	// SubjectDatasetHarvested is the subject of DatasetHarvestedEvent
	SubjectDatasetHarvested = "opendata.harvest.dataset"
)

// Publisher defines the interface for publishing pipeline events to message queue
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishImportCompleted announces a committed cross-tab import
	PublishImportCompleted(ctx context.Context, event *domain.ImportCompletedEvent) error
	// PublishDatasetHarvested announces a harvested dataset
	PublishDatasetHarvested(ctx context.Context, event *domain.DatasetHarvestedEvent) error
	// Close closes the connection
	Close()
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishImportCompleted(context.Context, *domain.ImportCompletedEvent) error {
	return nil
}

func (NopPublisher) PublishDatasetHarvested(context.Context, *domain.DatasetHarvestedEvent) error {
	return nil
}

func (NopPublisher) Close() {}
