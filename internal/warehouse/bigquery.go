// Package warehouse optionally mirrors normalized invoice rows into BigQuery
// so downstream reporting can query them. The pipeline does not depend on it;
// the worker wires it in when a project is configured.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/invoice-normalizer/internal/pipeline"
)

// InvoiceRowRecord is the BigQuery row schema for one normalized line item.
type InvoiceRowRecord struct {
	ConsumerID            string     `bigquery:"consumer_id"`
	ItemID                string     `bigquery:"item_id"`
	RowIndex              int        `bigquery:"row_index"`
	Description           string     `bigquery:"description"`
	CleanedDescription    string     `bigquery:"cleaned_description"`
	TranslatedDescription string     `bigquery:"translated_description"`
	Barcode               string     `bigquery:"barcode"`
	Quantity              float64    `bigquery:"quantity"`
	ResolvedQuantity      float64    `bigquery:"resolved_quantity"`
	ExtendedPrice         float64    `bigquery:"extended_price"`
	SinglePrice           float64    `bigquery:"single_price"`
	IngestDate            civil.Date `bigquery:"ingest_date"`
	InsertedTS            time.Time  `bigquery:"inserted_ts"`
}

// Sink streams normalized rows into one BigQuery table.
type Sink struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// NewSink creates a sink for projectID.dataset.table.
func NewSink(ctx context.Context, projectID, dataset, table string) (*Sink, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewSink: bigquery client: %w", err)
	}
	return &Sink{client: client, dataset: dataset, table: table}, nil
}

// InsertTable streams every row of the normalized table, tagged with the run
// identifiers.
func (s *Sink) InsertTable(ctx context.Context, consumerID, itemID string, t *pipeline.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}

	now := time.Now()
	records := make([]*InvoiceRowRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		records = append(records, &InvoiceRowRecord{
			ConsumerID:            consumerID,
			ItemID:                itemID,
			RowIndex:              i,
			Description:           row.Description,
			CleanedDescription:    row.CleanedDescription,
			TranslatedDescription: row.TranslatedDescription,
			Barcode:               row.Barcode,
			Quantity:              row.Quantity,
			ResolvedQuantity:      row.ResolvedQuantity,
			ExtendedPrice:         row.ExtendedPrice,
			SinglePrice:           row.SinglePrice,
			IngestDate:            civil.DateOf(now),
			InsertedTS:            now,
		})
	}

	inserter := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := inserter.Put(ctx, records); err != nil {
		return fmt.Errorf("InsertTable: inserting rows: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Sink) Close() error {
	return s.client.Close()
}
