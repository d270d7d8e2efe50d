package timestream

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/timestreamwrite"
	"github.com/aws/aws-sdk-go-v2/service/timestreamwrite/types"

	"github.com/giftagram/gift-insights/internal/analytics"
	"github.com/giftagram/gift-insights/pkg/models"
)

// maxBatchSize is the Timestream WriteRecords limit.
const maxBatchSize = 100

// Config holds the configuration for the Timestream export target.
type Config struct {
	Region       string
	DatabaseName string
	TableName    string
}

// Writer pushes computed daily aggregates into AWS Timestream so they can
// feed long-term dashboards outside this tool.
type Writer struct {
	client       *timestreamwrite.Client
	databaseName string
	tableName    string
}

// NewWriter creates a Timestream-backed export writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &Writer{
		client:       timestreamwrite.NewFromConfig(awsCfg),
		databaseName: cfg.DatabaseName,
		tableName:    cfg.TableName,
	}, nil
}

// WriteDailyVolume writes one record per (day, invoice type) with the
// bucket's count as the measure. Zero-count series are written too so gaps
// stay visible downstream.
func (w *Writer) WriteDailyVolume(ctx context.Context, buckets []analytics.DailyBucket) error {
	var records []types.Record

	for _, bucket := range buckets {
		ts := strconv.FormatInt(bucket.Date.UnixMilli(), 10)
		series := []struct {
			invoiceType models.InvoiceType
			count       int
		}{
			{models.Created, bucket.Created},
			{models.Paid, bucket.Paid},
			{models.Refunded, bucket.Refunded},
		}

		for _, s := range series {
			records = append(records, types.Record{
				Dimensions: []types.Dimension{
					{Name: aws.String("invoiceType"), Value: aws.String(s.invoiceType.String())},
				},
				MeasureName:      aws.String("transactions"),
				MeasureValue:     aws.String(strconv.Itoa(s.count)),
				MeasureValueType: types.MeasureValueTypeBigint,
				Time:             aws.String(ts),
				TimeUnit:         types.TimeUnitMilliseconds,
			})
		}
	}

	for start := 0; start < len(records); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(records) {
			end = len(records)
		}

		_, err := w.client.WriteRecords(ctx, &timestreamwrite.WriteRecordsInput{
			DatabaseName: aws.String(w.databaseName),
			TableName:    aws.String(w.tableName),
			Records:      records[start:end],
		})
		if err != nil {
			return fmt.Errorf("failed to write records batch: %w", err)
		}
	}

	return nil
}
