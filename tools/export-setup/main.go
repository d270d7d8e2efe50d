package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/timestreamwrite"
	"github.com/aws/aws-sdk-go-v2/service/timestreamwrite/types"
)

// Creates the Timestream database and table the daily-volume export writes
// into. Safe to run repeatedly.
func main() {
	region := getEnv("AWS_REGION", "us-east-1")
	databaseName := getEnv("EXPORT_DATABASE_NAME", "GiftInsights")
	tableName := getEnv("EXPORT_TABLE_NAME", "DailyVolume")

	log.Printf("Setting up Timestream database: %s, table: %s", databaseName, tableName)

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		log.Fatalf("Unable to load SDK config: %v", err)
	}

	writeSvc := timestreamwrite.NewFromConfig(cfg)

	if err := createDatabaseIfNotExists(ctx, writeSvc, databaseName); err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	if err := createTableIfNotExists(ctx, writeSvc, databaseName, tableName); err != nil {
		log.Fatalf("Failed to create table: %v", err)
	}

	log.Println("Timestream export setup completed successfully")
}

// createDatabaseIfNotExists creates the database if it doesn't already exist
func createDatabaseIfNotExists(ctx context.Context, client *timestreamwrite.Client, databaseName string) error {
	_, err := client.DescribeDatabase(ctx, &timestreamwrite.DescribeDatabaseInput{
		DatabaseName: aws.String(databaseName),
	})
	if err != nil {
		if isResourceNotFound(err) {
			log.Printf("Database %s does not exist, creating...", databaseName)
			_, err = client.CreateDatabase(ctx, &timestreamwrite.CreateDatabaseInput{
				DatabaseName: aws.String(databaseName),
			})
			if err != nil {
				return fmt.Errorf("failed to create database: %w", err)
			}
			log.Printf("Database %s created successfully", databaseName)
			return nil
		}
		return fmt.Errorf("error checking database existence: %w", err)
	}

	log.Printf("Database %s already exists", databaseName)
	return nil
}

// createTableIfNotExists creates the table if it doesn't already exist
func createTableIfNotExists(ctx context.Context, client *timestreamwrite.Client, databaseName, tableName string) error {
	_, err := client.DescribeTable(ctx, &timestreamwrite.DescribeTableInput{
		DatabaseName: aws.String(databaseName),
		TableName:    aws.String(tableName),
	})
	if err != nil {
		if isResourceNotFound(err) {
			log.Printf("Table %s does not exist in database %s, creating...", tableName, databaseName)
			_, err = client.CreateTable(ctx, &timestreamwrite.CreateTableInput{
				DatabaseName: aws.String(databaseName),
				TableName:    aws.String(tableName),
				RetentionProperties: &types.RetentionProperties{
					MagneticStoreRetentionPeriodInDays: aws.Int64(365),
					MemoryStoreRetentionPeriodInHours:  aws.Int64(24),
				},
			})
			if err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
			log.Printf("Table %s created successfully", tableName)
			return nil
		}
		return fmt.Errorf("error checking table existence: %w", err)
	}

	log.Printf("Table %s already exists in database %s", tableName, databaseName)
	return nil
}

// isResourceNotFound checks if an error is a ResourceNotFoundException
func isResourceNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	return errors.As(err, &notFound)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
