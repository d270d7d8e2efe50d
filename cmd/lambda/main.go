package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/giftagram/gift-insights/internal/analytics"
	"github.com/giftagram/gift-insights/internal/session"
	"github.com/giftagram/gift-insights/pkg/models"
	"github.com/giftagram/gift-insights/pkg/objectstore/s3"
)

// AnalysisRequest configures one reload-and-analyze pass.
type AnalysisRequest struct {
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
	Region    string `json:"region"`
	Cutoff    string `json:"cutoff,omitempty"`    // YYYY-MM-DD
	StartDate string `json:"startDate,omitempty"` // YYYY-MM-DD, defaults to trailing week
	EndDate   string `json:"endDate,omitempty"`
}

// AnalysisResponse carries every report table the analyzers produce.
type AnalysisResponse struct {
	Success      bool                           `json:"success"`
	ErrorMessage string                         `json:"errorMessage,omitempty"`
	Stats        session.Stats                  `json:"stats"`
	StartDate    string                         `json:"startDate,omitempty"`
	EndDate      string                         `json:"endDate,omitempty"`
	Daily        []analytics.DailyBucket        `json:"daily,omitempty"`
	Undated      analytics.TypeCounts           `json:"undated"`
	Hourly       []analytics.HourlyBucket       `json:"hourly,omitempty"`
	Tiers        []analytics.TierBucket         `json:"tiers,omitempty"`
	Engagement   analytics.EngagementReport     `json:"engagement"`
	DailyEngage  []analytics.DailyEngagementRow `json:"dailyEngagement,omitempty"`
	Averages     analytics.UserAverages         `json:"averages"`
	Retention    analytics.RetentionReport      `json:"retention"`
	Cohorts      analytics.CohortReport         `json:"cohorts"`
}

func init() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
}

func handleRequest(ctx context.Context, request AnalysisRequest) (AnalysisResponse, error) {
	startTime := time.Now()
	log.Printf("Received analysis request: %+v", request)

	var response AnalysisResponse

	region := request.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}

	store, err := s3.NewS3Store(s3.Config{Region: region})
	if err != nil {
		response.ErrorMessage = fmt.Sprintf("Failed to create S3 store: %v", err)
		log.Println(response.ErrorMessage)
		return response, nil
	}

	cutoff, err := parseDate(request.Cutoff)
	if err != nil {
		response.ErrorMessage = fmt.Sprintf("Invalid cutoff date: %v", err)
		return response, nil
	}

	sess := session.New(store, session.Config{
		Bucket: request.Bucket,
		Prefix: request.Prefix,
		Cutoff: cutoff,
	})

	if err := sess.Reload(ctx); err != nil {
		response.ErrorMessage = fmt.Sprintf("Reload failed: %v", err)
		log.Println(response.ErrorMessage)
		return response, nil
	}
	response.Stats = sess.Stats()

	start, err := parseDate(request.StartDate)
	if err != nil {
		response.ErrorMessage = fmt.Sprintf("Invalid start date: %v", err)
		return response, nil
	}
	end, err := parseDate(request.EndDate)
	if err != nil {
		response.ErrorMessage = fmt.Sprintf("Invalid end date: %v", err)
		return response, nil
	}
	if start.IsZero() || end.IsZero() {
		defStart, defEnd, ok := sess.DefaultDateRange()
		if !ok {
			response.ErrorMessage = "dataset has no dated records and no explicit range was given"
			return response, nil
		}
		if start.IsZero() {
			start = defStart
		}
		if end.IsZero() {
			end = defEnd
		}
	}
	sess.SetDateRange(start, end)
	response.StartDate = start.Format(models.DateLayout)
	response.EndDate = end.Format(models.DateLayout)

	filtered := sess.Filtered()
	paid := analytics.FilterByType(filtered, models.Paid)

	daily, undated := analytics.DailyVolume(filtered, start, end)
	response.Daily = daily
	response.Undated = undated

	hourly := analytics.HourlyVolume(filtered)
	response.Hourly = hourly[:]

	tiers := analytics.TierBreakdown(filtered)
	response.Tiers = tiers[:]

	response.Engagement = analytics.Engagement(paid)
	response.DailyEngage = analytics.DailyEngagement(paid, start, end)
	response.Averages = analytics.Averages(filtered, paid)
	response.Retention = analytics.DayNRetention(paid)
	response.Cohorts = analytics.CohortAnalysis(paid)

	response.Success = true
	log.Printf("Analysis completed in %v", time.Since(startTime))
	return response, nil
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(models.DateLayout, value, time.UTC)
}

func main() {
	// Run as Lambda function if in AWS environment
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(handleRequest)
		return
	}

	// Run locally for testing
	log.Println("Running in local mode")

	request := AnalysisRequest{
		Bucket: "technicalgiftagram",
		Prefix: "processed-logs/funds-log/5min/",
		Region: "us-east-1",
	}

	response, err := handleRequest(context.Background(), request)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	jsonResponse, _ := json.MarshalIndent(response, "", "  ")
	fmt.Println(string(jsonResponse))
}
