package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/giftagram/gift-insights/internal/analytics"
	"github.com/giftagram/gift-insights/internal/session"
	"github.com/giftagram/gift-insights/pkg/export/timestream"
	"github.com/giftagram/gift-insights/pkg/models"
	"github.com/giftagram/gift-insights/pkg/objectstore/s3"
)

// Settings is the user-selected state the dashboard persists between runs:
// the date range and the transaction-type filters, nothing else.
type Settings struct {
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	ShowCreated  bool   `json:"showCreated"`
	ShowPaid     bool   `json:"showPaid"`
	ShowRefunded bool   `json:"showRefunded"`
}

// Command line flags
var (
	bucket       = flag.String("bucket", "technicalgiftagram", "S3 bucket holding the funds-log files")
	prefix       = flag.String("prefix", "processed-logs/funds-log/5min/", "Key prefix of the log files")
	region       = flag.String("region", "us-east-1", "AWS region")
	endpoint     = flag.String("endpoint", "", "Custom S3 endpoint (e.g., for local MinIO)")
	cutoff       = flag.String("cutoff", "", "Skip files whose key date is before this date (YYYY-MM-DD)")
	startDate    = flag.String("start-date", "", "Start of the analysis range (YYYY-MM-DD)")
	endDate      = flag.String("end-date", "", "End of the analysis range (YYYY-MM-DD)")
	showCreated  = flag.Bool("show-created", true, "Include created invoices in volume views")
	showPaid     = flag.Bool("show-paid", true, "Include paid transactions in volume views")
	showRefunded = flag.Bool("show-refunded", true, "Include refunds in volume views")
	analysisType = flag.String("analysis-type", "all", "Type subset for tier/engagement analysis: all, created, paid, refunded")
	concurrency  = flag.Int("concurrency", 8, "Parallel file fetches")
	format       = flag.String("format", "text", "Output format: text, chart, all")
	outputPath   = flag.String("output", "charts", "Directory to store chart outputs")
	settingsPath = flag.String("settings", "dashboard_settings.json", "File persisting the selected date range and filters")
	exportTS     = flag.String("export-timestream", "", "Export daily volume to Timestream, as database:table")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	settings := loadSettings(*settingsPath)
	applySettingsDefaults(&settings)

	store, err := s3.NewS3Store(s3.Config{
		Region:          *region,
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Endpoint:        *endpoint,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 store: %v", err)
	}

	sess := session.New(store, session.Config{
		Bucket:      *bucket,
		Prefix:      *prefix,
		Cutoff:      parseDateFlag(*cutoff, "cutoff"),
		Concurrency: *concurrency,
	})

	ctx := context.Background()
	if err := sess.Reload(ctx); err != nil {
		log.Fatalf("Reload failed: %v", err)
	}

	stats := sess.Stats()
	fmt.Printf("Loaded %d records from %d files (%d skipped)\n", stats.Records, stats.Files, stats.Skipped)

	start, end := resolveDateRange(sess, settings)
	sess.SetDateRange(start, end)
	sess.SetTypeFilters(*showCreated, *showPaid, *showRefunded)
	fmt.Printf("Analysis range: %s .. %s\n", start.Format(models.DateLayout), end.Format(models.DateLayout))

	filtered := sess.Filtered()
	paid := analytics.FilterByType(filtered, models.Paid)

	if *format == "text" || *format == "all" {
		renderReports(sess, filtered, paid, start, end)
	}
	if *format == "chart" || *format == "all" {
		generateCharts(filtered, paid, start, end)
	}

	if *exportTS != "" {
		exportDailyVolume(ctx, filtered, start, end, *exportTS)
	}

	saveSettings(*settingsPath, Settings{
		StartDate:    start.Format(models.DateLayout),
		EndDate:      end.Format(models.DateLayout),
		ShowCreated:  *showCreated,
		ShowPaid:     *showPaid,
		ShowRefunded: *showRefunded,
	})
}

// loadSettings reads the persisted filter settings; a missing or unreadable
// file just means defaults.
func loadSettings(path string) Settings {
	settings := Settings{ShowCreated: true, ShowPaid: true, ShowRefunded: true}
	data, err := os.ReadFile(path)
	if err != nil {
		return settings
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		log.Printf("Ignoring unreadable settings file %s: %v", path, err)
	}
	return settings
}

func saveSettings(path string, settings Settings) {
	data, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		log.Printf("Warning: failed to encode settings: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Warning: failed to save settings to %s: %v", path, err)
	}
}

// applySettingsDefaults fills date flags from the settings file when the
// user did not pass them explicitly.
func applySettingsDefaults(settings *Settings) {
	if *startDate == "" && settings.StartDate != "" {
		*startDate = settings.StartDate
	}
	if *endDate == "" && settings.EndDate != "" {
		*endDate = settings.EndDate
	}
}

func parseDateFlag(value, name string) time.Time {
	if value == "" {
		return time.Time{}
	}
	d, err := time.ParseInLocation(models.DateLayout, value, time.UTC)
	if err != nil {
		log.Fatalf("Invalid %s date format. Use YYYY-MM-DD: %v", name, err)
	}
	return d
}

// resolveDateRange prefers explicit flags, then falls back to the trailing
// week of the loaded data.
func resolveDateRange(sess *session.Session, settings Settings) (time.Time, time.Time) {
	start := parseDateFlag(*startDate, "start")
	end := parseDateFlag(*endDate, "end")
	if !start.IsZero() && !end.IsZero() {
		return start, end
	}

	defStart, defEnd, ok := sess.DefaultDateRange()
	if !ok {
		log.Fatal("Dataset has no dated records; pass -start-date and -end-date explicitly")
	}
	if start.IsZero() {
		start = defStart
	}
	if end.IsZero() {
		end = defEnd
	}
	return start, end
}

// analysisSubset applies the -analysis-type selection used by the tier and
// engagement views.
func analysisSubset(records []models.TransactionRecord) []models.TransactionRecord {
	switch *analysisType {
	case "created":
		return analytics.FilterByType(records, models.Created)
	case "paid":
		return analytics.FilterByType(records, models.Paid)
	case "refunded":
		return analytics.FilterByType(records, models.Refunded)
	default:
		return records
	}
}

func renderReports(sess *session.Session, filtered, paid []models.TransactionRecord, start, end time.Time) {
	daily, undated := analytics.DailyVolume(filtered, start, end)
	hourly := analytics.HourlyVolume(filtered)
	subset := analysisSubset(filtered)
	tiers := analytics.TierBreakdown(subset)
	engagement := analytics.Engagement(paid)
	dailyEngagement := analytics.DailyEngagement(paid, start, end)
	averages := analytics.Averages(subset, paid)
	retention := analytics.DayNRetention(paid)
	cohorts := analytics.CohortAnalysis(paid)

	var paidAmount float64
	for _, rec := range paid {
		paidAmount += rec.Amount
	}
	fmt.Printf("\nDistinct paying users: %d\n", retention.TotalUsers)
	fmt.Printf("Paid amount in range: %.2f stars\n", paidAmount)
	fmt.Printf("Avg transactions per user: %.2f, avg paid amount per user: %.2f\n",
		averages.TransactionsPerUser, averages.AmountPerUser)

	fmt.Println("\n=== Daily Volume ===")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Date", "Created", "Paid", "Refunded", "Total"})
	for _, bucket := range daily {
		table.Append([]string{
			bucket.Date.Format(models.DateLayout),
			fmt.Sprintf("%d", bucket.Created),
			fmt.Sprintf("%d", bucket.Paid),
			fmt.Sprintf("%d", bucket.Refunded),
			fmt.Sprintf("%d", bucket.Total),
		})
	}
	table.Render()
	if undated.Total > 0 {
		fmt.Printf("Undated records (outside daily buckets): %d\n", undated.Total)
	}

	fmt.Println("\n=== Hourly Volume ===")
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Hour", "Created", "Paid", "Refunded", "Total"})
	for _, bucket := range hourly {
		table.Append([]string{
			fmt.Sprintf("%02d", bucket.Hour),
			fmt.Sprintf("%d", bucket.Created),
			fmt.Sprintf("%d", bucket.Paid),
			fmt.Sprintf("%d", bucket.Refunded),
			fmt.Sprintf("%d", bucket.Total),
		})
	}
	table.Render()

	fmt.Printf("\n=== Tier Breakdown (%s) ===\n", *analysisType)
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Tier", "Count", "Total Amount"})
	for _, bucket := range tiers {
		table.Append([]string{
			string(bucket.Tier),
			fmt.Sprintf("%d", bucket.Count),
			fmt.Sprintf("%.2f", bucket.TotalAmount),
		})
	}
	table.Render()

	fmt.Println("\n=== Engagement: users by paid spin count ===")
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Spins", "Users", "% of Users"})
	for _, row := range engagement.Rows {
		table.Append([]string{
			fmt.Sprintf("%d", row.SpinCount),
			fmt.Sprintf("%d", row.UserCount),
			fmt.Sprintf("%.2f", row.Percentage),
		})
	}
	table.Render()
	if engagement.Truncated {
		fmt.Printf("Showing the first %d of %d spin-count values\n", len(engagement.Rows), engagement.DistinctCounts)
	}
	if len(dailyEngagement) > 0 {
		fmt.Printf("Per-day engagement rows computed: %d\n", len(dailyEngagement))
	}

	fmt.Println("\n=== Day-N Retention ===")
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Day", "Returned Users", "Retention %"})
	for _, row := range retention.Rows {
		table.Append([]string{
			fmt.Sprintf("%d", row.Day),
			fmt.Sprintf("%d", row.ReturnedUsers),
			fmt.Sprintf("%.2f", row.RetentionRate),
		})
	}
	table.Render()
	if retention.Truncated {
		fmt.Println("Showing retention for the first 30 days only")
	}

	renderCohortMatrix(cohorts)
}

func renderCohortMatrix(report analytics.CohortReport) {
	fmt.Println("\n=== Cohort Retention Matrix (%) ===")
	if len(report.Rows) == 0 {
		fmt.Println("Insufficient data for cohort analysis")
		return
	}

	// Columns are the union of day numbers present across displayed cohorts.
	daySet := make(map[int]struct{})
	for _, row := range report.Rows {
		for day := range row.Cells {
			daySet[day] = struct{}{}
		}
	}
	days := make([]int, 0, len(daySet))
	for day := range daySet {
		days = append(days, day)
	}
	sort.Ints(days)

	header := []string{"Cohort", "Users"}
	for _, day := range days {
		header = append(header, fmt.Sprintf("Day %d", day))
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	for _, row := range report.Rows {
		cells := []string{row.Cohort.Format(models.DateLayout), fmt.Sprintf("%d", row.Size)}
		for _, day := range days {
			if rate, ok := row.Cells[day]; ok {
				cells = append(cells, fmt.Sprintf("%.2f", rate))
			} else {
				cells = append(cells, "-")
			}
		}
		table.Append(cells)
	}
	table.Render()

	if report.TruncatedCohorts {
		fmt.Println("Showing the earliest 10 cohorts only")
	}
	if report.TruncatedDays {
		fmt.Println("Showing day numbers up to 14 only")
	}

	printSummaryMetric := func(label string, value float64, ok bool) {
		if ok {
			fmt.Printf("%s: %.2f%%\n", label, value)
		} else {
			fmt.Printf("%s: insufficient data\n", label)
		}
	}
	printSummaryMetric("Day-1 retention", report.Summary.Day1, report.Summary.HasDay1)
	printSummaryMetric("Day-7 retention", report.Summary.Day7, report.Summary.HasDay7)
	printSummaryMetric("Day-14 retention", report.Summary.Day14, report.Summary.HasDay14)
}

func generateCharts(filtered, paid []models.TransactionRecord, start, end time.Time) {
	if err := os.MkdirAll(*outputPath, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	generateDailyVolumeChart(filtered, start, end)
	generateHourlyVolumeChart(filtered)
	generateTierChart(filtered)
	generateRetentionChart(paid)
}

func generateHourlyVolumeChart(records []models.TransactionRecord) {
	hourly := analytics.HourlyVolume(records)

	bars := make([]chart.Value, 0, len(hourly))
	for _, bucket := range hourly {
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%02d", bucket.Hour),
			Value: float64(bucket.Total),
		})
	}

	barChart := chart.BarChart{
		Title: "Transactions by Hour",
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:    1000,
		Height:   400,
		BarWidth: 24,
		Bars:     bars,
	}

	outputFile := filepath.Join(*outputPath, "hourly_volume_chart.png")
	f, err := os.Create(outputFile)
	if err != nil {
		log.Printf("Warning: Failed to create chart file: %v", err)
		return
	}
	defer f.Close()

	if err := barChart.Render(chart.PNG, f); err != nil {
		log.Printf("Warning: Failed to render chart: %v", err)
		return
	}
	fmt.Printf("Chart saved to: %s\n", outputFile)
}

// generateDailyVolumeChart renders the per-type daily series as time series.
func generateDailyVolumeChart(records []models.TransactionRecord, start, end time.Time) {
	daily, _ := analytics.DailyVolume(records, start, end)
	if len(daily) == 0 {
		return
	}

	xValues := make([]time.Time, len(daily))
	created := make([]float64, len(daily))
	paid := make([]float64, len(daily))
	refunded := make([]float64, len(daily))
	for i, bucket := range daily {
		xValues[i] = bucket.Date
		created[i] = float64(bucket.Created)
		paid[i] = float64(bucket.Paid)
		refunded[i] = float64(bucket.Refunded)
	}

	var series []chart.Series
	if *showCreated {
		series = append(series, chart.TimeSeries{Name: "Created", XValues: xValues, YValues: created})
	}
	if *showPaid {
		series = append(series, chart.TimeSeries{Name: "Paid", XValues: xValues, YValues: paid})
	}
	if *showRefunded {
		series = append(series, chart.TimeSeries{Name: "Refunded", XValues: xValues, YValues: refunded})
	}
	if len(series) == 0 {
		log.Println("Warning: all transaction types disabled, skipping daily volume chart")
		return
	}

	graph := chart.Chart{
		Title: "Daily Transaction Volume",
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  800,
		Height: 400,
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	renderChartFile(&graph, filepath.Join(*outputPath, "daily_volume_chart.png"))
}

func generateTierChart(records []models.TransactionRecord) {
	tiers := analytics.TierBreakdown(analysisSubset(records))

	var bars []chart.Value
	for _, bucket := range tiers {
		bars = append(bars, chart.Value{
			Label: string(bucket.Tier),
			Value: float64(bucket.Count),
		})
	}

	barChart := chart.BarChart{
		Title: "Transactions by Tier",
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  800,
		Height: 400,
		Bars:   bars,
	}

	outputFile := filepath.Join(*outputPath, "tier_chart.png")
	f, err := os.Create(outputFile)
	if err != nil {
		log.Printf("Warning: Failed to create chart file: %v", err)
		return
	}
	defer f.Close()

	if err := barChart.Render(chart.PNG, f); err != nil {
		log.Printf("Warning: Failed to render chart: %v", err)
		return
	}
	fmt.Printf("Chart saved to: %s\n", outputFile)
}

func generateRetentionChart(paid []models.TransactionRecord) {
	retention := analytics.DayNRetention(paid)
	if len(retention.Rows) == 0 {
		return
	}

	xValues := make([]float64, len(retention.Rows))
	yValues := make([]float64, len(retention.Rows))
	for i, row := range retention.Rows {
		xValues[i] = float64(row.Day)
		yValues[i] = row.RetentionRate
	}

	graph := chart.Chart{
		Title: "Day-N Retention",
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  800,
		Height: 400,
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "Retention %", XValues: xValues, YValues: yValues},
		},
	}

	renderChartFile(&graph, filepath.Join(*outputPath, "retention_chart.png"))
}

func renderChartFile(graph *chart.Chart, outputFile string) {
	f, err := os.Create(outputFile)
	if err != nil {
		log.Printf("Warning: Failed to create chart file: %v", err)
		return
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		log.Printf("Warning: Failed to render chart: %v", err)
		return
	}
	fmt.Printf("Chart saved to: %s\n", outputFile)
}

// exportDailyVolume pushes the per-type daily series to Timestream. The
// target is given as database:table.
func exportDailyVolume(ctx context.Context, records []models.TransactionRecord, start, end time.Time, target string) {
	database, tableName, ok := strings.Cut(target, ":")
	if !ok || database == "" || tableName == "" {
		log.Fatalf("Invalid -export-timestream value, want database:table, got %s", target)
	}

	writer, err := timestream.NewWriter(timestream.Config{
		Region:       *region,
		DatabaseName: database,
		TableName:    tableName,
	})
	if err != nil {
		log.Fatalf("Failed to create Timestream writer: %v", err)
	}

	daily, _ := analytics.DailyVolume(records, start, end)
	if err := writer.WriteDailyVolume(ctx, daily); err != nil {
		log.Fatalf("Timestream export failed: %v", err)
	}
	fmt.Printf("Exported %d daily buckets to %s.%s\n", len(daily), database, tableName)
}
