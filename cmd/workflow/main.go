// The workflow runner ticks the scheduler and executes due jobs by
// publishing their events. Built-in subscribers handle report generation
// and categorization sweeps; anything else just gets logged.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"pmo_suite/pkg/core/config"
	"pmo_suite/pkg/core/docs"
	"pmo_suite/pkg/core/evmreport"
	"pmo_suite/pkg/core/llm"
	"pmo_suite/pkg/core/rowstore"
	"pmo_suite/pkg/core/store"
	"pmo_suite/pkg/core/transaction"
	"pmo_suite/pkg/core/workflow"

	"github.com/joho/godotenv"
)

const tickInterval = time.Minute

func main() {
	godotenv.Load()

	cfg, err := config.Load("config/pmo.yaml")
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}
	if len(cfg.Workflows) == 0 {
		fmt.Println("[WORKFLOW] No workflows configured, nothing to run")
		return
	}

	ctx := context.Background()

	var rows rowstore.Store
	if cfg.Sheets.SpreadsheetID != "" {
		sheetsStore, err := rowstore.NewSheetsStore(ctx, cfg.Sheets.SpreadsheetID)
		if err != nil {
			fmt.Printf("[FATAL] Failed to connect to Google Sheets: %v\n", err)
			os.Exit(1)
		}
		rows = sheetsStore
	} else {
		rows = rowstore.NewMemory()
		fmt.Println("[STORE] No spreadsheet configured, using in-memory store")
	}

	var archiver evmreport.Archiver
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			fmt.Printf("[WARNING] Report archive unavailable: %v\n", err)
		} else {
			archiver = store.NewReportRepo()
			defer store.Close()
		}
	}

	var driveStore *docs.DriveStore
	if cfg.Drive.ReportsFolderID != "" {
		driveStore, err = docs.NewDriveStore(ctx)
		if err != nil {
			fmt.Printf("[WARNING] Drive unavailable, report uploads disabled: %v\n", err)
			driveStore = nil
		}
	}

	reportSvc := evmreport.NewService(rows, cfg.Policy(), archiver)
	txnSvc := transaction.NewService(rows, llm.NewCategorizer(cfg.LLM.CategorizerModel))

	bus := workflow.NewBus()
	bus.Subscribe("report.generate", func(ev workflow.Event) {
		for _, program := range cfg.Programs {
			report, err := reportSvc.GenerateReport(ctx, program, time.Now().UTC())
			if err != nil {
				fmt.Printf("[WORKFLOW] Report for %s failed: %v\n", program, err)
				continue
			}
			fmt.Printf("[WORKFLOW] Generated report for %s (health %s)\n", program, report.Health.Status)
			if driveStore != nil {
				name := fmt.Sprintf("evm-report-%s-%s.md", program, report.Generated.Format("2006-01-02"))
				markdown := docs.CleanMarkdown(report.Markdown)
				if _, err := driveStore.Upload(ctx, cfg.Drive.ReportsFolderID, name, "text/markdown", markdown); err != nil {
					fmt.Printf("[WORKFLOW] Upload of %s failed: %v\n", name, err)
				}
			}
		}
	})
	bus.Subscribe("transaction.categorize", func(ev workflow.Event) {
		for _, program := range cfg.Programs {
			txns, err := txnSvc.List(ctx, program)
			if err != nil {
				fmt.Printf("[WORKFLOW] Listing transactions for %s failed: %v\n", program, err)
				continue
			}
			for _, t := range txns {
				if t.CategoryStatus != transaction.CategoryUnclassified || t.Reconciled {
					continue
				}
				if _, err := txnSvc.Categorize(ctx, t.ID); err != nil {
					fmt.Printf("[WORKFLOW] Categorizing %s failed: %v\n", t.ID, err)
				}
			}
		}
	})

	scheduler := workflow.NewScheduler(cfg.Workflows)
	fmt.Printf("[WORKFLOW] Runner started with %d definitions, ticking every %s\n", len(cfg.Workflows), tickInterval)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for now := range ticker.C {
		for _, def := range scheduler.Due(now) {
			fmt.Printf("[WORKFLOW] Firing %s (%s)\n", def.ID, def.EventType)
			bus.Publish(def.EventType, map[string]interface{}{"workflowId": def.ID})
		}
	}
}
