package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	apibudget "pmo_suite/pkg/api/budget"
	apidocs "pmo_suite/pkg/api/docs"
	apievm "pmo_suite/pkg/api/evm"
	apiquality "pmo_suite/pkg/api/quality"
	apisession "pmo_suite/pkg/api/session"
	apitxn "pmo_suite/pkg/api/transaction"
	apiworkflow "pmo_suite/pkg/api/workflow"
	"pmo_suite/pkg/core/budget"
	"pmo_suite/pkg/core/config"
	"pmo_suite/pkg/core/docs"
	"pmo_suite/pkg/core/evmreport"
	"pmo_suite/pkg/core/llm"
	"pmo_suite/pkg/core/quality"
	"pmo_suite/pkg/core/rowstore"
	"pmo_suite/pkg/core/session"
	"pmo_suite/pkg/core/store"
	"pmo_suite/pkg/core/transaction"
	"pmo_suite/pkg/core/workflow"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	cfg, err := config.Load("config/pmo.yaml")
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Row store: Google Sheets when a spreadsheet is configured, in-memory
	// otherwise (local development).
	var rows rowstore.Store
	if cfg.Sheets.SpreadsheetID != "" {
		sheetsStore, err := rowstore.NewSheetsStore(ctx, cfg.Sheets.SpreadsheetID)
		if err != nil {
			fmt.Printf("[FATAL] Failed to connect to Google Sheets: %v\n", err)
			os.Exit(1)
		}
		rows = sheetsStore
		fmt.Printf("[STORE] Using spreadsheet %s\n", cfg.Sheets.SpreadsheetID)
	} else {
		rows = rowstore.NewMemory()
		fmt.Println("[STORE] No spreadsheet configured, using in-memory store")
	}

	// Postgres report archive is optional.
	var archiver evmreport.Archiver
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			fmt.Printf("[WARNING] Report archive unavailable: %v\n", err)
		} else {
			archiver = store.NewReportRepo()
			defer store.Close()
			fmt.Println("[STORE] Report archive connected")
		}
	}

	// Drive document storage is optional too.
	var driveStore *docs.DriveStore
	if cfg.Drive.InboxFolderID != "" || cfg.Drive.ReportsFolderID != "" {
		driveStore, err = docs.NewDriveStore(ctx)
		if err != nil {
			fmt.Printf("[WARNING] Drive unavailable, document endpoints disabled: %v\n", err)
			driveStore = nil
		}
	}

	policy := cfg.Policy()
	categorizer := llm.NewCategorizer(cfg.LLM.CategorizerModel)
	provider := &llm.GeminiProvider{}

	budgetSvc := budget.NewService(rows)
	txnSvc := transaction.NewService(rows, categorizer)
	qualitySvc := quality.NewService(rows)
	reportSvc := evmreport.NewService(rows, policy, archiver)
	sessions := session.NewStore()

	bus := workflow.NewBus()
	for _, eventType := range []string{
		"budget.activated", "budget.closed",
		"transaction.reconciled",
		"document.uploaded", "document.routed",
	} {
		bus.Subscribe(eventType, func(ev workflow.Event) {
			fmt.Printf("[EVENT] %s %s %v\n", ev.Type, ev.ID, ev.Payload)
		})
	}

	budgetHandler := apibudget.NewHandler(budgetSvc, bus)
	http.HandleFunc("/api/budgets", budgetHandler.HandleCollection)
	http.HandleFunc("/api/budgets/", budgetHandler.HandleItem)

	txnHandler := apitxn.NewHandler(txnSvc, bus)
	http.HandleFunc("/api/transactions", txnHandler.HandleCollection)
	http.HandleFunc("/api/transactions/reconcile", txnHandler.HandleBatchReconcile)
	http.HandleFunc("/api/transactions/", txnHandler.HandleItem)

	evmHandler := apievm.NewHandler(reportSvc, txnSvc, policy)
	http.HandleFunc("/api/evm/snapshots", evmHandler.HandleSnapshots)
	http.HandleFunc("/api/evm/metrics", evmHandler.HandleMetrics)
	http.HandleFunc("/api/evm/report", evmHandler.HandleReport)
	http.HandleFunc("/api/evm/anomalies", evmHandler.HandleAnomalies)
	http.HandleFunc("/api/evm/forecast", evmHandler.HandleForecast)
	http.HandleFunc("/api/evm/runway", evmHandler.HandleRunway)

	qualityHandler := apiquality.NewHandler(qualitySvc)
	http.HandleFunc("/api/checklists", qualityHandler.HandleCollection)
	http.HandleFunc("/api/checklists/", qualityHandler.HandleItem)

	docsHandler := apidocs.NewHandler(driveStore, provider, bus)
	http.HandleFunc("/api/documents", docsHandler.HandleCollection)
	http.HandleFunc("/api/documents/extract", docsHandler.HandleExtract)
	http.HandleFunc("/api/documents/", docsHandler.HandleItem)

	workflowHandler := apiworkflow.NewHandler(cfg.Workflows, bus)
	http.HandleFunc("/api/workflows", workflowHandler.HandleCollection)
	http.HandleFunc("/api/workflows/", workflowHandler.HandleItem)

	sessionHandler := apisession.NewHandler(sessions)
	http.HandleFunc("/api/sessions", sessionHandler.HandleCollection)
	http.HandleFunc("/api/sessions/", sessionHandler.HandleItem)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	fmt.Printf("API server starting on %s...\n", addr)
	fmt.Println("  - /api/budgets")
	fmt.Println("  - /api/transactions")
	fmt.Println("  - /api/evm/{snapshots,metrics,report,anomalies,forecast,runway}")
	fmt.Println("  - /api/checklists")
	fmt.Println("  - /api/documents")
	fmt.Println("  - /api/workflows")
	fmt.Println("  - /api/sessions")

	if err := http.ListenAndServe(addr, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
