package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	conf "github.com/ruolez/GlobalUPC/internal/config"
	"github.com/ruolez/GlobalUPC/internal/db"
	"github.com/ruolez/GlobalUPC/internal/integrations/mssql"
	_ "github.com/ruolez/GlobalUPC/internal/integrations/shopify"
	logs "github.com/ruolez/GlobalUPC/internal/logs"
	"github.com/ruolez/GlobalUPC/internal/progress"
	"github.com/ruolez/GlobalUPC/internal/runner"
)

var ver = "1.0.0"

func main() {
	_ = godotenv.Load()

	appDir := mustAppDataDir("globalupc")
	log := logs.New(filepath.Join(appDir, "app.log"), true)

	dbh, err := db.OpenAt(appDir)
	if err != nil {
		log.Fatal().Err(err).Msg("DB open error")
	}
	if err := dbh.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("DB migrate error")
	}
	log.Info().Str("db", dbh.Path).Msg("DB ready")
	sqlDB, _ := dbh.DB.DB()
	defer sqlDB.Close()

	cfgPath := filepath.Join(appDir, "config.json")
	cfg, firstRun, err := conf.LoadOrCreate(cfgPath)
	if err != nil {
		panic(err)
	}
	if firstRun {
		log.Info().Msgf("Created default configuration: %s", cfgPath)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r := runner.New(log, cfg, dbh)

	fmt.Println("GlobalUPC CLI", ver)
	fmt.Println("Commands: stores | test <id> | search <upc> | audit <src-id> [target-id] | match <id> <product_id|description> | apply <id> | update <upc> <new-upc> | diff <src-id> <target-id> | exclude <upc> [reason] | paths | quit")
	reader := bufio.NewReader(os.Stdin)

	// audit → match → apply operate on the results of the previous step
	var lastOrphans []mssql.OrphanRecord
	var lastMatches []mssql.Match

	for {
		fmt.Print("> ")
		line, _ := reader.ReadString('\n')
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		cmd := strings.ToLower(fields[0])
		args := fields[1:]

		switch cmd {
		case "stores":
			stores, err := dbh.AllStores()
			if err != nil {
				fmt.Println("List error:", err)
				continue
			}
			for _, s := range stores {
				state := "inactive"
				if s.IsActive {
					state = "active"
				}
				fmt.Printf("  [%d] %s (%s, %s)\n", s.ID, s.Name, s.StoreType, state)
			}

		case "test":
			store, err := storeArg(dbh, args, 0)
			if err != nil {
				fmt.Println(err)
				continue
			}
			backend, err := r.BackendFor(*store)
			if err != nil {
				fmt.Println("Backend error:", err)
				continue
			}
			info, err := backend.Test(ctx)
			if err != nil {
				fmt.Println("Test failed:", err)
				continue
			}
			fmt.Println("OK:", firstLine(info))

		case "search":
			if len(args) < 1 {
				fmt.Println("Usage: search <upc>")
				continue
			}
			stores, err := dbh.ActiveStores()
			if err != nil {
				fmt.Println("List error:", err)
				continue
			}
			matches, errs := r.SearchFleet(ctx, stores, args[0])
			for _, m := range matches {
				if m.TableName != "" {
					fmt.Printf("  %s: %s [%s x%d]\n", m.StoreName, m.ProductName, m.TableName, m.MatchCount)
				} else {
					fmt.Printf("  %s: %s (sku %s, %s)\n", m.StoreName, m.ProductName, m.SKU, m.Price)
				}
			}
			for _, e := range errs {
				fmt.Printf("  ! %s: %s\n", e.StoreName, e.Error)
			}
			if len(matches) == 0 && len(errs) == 0 {
				fmt.Println("  no matches")
			}

		case "audit":
			source, err := storeArg(dbh, args, 0)
			if err != nil {
				fmt.Println(err)
				continue
			}
			target := source
			cross := false
			if len(args) > 1 {
				target, err = storeArg(dbh, args, 1)
				if err != nil {
					fmt.Println(err)
					continue
				}
				cross = true
			}
			srcDB, err := openStoreDB(r, *source)
			if err != nil {
				fmt.Println(err)
				continue
			}
			tgtDB := srcDB
			if cross {
				tgtDB, err = openStoreDB(r, *target)
				if err != nil {
					fmt.Println(err)
					continue
				}
			}
			job := r.StartAudit(ctx, srcDB, tgtDB, mssql.AuditOptions{CrossSource: cross})
			if err := job.Stream(ctx, cfg.Stream, printEvent); err != nil {
				fmt.Println("Stream error:", err)
			}
			if err := job.Wait(); err != nil {
				fmt.Println("Audit error:", err)
				continue
			}
			lastOrphans = job.Orphans()
			lastMatches = nil
			fmt.Printf("Orphaned records: %d\n", len(lastOrphans))

		case "match":
			if len(args) < 2 {
				fmt.Println("Usage: match <store-id> <product_id|description>")
				continue
			}
			if len(lastOrphans) == 0 {
				fmt.Println("No orphaned records; run audit first")
				continue
			}
			var field runner.MatchField
			switch args[1] {
			case "product_id":
				field = runner.MatchByProductID
			case "description":
				field = runner.MatchByDescription
			default:
				fmt.Println("Match field must be product_id or description")
				continue
			}
			store, err := storeArg(dbh, args, 0)
			if err != nil {
				fmt.Println(err)
				continue
			}
			catalog, err := openStoreDB(r, *store)
			if err != nil {
				fmt.Println(err)
				continue
			}
			job := r.StartMatch(ctx, catalog, lastOrphans, field)
			if err := job.Stream(ctx, cfg.Stream, printEvent); err != nil {
				fmt.Println("Stream error:", err)
			}
			if err := job.Wait(); err != nil {
				fmt.Println("Match error:", err)
				continue
			}
			lastMatches = job.Matches()
			found := 0
			for _, m := range lastMatches {
				if m.Found {
					found++
				}
			}
			fmt.Printf("Matched %d of %d orphaned records\n", found, len(lastMatches))

		case "apply":
			store, err := storeArg(dbh, args, 0)
			if err != nil {
				fmt.Println(err)
				continue
			}
			var reqs []mssql.UpdateRequest
			for _, m := range lastMatches {
				if m.Found {
					reqs = append(reqs, mssql.UpdateRequest{
						TableName:  m.TableName,
						PrimaryKey: m.PrimaryKey,
						NewUPC:     m.ItemsUPC,
					})
				}
			}
			if len(reqs) == 0 {
				fmt.Println("No matched records to apply; run match first")
				continue
			}
			target, err := openStoreDB(r, *store)
			if err != nil {
				fmt.Println(err)
				continue
			}
			job := r.StartUpdate(ctx, target, reqs)
			if err := job.Stream(ctx, cfg.Stream, printEvent); err != nil {
				fmt.Println("Stream error:", err)
			}
			if err := job.Wait(); err != nil {
				fmt.Println("Update error:", err)
				continue
			}
			updated, failedCount := 0, 0
			for _, res := range job.Results() {
				if res.Success {
					updated++
				} else {
					failedCount++
					fmt.Printf("  ! %s/%d: %s\n", res.TableName, res.PrimaryKey, res.Error)
				}
			}
			lastMatches = nil
			fmt.Printf("Updated %d, failed %d\n", updated, failedCount)

		case "update":
			if len(args) < 2 {
				fmt.Println("Usage: update <upc> <new-upc>")
				continue
			}
			stores, err := dbh.ActiveStores()
			if err != nil {
				fmt.Println("List error:", err)
				continue
			}
			matches, searchErrs := r.SearchFleet(ctx, stores, args[0])
			for _, e := range searchErrs {
				fmt.Printf("  ! %s: %s\n", e.StoreName, e.Error)
			}
			if len(matches) == 0 {
				fmt.Println("UPC not found in any store")
				continue
			}
			outcome, updErrs := r.UpdateFleet(ctx, stores, matches, args[1])
			for _, e := range updErrs {
				fmt.Printf("  ! %s: %s\n", e.StoreName, e.Error)
			}
			for _, msg := range outcome.Errors {
				fmt.Println("  !", msg)
			}
			fmt.Printf("Updated %d, failed %d across %d stores\n", outcome.Updated, outcome.Failed, len(stores))

		case "diff":
			if len(args) < 2 {
				fmt.Println("Usage: diff <src-id> <target-id>")
				continue
			}
			source, err := storeArg(dbh, args, 0)
			if err != nil {
				fmt.Println(err)
				continue
			}
			target, err := storeArg(dbh, args, 1)
			if err != nil {
				fmt.Println(err)
				continue
			}
			srcDB, err := openStoreDB(r, *source)
			if err != nil {
				fmt.Println(err)
				continue
			}
			tgtDB, err := openStoreDB(r, *target)
			if err != nil {
				fmt.Println(err)
				continue
			}
			job := r.StartDiff(ctx, srcDB, tgtDB, mssql.DiffFilters{})
			if err := job.Stream(ctx, cfg.Stream, printEvent); err != nil {
				fmt.Println("Stream error:", err)
			}
			if err := job.Wait(); err != nil {
				fmt.Println("Diff error:", err)
				continue
			}
			for _, p := range job.Missing() {
				fmt.Printf("  missing %s %s (%s / %s)\n", p.UPC, p.Description, p.CategoryName, p.SubCategoryName)
			}
			fmt.Printf("Missing products: %d\n", len(job.Missing()))

		case "exclude":
			if len(args) < 1 {
				fmt.Println("Usage: exclude <upc> [reason]")
				continue
			}
			reason := strings.Join(args[1:], " ")
			if err := dbh.AddExclusion(args[0], reason); err != nil {
				fmt.Println("Exclude error:", err)
				continue
			}
			fmt.Println("Excluded", args[0])

		case "paths":
			fmt.Println("Logs:", filepath.Join(appDir, "app.log"))
			fmt.Println("Config:", cfgPath)
			fmt.Println("Registry:", dbh.Path)

		case "quit", "exit":
			cancel()
			return

		default:
			fmt.Println("Unknown command. Use: stores | test | search | audit | match | apply | update | diff | exclude | paths | quit")
		}
	}
}

func storeArg(dbh *db.Handle, args []string, idx int) (*db.Store, error) {
	if len(args) <= idx {
		return nil, fmt.Errorf("missing store id argument")
	}
	id, err := strconv.ParseUint(args[idx], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("bad store id %q", args[idx])
	}
	return dbh.StoreByID(uint(id))
}

// openStoreDB resolves a POS store to its live database handle. Shopify
// stores have no SQL surface and are rejected here.
func openStoreDB(r *runner.Runner, store db.Store) (*gorm.DB, error) {
	backend, err := r.BackendFor(store)
	if err != nil {
		return nil, err
	}
	mb, ok := backend.(*mssql.Backend)
	if !ok {
		return nil, fmt.Errorf("store %q is not a POS database", store.Name)
	}
	return mb.DB(), nil
}

func printEvent(e progress.Event) {
	switch e.Status {
	case progress.EventCheckingTable:
		fmt.Println("  checking", e.TableName)
	case progress.EventChunkProgress:
		fmt.Printf("  chunk %d/%d: %d/%d rows\n", e.Chunk, e.TotalChunks, e.RecordsChecked, e.TotalRecords)
	case progress.EventTableComplete:
		fmt.Printf("  %s: %d orphaned\n", e.TableName, e.OrphanedCount)
	case progress.EventTableSkipped:
		fmt.Println("  skipped", e.TableName)
	case progress.EventHeartbeat:
		// keep quiet in the terminal
	default:
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func mustAppDataDir(name string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	p := filepath.Join(base, name)
	_ = os.MkdirAll(p, 0o755)
	return p
}
