// preprocess is the out-of-band partition-build ETL: it streams spot
// and F&O CSV files into ClickHouse tables partitioned by (year,
// symbol) so the replayserver's columnar backend can answer as-of
// queries with partition pruning. Run it to completion before starting
// query sessions; the tables are treated as immutable afterwards.
package main

import (
	"database/sql"
	"flag"
	"log"
	"os"

	"optionsimv1/internal/ingest"
	"optionsimv1/internal/model"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

const (
	spotSchema = `
	CREATE TABLE IF NOT EXISTS spot_bars (
		ticker String,
		ts     DateTime,
		open   Float64,
		high   Float64,
		low    Float64,
		close  Float64
	) ENGINE = MergeTree
	PARTITION BY toYear(ts)
	ORDER BY (ticker, ts)`

	foSchema = `
	CREATE TABLE IF NOT EXISTS fo_records (
		symbol        String,
		instrument    String,
		expiry        Date,
		strike        Float64,
		option_type   String,
		open          Float64,
		high          Float64,
		low           Float64,
		close         Float64,
		settle_price  Float64,
		open_interest Int64,
		change_in_oi  Int64,
		value_in_lakh Float64,
		contracts     Int64,
		ts            DateTime
	) ENGINE = MergeTree
	PARTITION BY (toYear(ts), symbol)
	ORDER BY (symbol, ts)`

	insertFO = `INSERT INTO fo_records
		(symbol, instrument, expiry, strike, option_type,
		 open, high, low, close, settle_price,
		 open_interest, change_in_oi, value_in_lakh, contracts, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertSpot = `INSERT INTO spot_bars (ticker, ts, open, high, low, close)
		VALUES (?, ?, ?, ?, ?, ?)`

	batchSize = 10000
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	dsn := flag.String("dsn", "clickhouse://localhost:9000/fo_replay", "ClickHouse DSN")
	spotCSV := flag.String("spot", "", "path to spot/index CSV (optional)")
	foCSV := flag.String("fo", "", "path to F&O CSV (optional)")
	ticker := flag.String("ticker", "NIFTY", "fallback ticker for spot files without one")
	flag.Parse()

	if *spotCSV == "" && *foCSV == "" {
		log.Fatal("[preprocess] specify -spot and/or -fo")
	}

	db, err := sql.Open("clickhouse", *dsn)
	if err != nil {
		log.Fatalf("[preprocess] open: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("[preprocess] ping: %v", err)
	}

	if *spotCSV != "" {
		if _, err := db.Exec(spotSchema); err != nil {
			log.Fatalf("[preprocess] create spot_bars: %v", err)
		}
		n, err := loadSpot(db, *spotCSV, *ticker)
		if err != nil {
			log.Fatalf("[preprocess] spot load: %v", err)
		}
		log.Printf("[preprocess] spot_bars: %d rows from %s", n, *spotCSV)
	}

	if *foCSV != "" {
		if _, err := db.Exec(foSchema); err != nil {
			log.Fatalf("[preprocess] create fo_records: %v", err)
		}
		n, err := loadFO(db, *foCSV, batchSize)
		if err != nil {
			log.Fatalf("[preprocess] fo load: %v", err)
		}
		log.Printf("[preprocess] fo_records: %d rows from %s (partitioned by year, symbol)", n, *foCSV)
	}
}

func loadSpot(db *sql.DB, path, ticker string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	bars, err := ingest.LoadSpot(f, ticker)
	if err != nil {
		return 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(insertSpot)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	for _, b := range bars {
		if _, err := stmt.Exec(b.Ticker, b.TS, b.Open, b.High, b.Low, b.Close); err != nil {
			tx.Rollback()
			return 0, err
		}
	}
	return len(bars), tx.Commit()
}

// txBeginner is the slice of *sql.DB the batch loader needs.
type txBeginner interface {
	Begin() (*sql.Tx, error)
}

// loadFO streams the F&O CSV in batches of batchRows; the source can
// be far larger than memory.
func loadFO(db txBeginner, path string, batchRows int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var (
		tx    *sql.Tx
		stmt  *sql.Stmt
		total int
		batch int
	)

	begin := func() error {
		tx, err = db.Begin()
		if err != nil {
			return err
		}
		stmt, err = tx.Prepare(insertFO)
		if err != nil {
			tx.Rollback()
			return err
		}
		return nil
	}
	if err := begin(); err != nil {
		return 0, err
	}

	err = ingest.ForEachFO(f, func(r model.DerivativeRecord) error {
		_, err := stmt.Exec(
			r.Symbol, r.Instrument, r.Expiry, r.Strike, r.OptionType,
			r.Open, r.High, r.Low, r.Close, r.SettlePrice,
			r.OpenInterest, r.ChangeInOI, r.ValueInLakh, r.Contracts, r.TS,
		)
		if err != nil {
			return err
		}
		total++
		batch++
		if batch >= batchRows {
			stmt.Close()
			if err := tx.Commit(); err != nil {
				tx = nil
				return err
			}
			batch = 0
			if total%1000000 == 0 {
				log.Printf("[preprocess] fo_records: %d rows...", total)
			}
			// A failed begin leaves tx nil; the error path below must
			// not roll back a transaction that never opened.
			return begin()
		}
		return nil
	})
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return total, err
	}
	stmt.Close()
	return total, tx.Commit()
}
