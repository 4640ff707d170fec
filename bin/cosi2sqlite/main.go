// Command cosi2sqlite bulk-loads the native .pos-<pop>/.hap-<pop> file
// pairs emitted by a cosi run into a SQLite database, one Allele table per
// population. Adapted from the teacher's csv2sqlite loader (glob over a
// basepath, one transaction per file, WAL-mode connection string).
package main

import (
	"bufio"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	outPath := flag.String("out", "", "path of the sqlite3 database to create (required)")
	flag.Parse()

	if *outPath == "" {
		fmt.Println("-out was not specified")
		flag.Usage()
		os.Exit(1)
	}
	if flag.NArg() < 1 {
		fmt.Println("one or more directories of .pos-<pop>/.hap-<pop> files must be given")
		flag.Usage()
		os.Exit(1)
	}

	db, err := openSQLiteDBOptimized(*outPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	start := time.Now()
	fileCount := 0
	for i := 0; i < flag.NArg(); i++ {
		dir := filepath.Clean(flag.Arg(i))
		n, err := loadDir(db, dir)
		if err != nil {
			log.Fatal(err)
		}
		fileCount += n
	}
	fmt.Printf("loaded %d files in %v\n", fileCount, time.Since(start))
}

var posHapName = regexp.MustCompile(`\.(pos|hap)-(.+)$`)

// loadDir globs every .pos-<pop>/.hap-<pop> pair under dir and loads it
// into a per-population Allele table: one row per sampled chromosome with
// its genotype string across all SNPs. Positions are read only to check
// each row's width; they are not stored.
func loadDir(db *sql.DB, dir string) (int, error) {
	posPaths, err := filepath.Glob(filepath.Join(dir, "*.pos-*"))
	if err != nil {
		return 0, err
	}
	if len(posPaths) == 0 {
		return 0, fmt.Errorf("%s: no .pos-<pop> files found", dir)
	}

	loaded := 0
	for _, posPath := range posPaths {
		m := posHapName.FindStringSubmatch(filepath.Base(posPath))
		if m == nil {
			continue
		}
		pop := m[2]
		hapPath := strings.TrimSuffix(posPath, ".pos-"+pop) + ".hap-" + pop

		positions, err := readPositions(posPath)
		if err != nil {
			return loaded, err
		}
		table := "Allele_" + sanitizeTableName(pop)
		if err := loadPopulation(db, table, positions, hapPath); err != nil {
			return loaded, err
		}
		loaded += 2
	}
	return loaded, nil
}

func sanitizeTableName(pop string) string {
	var b strings.Builder
	for _, r := range pop {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// readPositions parses the bp column (second field) of a .pos-<pop> file's
// snp_id/bp/anc/der rows, returning positions in file order, which is the
// column order of the .hap rows.
func readPositions(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var positions []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		pos, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		positions = append(positions, pos)
	}
	return positions, scanner.Err()
}

// loadPopulation creates table (if absent), clears it, and inserts one row
// per sampled chromosome: its index and its genotype string across every
// SNP position in positions.
func loadPopulation(db *sql.DB, table string, positions []float64, hapPath string) error {
	createStmt := fmt.Sprintf(`create table if not exists %s (id integer not null primary key, chrom int, genotype text);`, table)
	if _, err := db.Exec(createStmt); err != nil {
		return fmt.Errorf("%q: %s", err, createStmt)
	}
	if _, err := db.Exec(fmt.Sprintf("delete from %s;", table)); err != nil {
		return err
	}

	f, err := os.Open(hapPath)
	if err != nil {
		return err
	}
	defer f.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(fmt.Sprintf("insert into %s (chrom, genotype) values (?, ?)", table))
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	scanner := bufio.NewScanner(f)
	chrom := 0
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) != len(positions) {
			tx.Rollback()
			return fmt.Errorf("%s: row %d has %d alleles, want %d", hapPath, chrom, len(line), len(positions))
		}
		if _, err := stmt.Exec(chrom, line); err != nil {
			tx.Rollback()
			return err
		}
		chrom++
	}
	if err := scanner.Err(); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func openSQLiteDBOptimized(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal=WAL&_locking=EXCLUSIVE&_sync=NORMAL", path)
	return sql.Open("sqlite3", dsn)
}
