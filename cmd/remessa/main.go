// Command remessa generates CNAB remessa batch files from the command line.
//
//	remessa generate <batchNumber> <branchCode> <outputFile> [recordsFile.json]
//
// recordsFile.json, when given, is a JSON array of objects with the
// fields nossoNumero (string) and valor (number). Without it an empty
// batch (header + trailer only) is written.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/lotefacil/cnab-gateway/internal/cnab"
	"github.com/lotefacil/cnab-gateway/internal/domain"
)

func main() {
	truncate := flag.Bool("truncate", false, "silently truncate oversized fields instead of rejecting them")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 4 || args[0] != "generate" {
		usage()
		os.Exit(2)
	}

	batchNumber, err := strconv.Atoi(args[1])
	if err != nil || batchNumber <= 0 {
		fmt.Fprintf(os.Stderr, "remessa: batch number must be a positive integer, got %q\n", args[1])
		os.Exit(2)
	}
	branchCode := args[2]
	outputFile := args[3]

	var records []domain.RemessaRecord
	if len(args) > 4 {
		records, err = loadRecords(args[4])
		if err != nil {
			fmt.Fprintf(os.Stderr, "remessa: %v\n", err)
			os.Exit(1)
		}
	}

	policy := cnab.OverflowReject
	if *truncate {
		policy = cnab.OverflowTruncate
	}

	doc, err := cnab.NewEncoder(policy).GenerateRemessa(batchNumber, branchCode, records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "remessa: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputFile, []byte(doc), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "remessa: write %s: %v\n", outputFile, err)
		os.Exit(1)
	}

	fmt.Printf("remessa written to %s (%d records, batch %04d)\n", outputFile, len(records), batchNumber)
}

func loadRecords(path string) ([]domain.RemessaRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var records []domain.RemessaRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: remessa [-truncate] generate <batchNumber> <branchCode> <outputFile> [recordsFile.json]")
}
