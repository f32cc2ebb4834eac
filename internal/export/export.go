// Package export encodes generated tables as CSV files and bundles them into a zip archive.
package export

import (
	"archive/zip"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/Maxwavez/AB-tests-dataset-generator/internal/experiment"
)

const (
	TransactionsFile = "generated_dataset1.csv"
	GroupsFile       = "generated_dataset2.csv"
	ArchiveName      = "generated_datasets.zip"
)

// WriteTransactions writes the id,amount table. Users without a purchase get a blank amount.
func WriteTransactions(w io.Writer, rows []experiment.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "amount"}); err != nil {
		return eris.Wrap(err, "csv: write transactions header")
	}
	for _, row := range rows {
		if err := cw.Write([]string{string(row.ID), FormatAmount(row.Amount)}); err != nil {
			return eris.Wrap(err, "csv: write transaction row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "csv: flush transactions")
}

// WriteGroups writes the id,group table.
func WriteGroups(w io.Writer, rows []experiment.GroupMembership) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "group"}); err != nil {
		return eris.Wrap(err, "csv: write groups header")
	}
	for _, row := range rows {
		if err := cw.Write([]string{string(row.ID), string(row.Group)}); err != nil {
			return eris.Wrap(err, "csv: write group row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "csv: flush groups")
}

// FormatAmount renders an amount with one decimal place, or an empty string for nil.
func FormatAmount(amount *float64) string {
	if amount == nil {
		return ""
	}
	return strconv.FormatFloat(*amount, 'f', 1, 64)
}

// WriteArchive writes both tables as CSV entries of a single zip archive.
func WriteArchive(w io.Writer, tables *experiment.Tables) error {
	zw := zip.NewWriter(w)

	entries := []struct {
		name  string
		write func(io.Writer) error
	}{
		{TransactionsFile, func(f io.Writer) error { return WriteTransactions(f, tables.Transactions) }},
		{GroupsFile, func(f io.Writer) error { return WriteGroups(f, tables.Groups) }},
	}

	for _, e := range entries {
		f, err := zw.Create(e.name)
		if err != nil {
			_ = zw.Close()
			return eris.Wrapf(err, "zip: create %s", e.name)
		}
		if err := e.write(f); err != nil {
			_ = zw.Close()
			return eris.Wrapf(err, "zip: write %s", e.name)
		}
	}

	return eris.Wrap(zw.Close(), "zip: close archive")
}
