// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keyfile"
	"github.com/controlplaneio-fluxcd/cenc-keys/internal/keystore"
)

func printTable(writer io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}

// printRecords lists the key IDs of the store and whether their key is known.
func printRecords(writer io.Writer, store *keystore.Store) {
	var rows [][]string
	for _, r := range store.Records() {
		status := "pending"
		if r.Resolved() {
			status = "resolved"
		}
		rows = append(rows, []string{r.ID.String(), r.ID.UUID(), status})
	}
	printTable(writer, []string{"key id", "uuid", "status"}, rows)
}

// printEntries prints the key files written for each key.
func printEntries(writer io.Writer, entries []keyfile.Entry) {
	for _, e := range entries {
		for _, scheme := range keyfile.Schemes {
			if path, ok := e.Paths[scheme]; ok {
				_, _ = io.WriteString(writer, "✔ key stored: "+path+"\n")
			}
		}
	}
}
