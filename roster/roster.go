// Package roster provides read-only lookups over the reference dataset of
// organization/sponsor pairs supplied as a CSV file.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	apierrors "github.com/enrollhub/enrollment-backend/pkg/errors"
)

// ErrDisplayNameNotFound indicates no roster row matched both identifiers.
var ErrDisplayNameNotFound = errors.New("display name not found in roster")

// Entry represents one row of the reference dataset
type Entry struct {
	OrganizationID string
	SponsorID      string
	DisplayName    string
}

// Index answers membership and display-name queries against the CSV dataset.
// The file is re-read on every query so external updates to the dataset are
// picked up without a restart.
type Index struct {
	path string
}

// NewIndex creates an Index over the CSV file at path
func NewIndex(path string) *Index {
	return &Index{path: path}
}

// readAll parses the full dataset. Any read or parse failure is reported as
// SourceUnavailable, never as an empty result.
func (idx *Index) readAll() ([]Entry, error) {
	f, err := os.Open(idx.path)
	if err != nil {
		return nil, apierrors.SourceUnavailable(fmt.Errorf("failed to open roster file %s: %w", idx.path, err))
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("failed to close roster file", "path", idx.path, "error", err)
		}
	}()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, apierrors.SourceUnavailable(fmt.Errorf("failed to read roster header: %w", err))
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	orgCol, okOrg := cols["organization_id"]
	sponsorCol, okSponsor := cols["sponsor_id"]
	nameCol, okName := cols["display_name"]
	if !okOrg || !okSponsor || !okName {
		return nil, apierrors.SourceUnavailable(fmt.Errorf("roster header missing required columns, got %v", header))
	}

	var entries []Entry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apierrors.SourceUnavailable(fmt.Errorf("failed to read roster row: %w", err))
		}
		entries = append(entries, Entry{
			OrganizationID: record[orgCol],
			SponsorID:      record[sponsorCol],
			DisplayName:    record[nameCol],
		})
	}
	return entries, nil
}

// ExistsPair reports whether the organization ID appears in at least one row
// AND the sponsor ID appears in at least one row. The two matches are NOT
// required to land on the same row; ResolveDisplayName is the strict
// combined-row lookup. Callers relying on a same-row guarantee must use that
// instead.
func (idx *Index) ExistsPair(organizationID, sponsorID string) (bool, error) {
	entries, err := idx.readAll()
	if err != nil {
		return false, err
	}

	var foundOrg, foundSponsor bool
	for _, e := range entries {
		if e.OrganizationID == organizationID {
			foundOrg = true
		}
		if e.SponsorID == sponsorID {
			foundSponsor = true
		}
		if foundOrg && foundSponsor {
			return true, nil
		}
	}
	return false, nil
}

// ResolveDisplayName returns the display name of the first row where both
// identifiers match exactly. Returns ErrDisplayNameNotFound when no such row
// exists.
func (idx *Index) ResolveDisplayName(organizationID, sponsorID string) (string, error) {
	entries, err := idx.readAll()
	if err != nil {
		return "", err
	}

	for _, e := range entries {
		if e.OrganizationID == organizationID && e.SponsorID == sponsorID {
			return e.DisplayName, nil
		}
	}
	return "", ErrDisplayNameNotFound
}
