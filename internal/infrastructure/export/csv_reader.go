package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"ReviewPipeline/internal/domain"
)

// ReviewTable is a previously exported review table.
type ReviewTable struct {
	SourceURL string
	Reviews   []domain.NormalizedReview
}

var requiredColumns = []string{"Author", "ReviewURL", "Description", "Rating", "Date"}

// ReadReviews loads a review table written by CSVSink or by an earlier scrape.
// The leading URL line is optional. Unparseable ratings become 0 and blank
// dates become domain.DateUnavailable.
func ReadReviews(path string) (ReviewTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return ReviewTable{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	table, err := DecodeReviews(file)
	if err != nil {
		return ReviewTable{}, fmt.Errorf("read %s: %w", path, err)
	}
	return table, nil
}

// DecodeReviews parses the CSV stream behind ReadReviews.
func DecodeReviews(r io.Reader) (ReviewTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var table ReviewTable
	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return table, errors.New("empty review table")
	}
	if err != nil {
		return table, err
	}

	header := first
	if len(first) == 1 && !strings.EqualFold(strings.TrimSpace(first[0]), "Author") {
		table.SourceURL = strings.TrimSpace(first[0])
		if header, err = reader.Read(); err != nil {
			return table, fmt.Errorf("missing header: %w", err)
		}
	}

	index, err := columnIndex(header)
	if err != nil {
		return table, err
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table, err
		}
		table.Reviews = append(table.Reviews, rowToReview(record, index))
	}
	return table, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	return index, nil
}

func rowToReview(record []string, index map[string]int) domain.NormalizedReview {
	field := func(col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	rating, err := strconv.ParseFloat(strings.TrimSpace(field("Rating")), 64)
	if err != nil {
		rating = 0
	}
	date := strings.TrimSpace(field("Date"))
	if date == "" {
		date = domain.DateUnavailable
	}

	return domain.NormalizedReview{
		RawReview: domain.RawReview{
			Author:      field("Author"),
			SourceURL:   field("ReviewURL"),
			BodyText:    field("Description"),
			RatingValue: rating,
		},
		AbsoluteDate: date,
	}
}
