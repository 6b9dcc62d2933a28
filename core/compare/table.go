package compare

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/trezcool/schoolhub/core/school"
)

// Row labels of the comparison table, in display order.
const (
	RowRating     = "Rating"
	RowBoard      = "Board"
	RowAnnualFee  = "Annual Fee"
	RowFacilities = "Facilities"
)

const (
	notAvailable  = "N/A"
	maxFacilities = 5
	currency      = "₹"
)

var printer = message.NewPrinter(language.English)

type (
	// Column identifies one compared school.
	Column struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		City string `json:"city"`
		Slug string `json:"slug"`
	}

	// Row holds one attribute of every compared school, in column order.
	Row struct {
		Label string   `json:"label"`
		Cells []string `json:"cells"`
	}

	// Table is the side-by-side view of the compared schools.
	Table struct {
		Columns []Column `json:"columns"`
		Rows    []Row    `json:"rows"`
	}
)

// BuildTable lays schools out side by side.
func BuildTable(schools []school.School) Table {
	tbl := Table{
		Columns: make([]Column, 0, len(schools)),
		Rows: []Row{
			{Label: RowRating, Cells: make([]string, 0, len(schools))},
			{Label: RowBoard, Cells: make([]string, 0, len(schools))},
			{Label: RowAnnualFee, Cells: make([]string, 0, len(schools))},
			{Label: RowFacilities, Cells: make([]string, 0, len(schools))},
		},
	}

	for _, sch := range schools {
		tbl.Columns = append(tbl.Columns, Column{
			ID:   sch.ID,
			Name: sch.Name(),
			City: sch.City(),
			Slug: sch.Slug(),
		})
		tbl.Rows[0].Cells = append(tbl.Rows[0].Cells, ratingCell(sch))
		tbl.Rows[1].Cells = append(tbl.Rows[1].Cells, orNA(sch.Board()))
		tbl.Rows[2].Cells = append(tbl.Rows[2].Cells, feeCell(sch))
		tbl.Rows[3].Cells = append(tbl.Rows[3].Cells, facilitiesCell(sch))
	}
	return tbl
}

// Row returns the row with the given label.
func (t Table) Row(label string) (Row, bool) {
	for _, r := range t.Rows {
		if r.Label == label {
			return r, true
		}
	}
	return Row{}, false
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func ratingCell(sch school.School) string {
	rating, ok := sch.RatingAverage()
	if !ok {
		return notAvailable
	}
	return strconv.FormatFloat(rating, 'f', 1, 64)
}

// FormatAmount renders an amount in rupees with thousands separators.
func FormatAmount(v float64) string {
	if v == math.Trunc(v) {
		return currency + printer.Sprintf("%d", int64(v))
	}
	return currency + printer.Sprintf("%.2f", v)
}

func feeCell(sch school.School) string {
	minFee, hasMin := sch.MinFee()
	maxFee, hasMax := sch.MaxFee()
	switch {
	case hasMin && hasMax:
		return FormatAmount(minFee) + " - " + FormatAmount(maxFee)
	case hasMin:
		return FormatAmount(minFee)
	case hasMax:
		return FormatAmount(maxFee)
	default:
		return notAvailable
	}
}

func facilitiesCell(sch school.School) string {
	facilities := sch.Facilities()
	if len(facilities) == 0 {
		return notAvailable
	}
	if len(facilities) <= maxFacilities {
		return strings.Join(facilities, ", ")
	}
	return strings.Join(facilities[:maxFacilities], ", ") + " +" + strconv.Itoa(len(facilities)-maxFacilities)
}
