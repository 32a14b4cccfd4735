package capacity

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/reegis/coastdat-cli/internal/fetcher"
)

// AnnualFigures holds one technology/year row of the BMWi renewable-energy
// statistics workbook.
type AnnualFigures struct {
	Technology string
	Year       int
	EnergyGWh  float64
	CapacityMW float64
}

// FullLoadHours derives annual full-load hours from energy and capacity.
func (a AnnualFigures) FullLoadHours() (float64, error) {
	if a.CapacityMW <= 0 {
		return 0, eris.Errorf("capacity: %s %d has no installed capacity", a.Technology, a.Year)
	}
	return a.EnergyGWh / a.CapacityMW * 1000, nil
}

// BMWi provides annual energy and capacity figures per technology.
type BMWi struct {
	figures map[string]map[int]AnnualFigures
}

// NewBMWi builds the figure table from in-memory rows.
func NewBMWi(rows []AnnualFigures) *BMWi {
	b := &BMWi{figures: make(map[string]map[int]AnnualFigures)}
	for _, f := range rows {
		tech := strings.ToLower(f.Technology)
		if b.figures[tech] == nil {
			b.figures[tech] = make(map[int]AnnualFigures)
		}
		b.figures[tech][f.Year] = f
	}
	return b
}

// Figures returns the row for a technology and year.
func (b *BMWi) Figures(technology string, year int) (AnnualFigures, error) {
	years, ok := b.figures[strings.ToLower(technology)]
	if !ok {
		return AnnualFigures{}, eris.Errorf("capacity: no BMWi figures for technology %q", technology)
	}
	f, ok := years[year]
	if !ok {
		return AnnualFigures{}, eris.Errorf("capacity: no BMWi figures for %s in %d", technology, year)
	}
	return f, nil
}

// LoadBMWi reads the statistics workbook. The sheet layout is one row per
// (technology, year): technology, year, energy in GWh, capacity in MW.
// Rows with an empty technology cell are skipped (section separators).
func LoadBMWi(path, sheetName string) (*BMWi, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{
		SheetName: sheetName,
		SkipRows:  1,
	})
	if err != nil {
		return nil, err
	}

	b := &BMWi{figures: make(map[string]map[int]AnnualFigures)}
	for i, row := range rows {
		if len(row) < 4 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, eris.Wrapf(err, "capacity: bad year in BMWi row %d", i+2)
		}
		energy, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "capacity: bad energy in BMWi row %d", i+2)
		}
		mw, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "capacity: bad capacity in BMWi row %d", i+2)
		}

		tech := strings.ToLower(strings.TrimSpace(row[0]))
		if b.figures[tech] == nil {
			b.figures[tech] = make(map[int]AnnualFigures)
		}
		b.figures[tech][year] = AnnualFigures{
			Technology: tech,
			Year:       year,
			EnergyGWh:  energy,
			CapacityMW: mw,
		}
	}

	if len(b.figures) == 0 {
		return nil, eris.Errorf("capacity: no usable rows in %s", path)
	}
	return b, nil
}
