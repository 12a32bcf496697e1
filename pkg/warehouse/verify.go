package warehouse

import (
	"context"
	"strings"

	"github.com/bruin-data/fivetran-provisioner/pkg/connector"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type TableLister interface {
	LandedTables(ctx context.Context, schemaPrefix string) ([]LandedTable, error)
}

// Expectation is what a connector definition should have produced in the warehouse.
type Expectation struct {
	Connector    string
	SchemaPrefix string
	// Tables are upper-cased table names, empty when the definition keeps the default selection.
	Tables []string
}

func Expect(def *connector.Definition) Expectation {
	tables := lo.FlatMap(def.Schemas, func(s connector.Schema, _ int) []string {
		return lo.FilterMap(s.Tables, func(t connector.Table, _ int) (string, bool) {
			return strings.ToUpper(t.Name), t.IsEnabled()
		})
	})

	return Expectation{
		Connector:    def.DisplayName(),
		SchemaPrefix: strings.ToLower(def.Destination.Schema),
		Tables:       lo.Uniq(tables),
	}
}

type Report struct {
	Connector    string        `json:"connector"`
	SchemaPrefix string        `json:"schema_prefix"`
	Landed       []LandedTable `json:"landed"`
	Missing      []string      `json:"missing"`
}

func (r Report) OK() bool {
	return len(r.Landed) > 0 && len(r.Missing) == 0
}

// Verify checks every expectation against the tables found in the warehouse.
func Verify(ctx context.Context, lister TableLister, expectations []Expectation) ([]Report, error) {
	reports := make([]Report, 0, len(expectations))
	for _, e := range expectations {
		landed, err := lister.LandedTables(ctx, e.SchemaPrefix)
		if err != nil {
			return reports, errors.Wrapf(err, "failed to verify connector '%s'", e.Connector)
		}

		names := lo.SliceToMap(landed, func(t LandedTable) (string, struct{}) {
			return strings.ToUpper(t.Name), struct{}{}
		})
		missing := lo.Filter(e.Tables, func(name string, _ int) bool {
			_, ok := names[name]
			return !ok
		})

		reports = append(reports, Report{
			Connector:    e.Connector,
			SchemaPrefix: e.SchemaPrefix,
			Landed:       landed,
			Missing:      missing,
		})
	}

	return reports, nil
}
