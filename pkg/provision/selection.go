package provision

import (
	"sort"
	"strings"

	"github.com/bruin-data/fivetran-provisioner/pkg/connector"
	"github.com/bruin-data/fivetran-provisioner/pkg/fivetran"
	"github.com/samber/lo"
)

// Selection is the table selection applied to a connection's schema config.
type Selection struct {
	ChangeHandling fivetran.SchemaChangeHandling
	Schemas        map[string]fivetran.SchemaEntry
}

func (s *Selection) SchemaConfig() fivetran.SchemaConfig {
	return fivetran.SchemaConfig{
		SchemaChangeHandling: s.ChangeHandling,
		Schemas:              s.Schemas,
	}
}

// EnabledTables returns the enabled tables as sorted "schema.table" names.
func (s *Selection) EnabledTables() []string {
	return s.tables(true)
}

// DisabledTables returns the explicitly disabled tables as sorted "schema.table" names.
func (s *Selection) DisabledTables() []string {
	return s.tables(false)
}

func (s *Selection) tables(enabled bool) []string {
	if s == nil {
		return nil
	}

	names := make([]string, 0)
	for schemaName, schema := range s.Schemas {
		for tableName, table := range schema.Tables {
			if table.Enabled == enabled {
				names = append(names, schemaName+"."+tableName)
			}
		}
	}
	sort.Strings(names)
	return names
}

// SelectConfiguredTables builds the selection of a capture-capable connection straight from the
// definition. Names are used verbatim, tables default to enabled, and tables the definition does
// not mention are left out so that ALLOW_ALL picks them up.
func SelectConfiguredTables(schemas []connector.Schema) *Selection {
	selected := make(map[string]fivetran.SchemaEntry, len(schemas))
	for _, schema := range schemas {
		tables := make(map[string]fivetran.TableEntry, len(schema.Tables))
		for _, table := range schema.Tables {
			tables[table.Name] = fivetran.TableEntry{Enabled: table.IsEnabled()}
		}
		selected[schema.Name] = fivetran.SchemaEntry{Enabled: true, Tables: tables}
	}

	return &Selection{ChangeHandling: fivetran.AllowAll, Schemas: selected}
}

// SelectDiscoveredTables intersects the discovered tables of a database connection with the tables
// the definition lists, ignoring case. Every discovered table that is not listed, or is listed with
// enabled: false, is disabled.
func SelectDiscoveredTables(discovered map[string]fivetran.SchemaEntry, schemas []connector.Schema) *Selection {
	allowed := lo.SliceToMap(
		lo.FlatMap(schemas, func(schema connector.Schema, _ int) []tableRef {
			return lo.FilterMap(schema.Tables, func(table connector.Table, _ int) (tableRef, bool) {
				return newTableRef(schema.Name, table.Name), table.IsEnabled()
			})
		}),
		func(ref tableRef) (tableRef, struct{}) { return ref, struct{}{} },
	)

	selected := make(map[string]fivetran.SchemaEntry, len(discovered))
	for schemaName, schema := range discovered {
		tables := make(map[string]fivetran.TableEntry, len(schema.Tables))
		for tableName := range schema.Tables {
			_, ok := allowed[newTableRef(schemaName, tableName)]
			tables[tableName] = fivetran.TableEntry{Enabled: ok}
		}
		selected[schemaName] = fivetran.SchemaEntry{Enabled: true, Tables: tables}
	}

	return &Selection{ChangeHandling: fivetran.AllowColumns, Schemas: selected}
}

type tableRef struct {
	schema string
	table  string
}

func newTableRef(schema, table string) tableRef {
	return tableRef{schema: strings.ToUpper(schema), table: strings.ToUpper(table)}
}
