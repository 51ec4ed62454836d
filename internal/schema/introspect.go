package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/dbsample/internal/logger"
)

// Introspector reads table, column, primary key and foreign key metadata
// from a Postgres source database via information_schema.
type Introspector struct {
	db         *sql.DB
	schemaName string
	logger     *logger.Logger
}

// NewIntrospector creates an introspector for the given connection.
// schemaName defaults to "public" when empty.
func NewIntrospector(db *sql.DB, schemaName string, log *logger.Logger) (*Introspector, error) {
	if db == nil {
		return nil, fmt.Errorf("source database is nil")
	}
	if schemaName == "" {
		schemaName = "public"
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Introspector{db: db, schemaName: schemaName, logger: log}, nil
}

const columnsQuery = `
SELECT c.table_name, c.column_name, c.data_type, c.is_nullable, c.ordinal_position
FROM information_schema.columns c
JOIN information_schema.tables t
  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
WHERE c.table_schema = $1
  AND t.table_type = 'BASE TABLE'
ORDER BY c.table_name, c.ordinal_position`

const primaryKeysQuery = `
SELECT tc.table_name, kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name
 AND kcu.constraint_schema = tc.constraint_schema
WHERE tc.constraint_type = 'PRIMARY KEY'
  AND tc.table_schema = $1
ORDER BY tc.table_name, kcu.ordinal_position`

// Pairs child and parent columns positionally via
// position_in_unique_constraint, so composite keys come out aligned.
const foreignKeysQuery = `
SELECT rc.constraint_name,
       child.table_name,
       child.column_name,
       parent.table_name,
       parent.column_name
FROM information_schema.referential_constraints rc
JOIN information_schema.key_column_usage child
  ON child.constraint_name = rc.constraint_name
 AND child.constraint_schema = rc.constraint_schema
JOIN information_schema.key_column_usage parent
  ON parent.constraint_name = rc.unique_constraint_name
 AND parent.constraint_schema = rc.unique_constraint_schema
 AND parent.ordinal_position = child.position_in_unique_constraint
WHERE rc.constraint_schema = $1
ORDER BY rc.constraint_name, child.ordinal_position`

// Load reads the complete metadata for the configured schema.
func (in *Introspector) Load(ctx context.Context) (*Metadata, error) {
	in.logger.Infow("Introspecting source database", "schema", in.schemaName)

	tables, err := in.loadTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect tables: %w", err)
	}

	meta := &Metadata{Tables: tables}

	if err := in.loadPrimaryKeys(ctx, meta); err != nil {
		return nil, fmt.Errorf("failed to introspect primary keys: %w", err)
	}

	fks, err := in.loadForeignKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect foreign keys: %w", err)
	}
	meta.ForeignKeys = fks

	in.logger.Infow("Introspection complete",
		"tables", len(meta.Tables),
		"foreign_keys", len(meta.ForeignKeys),
	)

	return meta, nil
}

func (in *Introspector) loadTables(ctx context.Context) ([]Table, error) {
	rows, err := in.db.QueryContext(ctx, columnsQuery, in.schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	index := make(map[string]int)

	for rows.Next() {
		var (
			tableName, columnName, dataType, isNullable string
			position                                    int
		)
		if err := rows.Scan(&tableName, &columnName, &dataType, &isNullable, &position); err != nil {
			return nil, fmt.Errorf("failed to scan column row: %w", err)
		}

		i, exists := index[tableName]
		if !exists {
			tables = append(tables, Table{Schema: in.schemaName, Name: tableName})
			i = len(tables) - 1
			index[tableName] = i
		}

		tables[i].Columns = append(tables[i].Columns, Column{
			Name:     columnName,
			DataType: dataType,
			Nullable: isNullable == "YES",
			Position: position,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tables, nil
}

func (in *Introspector) loadPrimaryKeys(ctx context.Context, meta *Metadata) error {
	rows, err := in.db.QueryContext(ctx, primaryKeysQuery, in.schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, columnName string
		if err := rows.Scan(&tableName, &columnName); err != nil {
			return fmt.Errorf("failed to scan primary key row: %w", err)
		}

		if t, ok := meta.Table(tableName); ok {
			t.PrimaryKey = append(t.PrimaryKey, columnName)
		}
	}
	return rows.Err()
}

func (in *Introspector) loadForeignKeys(ctx context.Context) ([]ForeignKey, error) {
	rows, err := in.db.QueryContext(ctx, foreignKeysQuery, in.schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKey
	index := make(map[string]int)

	for rows.Next() {
		var constraint, childTable, childColumn, parentTable, parentColumn string
		if err := rows.Scan(&constraint, &childTable, &childColumn, &parentTable, &parentColumn); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key row: %w", err)
		}

		i, exists := index[constraint]
		if !exists {
			fks = append(fks, ForeignKey{
				ConstraintName: constraint,
				ChildTable:     childTable,
				ParentTable:    parentTable,
			})
			i = len(fks) - 1
			index[constraint] = i
		}

		fks[i].ChildColumns = append(fks[i].ChildColumns, childColumn)
		fks[i].ParentColumns = append(fks[i].ParentColumns, parentColumn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return fks, nil
}
