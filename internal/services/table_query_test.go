package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pglens/internal/models"
)

func TestBuildTableQuery_ResolvesLabelColumn(t *testing.T) {
	q := BuildTableQuery(shopSnapshot(), "public", "orders", DefaultTableQueryOptions())

	assert.Equal(t,
		`SELECT "orders"."id" AS "id", `+
			`"customers_orders"."name" AS "customer_id_customers_orders_name", `+
			`"orders"."warehouse_id" AS "warehouse_id", `+
			`"orders"."created_at" AS "created_at" `+
			`FROM "orders" `+
			`LEFT JOIN "public"."customers" "customers_orders" ON "orders"."customer_id" = "customers_orders"."id" `+
			`LIMIT 100`,
		q.SQL)

	assert.Equal(t, map[string]models.TableDataColInfo{
		"id":           {Type: "integer"},
		"customer_id":  {Type: "character varying", IsForeign: true},
		"warehouse_id": {Type: "integer"},
		"created_at":   {Type: "timestamp with time zone"},
	}, q.ColInfo)
	assert.Len(t, q.Joins, 1)
	assert.Empty(t, q.Unresolved)
}

func TestBuildTableQuery_LabelTieBreak(t *testing.T) {
	tests := []struct {
		name       string
		referenced []string
		want       string
	}{
		{"declaration order wins", []string{"id", "code", "name", "description"}, "name"},
		{"first of any hint", []string{"id", "kind_type", "display_name"}, "kind_type"},
		{"text hint", []string{"id", "body_text", "title_name"}, "body_text"},
		{"case and whitespace insensitive", []string{"id", " Full_NAME "}, " Full_NAME "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := make([]models.ColumnInfo, 0, len(tt.referenced))
			for _, c := range tt.referenced {
				cols = append(cols, col("public", "refs", c, "text"))
			}

			got, ok := findLabelColumn(cols)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestBuildTableQuery_NoLabelColumnFallsBack(t *testing.T) {
	snap := &models.Snapshot{
		Tables: []models.TableInfo{{Schema: "public", Name: "items"}, {Schema: "public", Name: "lookups"}},
		Columns: []models.ColumnInfo{
			col("public", "lookups", "id", "integer"),
			col("public", "lookups", "value", "integer"),
			col("public", "items", "id", "integer"),
			col("public", "items", "lookup_id", "integer"),
		},
		ForeignKeys: []models.ForeignKeyInfo{fk("items", "lookup_id", "lookups", "id")},
	}

	q := BuildTableQuery(snap, "public", "items", DefaultTableQueryOptions())

	assert.Equal(t, `SELECT "items"."id" AS "id", "items"."lookup_id" AS "lookup_id" FROM "items" LIMIT 100`, q.SQL)
	assert.NotContains(t, q.SQL, "JOIN")
	assert.False(t, q.ColInfo["lookup_id"].IsForeign)
	assert.Equal(t, "integer", q.ColInfo["lookup_id"].Type)
	assert.Empty(t, q.Unresolved)
}

func TestBuildTableQuery_ResolutionDisabled(t *testing.T) {
	q := BuildTableQuery(shopSnapshot(), "public", "orders", TableQueryOptions{ResolveForeignKeys: false})

	assert.NotContains(t, q.SQL, "JOIN")
	assert.Contains(t, q.SQL, `"orders"."customer_id" AS "customer_id"`)
	for name, info := range q.ColInfo {
		assert.False(t, info.IsForeign, name)
	}
}

func TestBuildTableQuery_EmptyColumnsDegrade(t *testing.T) {
	q := BuildTableQuery(shopSnapshot(), "public", "ghost", DefaultTableQueryOptions())

	assert.Equal(t, `SELECT * FROM "ghost" LIMIT 100`, q.SQL)
	assert.Empty(t, q.Joins)
	assert.Empty(t, q.ColInfo)

	q = BuildTableQuery(nil, "public", "ghost", DefaultTableQueryOptions())
	assert.Equal(t, `SELECT * FROM "ghost" LIMIT 100`, q.SQL)
}

func TestBuildTableQuery_SingleRowCap(t *testing.T) {
	snap := shopSnapshot()
	for _, tbl := range append(snap.Tables, models.TableInfo{Schema: "public", Name: "ghost"}) {
		for _, resolve := range []bool{true, false} {
			q := BuildTableQuery(snap, tbl.Schema, tbl.Name, TableQueryOptions{ResolveForeignKeys: resolve})
			assert.Equal(t, 1, strings.Count(q.SQL, "LIMIT"), q.SQL)
			assert.True(t, strings.HasSuffix(q.SQL, " LIMIT 100"), q.SQL)
		}
	}
}

func TestBuildTableQuery_Idempotent(t *testing.T) {
	snap := shopSnapshot()
	first := BuildTableQuery(snap, "public", "orders", DefaultTableQueryOptions())
	second := BuildTableQuery(snap, "public", "orders", DefaultTableQueryOptions())

	assert.Equal(t, first.SQL, second.SQL)
	assert.Equal(t, first.ColInfo, second.ColInfo)
}

func TestBuildTableQuery_SelfReference(t *testing.T) {
	q := BuildTableQuery(shopSnapshot(), "public", "employees", DefaultTableQueryOptions())

	assert.Equal(t,
		`SELECT "employees"."id" AS "id", `+
			`"employees"."full_name" AS "full_name", `+
			`"employees_employees"."full_name" AS "manager_id_employees_employees_name" `+
			`FROM "employees" `+
			`LEFT JOIN "public"."employees" "employees_employees" ON "employees"."manager_id" = "employees_employees"."id" `+
			`LIMIT 100`,
		q.SQL)
	assert.True(t, q.ColInfo["manager_id"].IsForeign)
}

func TestBuildTableQuery_AliasCollision(t *testing.T) {
	snap := &models.Snapshot{
		Tables: []models.TableInfo{{Schema: "public", Name: "shipments"}, {Schema: "public", Name: "places"}},
		Columns: []models.ColumnInfo{
			col("public", "places", "id", "integer"),
			col("public", "places", "place_name", "text"),
			col("public", "shipments", "id", "integer"),
			col("public", "shipments", "origin_id", "integer"),
			col("public", "shipments", "destination_id", "integer"),
		},
		ForeignKeys: []models.ForeignKeyInfo{
			fk("shipments", "origin_id", "places", "id"),
			fk("shipments", "destination_id", "places", "id"),
		},
	}

	q := BuildTableQuery(snap, "public", "shipments", DefaultTableQueryOptions())

	require.Len(t, q.Joins, 2)
	assert.Equal(t, `LEFT JOIN "public"."places" "places_shipments" ON "shipments"."origin_id" = "places_shipments"."id"`, q.Joins[0])
	assert.Equal(t, `LEFT JOIN "public"."places" "places_shipments_destination_id" ON "shipments"."destination_id" = "places_shipments_destination_id"."id"`, q.Joins[1])
	assert.Contains(t, q.SQL, `"places_shipments"."place_name" AS "origin_id_places_shipments_name"`)
	assert.Contains(t, q.SQL, `"places_shipments_destination_id"."place_name" AS "destination_id_places_shipments_destination_id_name"`)
}

func TestJoinAlias(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "places_shipments", joinAlias(used, "places", "shipments", "origin_id"))
	assert.Equal(t, "places_shipments_origin_id", joinAlias(used, "places", "shipments", "origin_id"))
	assert.Equal(t, "places_shipments_origin_id_2", joinAlias(used, "places", "shipments", "origin_id"))
}

func TestBuildTableQuery_UnresolvedReference(t *testing.T) {
	snap := &models.Snapshot{
		Tables: []models.TableInfo{{Schema: "public", Name: "orders"}},
		Columns: []models.ColumnInfo{
			col("public", "orders", "id", "integer"),
			col("public", "orders", "customer_id", "integer"),
		},
		ForeignKeys: []models.ForeignKeyInfo{fk("orders", "customer_id", "customers", "id")},
	}

	q := BuildTableQuery(snap, "public", "orders", DefaultTableQueryOptions())

	assert.Equal(t, `SELECT "orders"."id" AS "id", "orders"."customer_id" AS "customer_id" FROM "orders" LIMIT 100`, q.SQL)
	assert.Equal(t, []string{"customer_id"}, q.Unresolved)
	assert.False(t, q.ColInfo["customer_id"].IsForeign)
}

func TestBuildTableQuery_StrictQuoting(t *testing.T) {
	snap := shopSnapshot()
	plain := BuildTableQuery(snap, "public", "orders", DefaultTableQueryOptions())
	strict := BuildTableQuery(snap, "public", "orders", TableQueryOptions{ResolveForeignKeys: true, StrictQuoting: true})
	assert.Equal(t, plain.SQL, strict.SQL)

	weird := &models.Snapshot{
		Tables:  []models.TableInfo{{Schema: "public", Name: `we"ird`}},
		Columns: []models.ColumnInfo{col("public", `we"ird`, "id", "integer")},
	}

	loose := BuildTableQuery(weird, "public", `we"ird`, DefaultTableQueryOptions())
	assert.Equal(t, `SELECT "we"ird"."id" AS "id" FROM "we"ird" LIMIT 100`, loose.SQL)

	hardened := BuildTableQuery(weird, "public", `we"ird`, TableQueryOptions{StrictQuoting: true})
	assert.Equal(t, `SELECT "we""ird"."id" AS "id" FROM "we""ird" LIMIT 100`, hardened.SQL)
}
