// Package sqlmap maps record types to table rows through declared field
// lists.
//
// A Mapping names a table and lists its fields in column order. Each field
// is built from an accessor returning a pointer into the record, so no
// attribute lookup happens at run time:
//
//	type Invoice struct {
//		ID    int64
//		Total int32
//		City  string
//	}
//
//	var invoices = sqlmap.New("app_Invoice",
//		sqlmap.ID(func(r *Invoice) *int64 { return &r.ID }),
//		sqlmap.Int32("total", func(r *Invoice) *int32 { return &r.Total }),
//		sqlmap.String("address_city", func(r *Invoice) *string { return &r.City }),
//	)
//
// Mappings are collected in a Registry at startup and looked up by record
// type:
//
//	reg := sqlmap.NewRegistry()
//	sqlmap.MustRegister(reg, invoices)
//	m, _ := sqlmap.Lookup[Invoice](reg)
//	inv, ok, err := m.Get(ctx, tx, 1)
//
// Fields with a Transform convert values on the way in and out of the
// database; UUID, Msgpack and UnixTime are provided.
package sqlmap
