package sqlmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customer struct {
	ID   int64
	Name string
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, Register(reg, invoiceMapping()))
	customers := New("app_Customer",
		ID(func(r *customer) *int64 { return &r.ID }),
		String("name", func(r *customer) *string { return &r.Name }),
	)
	MustRegister(reg, customers)

	m, ok := Lookup[customer](reg)
	require.True(t, ok)
	assert.Same(t, customers, m)
	_, err := For[invoice](reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"app_Customer", "app_Invoice"}, reg.Tables())

	err = Register(reg, invoiceMapping())
	require.EqualError(t, err, "sqlmap: sqlmap.invoice is already registered")

	type other struct{ ID int64 }
	err = Register(reg, New("app_Customer", ID(func(r *other) *int64 { return &r.ID })))
	require.EqualError(t, err, "sqlmap: table app_Customer is already mapped to sqlmap.customer")

	_, ok = Lookup[other](reg)
	assert.False(t, ok)
	_, err = For[other](reg)
	require.Error(t, err)
}

func TestRegistry_Validate(t *testing.T) {
	reg := NewRegistry()
	err := Register(reg, New("", ID(func(r *customer) *int64 { return &r.ID })))
	require.EqualError(t, err, "sqlmap: mapping has no table name")

	err = Register(reg, New("app_Customer", String("name", func(r *customer) *string { return &r.Name })))
	require.EqualError(t, err, "sqlmap: mapping app_Customer has no id field")

	err = Register(reg, New("app_Customer",
		ID(func(r *customer) *int64 { return &r.ID }),
		String("name", func(r *customer) *string { return &r.Name }),
		String("name", func(r *customer) *string { return &r.Name }),
	))
	require.EqualError(t, err, `sqlmap: mapping app_Customer declares column "name" twice`)
	assert.Panics(t, func() { MustRegister(reg, New[customer]("x")) })
	assert.Empty(t, reg.Tables())
}
