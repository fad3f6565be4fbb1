package di_test

import (
	"reflect"
	"testing"

	"github.com/sghaida/reflectdi/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestKey_Equality verifies keys compare by type, qualifier and optional wrapper.
func TestKey_Equality(t *testing.T) {
	t.Parallel()

	assert.Equal(t, di.KeyFor[*Foo](), di.KeyOf("", typ[*Foo]()))
	assert.NotEqual(t, di.KeyFor[*Foo](), di.QualifiedKeyFor[*Foo]("x"))
	assert.NotEqual(t, di.KeyFor[*Foo](), di.KeyFor[Foo]())
	assert.NotEqual(t, di.KeyFor[*Foo](), di.KeyFor[*Foo]().Optional())

	seen := map[di.Key]int{di.KeyFor[*Foo](): 1}
	assert.Equal(t, 1, seen[di.KeyOf("", reflect.TypeOf(&Foo{}))])
}

// TestKey_OptionalNormalization verifies Optional[X] yields the optional-wrapped key of X.
func TestKey_OptionalNormalization(t *testing.T) {
	t.Parallel()

	k := di.QualifiedKeyFor[di.Optional[*Foo]]("maybe")
	require.True(t, k.IsOptional())
	assert.Equal(t, typ[*Foo](), k.Type())
	assert.Equal(t, "maybe", k.Qualifier())
	assert.Equal(t, di.QualifiedKeyFor[*Foo]("maybe"), k.Unwrap())
	assert.Equal(t, k, di.QualifiedKeyFor[*Foo]("maybe").Optional())
}

// TestKey_String verifies the diagnostic form of keys.
func TestKey_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  di.Key
		want string
	}{
		{key: di.KeyFor[*Foo](), want: "*di_test.Foo"},
		{key: di.QualifiedKeyFor[string]("owner"), want: `@Named("owner") string`},
		{key: di.KeyFor[di.Optional[Greeter]](), want: "Optional[di_test.Greeter]"},
		{key: di.Key{}, want: "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.key.String())
		})
	}
	assert.True(t, di.Key{}.IsZero())
}

// TestOptional_Values verifies Optional accessors and erased conversions.
func TestOptional_Values(t *testing.T) {
	t.Parallel()

	foo := &Foo{ID: 3}
	present := di.Of(foo)
	v, ok := present.Get()
	require.True(t, ok)
	assert.Same(t, foo, v)
	assert.Same(t, foo, present.OrElse(nil))

	empty := di.Empty[*Foo]()
	assert.False(t, empty.Present())
	assert.Equal(t, "Optional.empty", empty.String())

	assert.True(t, di.IsOptionalType(typ[di.Optional[int]]()))
	assert.False(t, di.IsOptionalType(typ[Foo]()))
	assert.False(t, di.IsOptionalType(nil))

	converted, err := di.As[di.Optional[*Foo]](di.Of[any](foo))
	require.NoError(t, err)
	assert.Same(t, foo, converted.OrElse(nil))

	erased := di.ConvertOptional(typ[di.Optional[*Foo]](), di.Optional[any]{})
	assert.False(t, erased.(di.Optional[*Foo]).Present())
	assert.Equal(t, 5, di.ConvertOptional(typ[int](), 5))
}
