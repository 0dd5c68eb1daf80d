package schema

import "github.com/Rana718/pbinit/internal/types"

type fieldOpt func(*types.FieldSpec)

func field(name string, t types.FieldType, opts ...fieldOpt) types.FieldSpec {
	f := types.FieldSpec{Name: name, Type: t}
	for _, o := range opts {
		o(&f)
	}
	return f
}

func text(name string, opts ...fieldOpt) types.FieldSpec   { return field(name, types.FieldText, opts...) }
func boolean(name string, opts ...fieldOpt) types.FieldSpec { return field(name, types.FieldBool, opts...) }
func number(name string, opts ...fieldOpt) types.FieldSpec  { return field(name, types.FieldNumber, opts...) }
func date(name string, opts ...fieldOpt) types.FieldSpec    { return field(name, types.FieldDate, opts...) }
func jsonField(name string) types.FieldSpec                 { return field(name, types.FieldJSON) }
func urlField(name string) types.FieldSpec                  { return field(name, types.FieldURL) }

func file(name string, maxSelect int, maxSize int64) types.FieldSpec {
	return field(name, types.FieldFile, func(f *types.FieldSpec) {
		f.Options.MaxSelect = &maxSelect
		f.Options.MaxSize = &maxSize
	})
}

func relation(name, target string, maxSelect int, opts ...fieldOpt) types.FieldSpec {
	f := field(name, types.FieldRelation, opts...)
	f.Options.CollectionID = target
	f.Options.MaxSelect = &maxSelect
	return f
}

func selectOf(name string, values []string, opts ...fieldOpt) types.FieldSpec {
	f := field(name, types.FieldSelect, opts...)
	f.Options.Values = values
	return f
}

func required() fieldOpt {
	return func(f *types.FieldSpec) { f.Required = true }
}

func minMax(lo, hi float64) fieldOpt {
	return func(f *types.FieldSpec) { f.Options.Min, f.Options.Max = &lo, &hi }
}

func maxOnly(hi float64) fieldOpt {
	return func(f *types.FieldSpec) { f.Options.Max = &hi }
}

func defaults(v any) fieldOpt {
	return func(f *types.FieldSpec) { f.Options.Default = v }
}

func collection(name string, kind types.CollectionKind, fields ...types.FieldSpec) types.CollectionDefinition {
	return types.CollectionDefinition{Name: name, Kind: kind, Fields: fields}
}
