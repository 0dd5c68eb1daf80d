package types

type CollectionKind string

const (
	KindAuth CollectionKind = "auth"
	KindBase CollectionKind = "base"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldBool     FieldType = "bool"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldJSON     FieldType = "json"
	FieldURL      FieldType = "url"
	FieldFile     FieldType = "file"
	FieldRelation FieldType = "relation"
	FieldSelect   FieldType = "select"
)

// CollectionDefinition is the payload PocketBase accepts on collection create.
type CollectionDefinition struct {
	Name   string         `json:"name" yaml:"name"`
	Kind   CollectionKind `json:"type" yaml:"type"`
	Fields []FieldSpec    `json:"schema" yaml:"schema"`
}

type FieldSpec struct {
	Name     string       `json:"name" yaml:"name"`
	Type     FieldType    `json:"type" yaml:"type"`
	Required bool         `json:"required,omitempty" yaml:"required,omitempty"`
	Options  FieldOptions `json:"options" yaml:"options,omitempty"`
}

// FieldOptions holds the type-specific constraints. Only set keys are encoded.
type FieldOptions struct {
	Min          *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max          *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	MaxSelect    *int     `json:"maxSelect,omitempty" yaml:"maxSelect,omitempty"`
	MaxSize      *int64   `json:"maxSize,omitempty" yaml:"maxSize,omitempty"`
	Values       []string `json:"values,omitempty" yaml:"values,omitempty"`
	CollectionID string   `json:"collectionId,omitempty" yaml:"collectionId,omitempty"`
	Default      any      `json:"default,omitempty" yaml:"default,omitempty"`
}

// Relations returns the collection names referenced by relation fields, in field order.
func (d CollectionDefinition) Relations() []string {
	var targets []string
	for _, f := range d.Fields {
		if f.Type == FieldRelation && f.Options.CollectionID != "" {
			targets = append(targets, f.Options.CollectionID)
		}
	}
	return targets
}

// Without returns a copy of the definition minus the named fields.
func (d CollectionDefinition) Without(names ...string) CollectionDefinition {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := CollectionDefinition{Name: d.Name, Kind: d.Kind}
	for _, f := range d.Fields {
		if !skip[f.Name] {
			out.Fields = append(out.Fields, f)
		}
	}
	return out
}

type CollectionStatus string

const (
	CollectionCreated CollectionStatus = "created"
	CollectionExists  CollectionStatus = "exists"
	CollectionPartial CollectionStatus = "partial"
	CollectionFailed  CollectionStatus = "failed"
)

// CollectionOutcome is the per-collection result of a reconcile run.
type CollectionOutcome struct {
	Name     string
	Status   CollectionStatus
	ID       string
	Deferred []string // relation fields added after the initial create
	Err      error
}

type IdentityStatus string

const (
	IdentityCreated   IdentityStatus = "created"
	IdentityElevated  IdentityStatus = "elevated"
	IdentitySatisfied IdentityStatus = "satisfied"
	IdentityFailed    IdentityStatus = "failed"
)

// IdentityOutcome is the per-identity result of a seeding run. TempPassword
// is only set when the account was created in this run.
type IdentityOutcome struct {
	Email        string
	Status       IdentityStatus
	AccountID    string
	Username     string
	TempPassword string
	Err          error
}

func (o IdentityOutcome) OK() bool { return o.Status != IdentityFailed }

func (o CollectionOutcome) OK() bool {
	return o.Status == CollectionCreated || o.Status == CollectionExists
}

// CollectionPresence is a read-only view of one declared collection.
type CollectionPresence struct {
	Name   string
	Exists bool
	ID     string
}

// IdentityState is a read-only view of one configured identity.
type IdentityState struct {
	Email    string
	Found    bool
	Elevated bool
	Err      error
}
