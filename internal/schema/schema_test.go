package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Rana718/pbinit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(defs []types.CollectionDefinition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Name)
	}
	return out
}

func stepNames(steps []Step) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Definition.Name)
	}
	return out
}

func TestBuiltin(t *testing.T) {
	defs := Builtin()

	assert.Equal(t, []string{
		"users", "audit_logs", "api_keys", "friends", "messages", "classifieds",
		"events", "media", "credits", "worlds", "learning_progress", "beta_access",
	}, names(defs))
	require.NoError(t, Validate(defs))

	users := defs[0]
	assert.Equal(t, types.KindAuth, users.Kind)
	assert.Equal(t, "username", users.Fields[0].Name)
	assert.True(t, users.Fields[0].Required)
	assert.Equal(t, 3.0, *users.Fields[0].Options.Min)
	assert.Equal(t, 50.0, *users.Fields[0].Options.Max)

	t.Run("returns independent copies", func(t *testing.T) {
		a := Builtin()
		a[0].Fields = nil
		assert.NotEmpty(t, Builtin()[0].Fields)
	})
}

func TestValidate(t *testing.T) {
	t.Run("reports duplicate fields and unknown relation targets", func(t *testing.T) {
		defs := []types.CollectionDefinition{
			collection("posts", types.KindBase,
				text("title"),
				text("title"),
				relation("author", "authors", 1),
			),
		}
		err := Validate(defs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate field "title"`)
		assert.Contains(t, err.Error(), `relation target "authors" is not declared`)
	})

	t.Run("accepts targets that already exist remotely", func(t *testing.T) {
		defs := []types.CollectionDefinition{
			collection("posts", types.KindBase, relation("author", "users", 1)),
		}
		assert.NoError(t, Validate(defs, "users"))
	})

	t.Run("accepts self references", func(t *testing.T) {
		defs := []types.CollectionDefinition{messagesCollection(), usersCollection()}
		assert.NoError(t, Validate(defs))
	})

	t.Run("rejects duplicate collections and bad types", func(t *testing.T) {
		defs := []types.CollectionDefinition{
			collection("a", types.KindBase),
			collection("A", "view", field("x", "geo")),
			collection("b", types.KindBase, field("s", types.FieldSelect)),
		}
		err := Validate(defs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate collection "A"`)
		assert.Contains(t, err.Error(), `unknown type "view"`)
		assert.Contains(t, err.Error(), `unknown field type "geo"`)
		assert.Contains(t, err.Error(), "select without values")
	})
}

func TestBuildCreationOrder(t *testing.T) {
	t.Run("keeps declaration order when it is valid", func(t *testing.T) {
		defs := []types.CollectionDefinition{
			usersCollection(), auditLogsCollection(), apiKeysCollection(),
		}
		steps := NewDependencyGraph(defs).BuildCreationOrder()
		assert.Equal(t, []string{"users", "audit_logs", "api_keys"}, stepNames(steps))
		for _, s := range steps {
			assert.Empty(t, s.Deferred)
		}
	})

	t.Run("moves forward references after their target", func(t *testing.T) {
		defs := []types.CollectionDefinition{auditLogsCollection(), usersCollection()}
		steps := NewDependencyGraph(defs).BuildCreationOrder()
		assert.Equal(t, []string{"users", "audit_logs"}, stepNames(steps))
	})

	t.Run("plans the built-in set", func(t *testing.T) {
		steps := Plan(Builtin(), "dependency")

		assert.Equal(t, []string{
			"users", "audit_logs", "api_keys", "friends", "messages", "classifieds",
			"events", "media", "learning_progress", "beta_access", "credits", "worlds",
		}, stepNames(steps))

		deferred := map[string][]string{}
		for _, s := range steps {
			if len(s.Deferred) > 0 {
				deferred[s.Definition.Name] = s.Deferred
			}
		}
		assert.Equal(t, map[string][]string{
			"messages": {"reply_to"},
			"credits":  {"world_id"},
		}, deferred)
	})

	t.Run("initial payload drops deferred fields only", func(t *testing.T) {
		step := Step{Definition: messagesCollection(), Deferred: []string{"reply_to"}}
		initial := step.Initial()
		assert.Len(t, initial.Fields, len(step.Definition.Fields)-1)
		for _, f := range initial.Fields {
			assert.NotEqual(t, "reply_to", f.Name)
		}
		assert.Len(t, step.Definition.Fields, 7)
	})

	t.Run("declared order never defers", func(t *testing.T) {
		steps := Plan(Builtin(), "declared")
		assert.Equal(t, names(Builtin()), stepNames(steps))
		for _, s := range steps {
			assert.Empty(t, s.Deferred)
		}
	})

	t.Run("ignores relations to collections outside the set", func(t *testing.T) {
		defs := []types.CollectionDefinition{
			collection("posts", types.KindBase, relation("author", "users", 1)),
		}
		steps := NewDependencyGraph(defs).BuildCreationOrder()
		require.Len(t, steps, 1)
		assert.Empty(t, steps[0].Deferred)
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads JSON", func(t *testing.T) {
		path := filepath.Join(dir, "collections.json")
		content := `{"collections": [
  {"name": "users", "type": "auth", "schema": [{"name": "role", "type": "text", "options": {"default": "user"}}]},
  {"name": "posts", "type": "base", "schema": [
    {"name": "author", "type": "relation", "required": true, "options": {"collectionId": "users", "maxSelect": 1}}
  ]}
]}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		defs, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"users", "posts"}, names(defs))
		assert.Equal(t, "user", defs[0].Fields[0].Options.Default)
		assert.Equal(t, 1, *defs[1].Fields[0].Options.MaxSelect)
	})

	t.Run("reads a YAML list", func(t *testing.T) {
		path := filepath.Join(dir, "collections.yaml")
		content := `- name: tags
  type: base
  schema:
    - name: label
      type: text
      required: true
      options:
        min: 1
        max: 40
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		defs, err := LoadFile(path)
		require.NoError(t, err)
		require.Len(t, defs, 1)
		assert.Equal(t, 40.0, *defs[0].Fields[0].Options.Max)
	})

	t.Run("rejects invalid definitions", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		content := `[{"name": "posts", "type": "base", "schema": [{"name": "a", "type": "relation", "options": {"collectionId": "nope"}}]}]`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("rejects an empty document", func(t *testing.T) {
		path := filepath.Join(dir, "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"collections": []}`), 0644))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("falls back to the built-in set", func(t *testing.T) {
		defs, err := Load("")
		require.NoError(t, err)
		assert.Len(t, defs, 12)
	})
}
