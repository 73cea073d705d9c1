package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogAddTable(t *testing.T) {
	c := NewCatalog()

	require.NoError(t, c.AddTable(NewTable("users", Columns("id", "name"), PrimaryKey("id"))))
	assert.NotNil(t, c.Table("users"))
	assert.Nil(t, c.Table("nope"))

	var cfgErr *ConfigurationError
	err := c.AddTable(NewTable("users"))
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "already registered")

	require.ErrorAs(t, c.AddTable(NewTable("")), &cfgErr)
}

func TestCatalogFreezeRejectsRegistration(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.AddTable(NewTable("users")))

	c.Freeze()
	assert.True(t, c.Frozen())

	var cfgErr *ConfigurationError
	require.ErrorAs(t, c.AddTable(NewTable("orders")), &cfgErr)
	require.ErrorAs(t, c.AddRelation("users", "orders", Many{Target: "orders"}), &cfgErr)
	require.ErrorAs(t, c.OnPreInsert("users", func(Row) error { return nil }), &cfgErr)
	require.ErrorAs(t, c.OnPostLoad("users", func(Row) error { return nil }), &cfgErr)

	// Reads still work.
	assert.NotNil(t, c.Table("users"))
}

func TestCatalogAddRelation(t *testing.T) {
	c := NewCatalog()

	require.NoError(t, c.AddRelation("users", "posts", Many{Target: "posts"}))

	r, ok := c.Relation("users", "posts")
	require.True(t, ok)
	assert.IsType(t, Many{}, r)

	_, ok = c.Relation("users", "missing")
	assert.False(t, ok)

	var cfgErr *ConfigurationError
	err := c.AddRelation("users", "posts", One{Target: "posts"})
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "already registered")

	require.ErrorAs(t, c.AddRelation("", "posts", Many{Target: "posts"}), &cfgErr)
	require.ErrorAs(t, c.AddRelation("users", "", Many{Target: "posts"}), &cfgErr)
}

func TestRelationValidation(t *testing.T) {
	bad := []Relation{
		One{},
		One{Target: "profiles", Fields: []string{"a", "b"}, References: []string{"a"}},
		Many{},
		Many{Target: "posts", Fields: []string{"a"}, References: []string{"x", "y"}},
		Many{Target: "posts", Fields: []string{"a", "b"}, References: []string{"x"}},
		ManyToMany{Target: "tags"},
		ManyToMany{Target: "tags", Through: "post_tags"},
		ManyToMany{
			Target: "tags", Through: "post_tags",
			ThroughFields: []string{"post_id"}, TargetFields: []string{"tag_id"},
			TargetReferences: []string{"id", "extra"},
		},
		PolymorphicOne{},
		PolymorphicOne{TypeColumn: "subject_type", IDColumn: "subject_id"},
		PolymorphicMany{},
		PolymorphicMany{Target: "comments", TypeColumn: "subject_type", IDColumn: "subject_id"},
		PolymorphicMany{
			Target: "comments", TypeColumn: "subject_type", IDColumn: "subject_id",
			TypeValue: "post", References: []string{"a", "b"},
		},
	}
	c := NewCatalog()
	for i, r := range bad {
		var cfgErr *ConfigurationError
		assert.ErrorAs(t, c.AddRelation("src", "rel", r), &cfgErr, "case #%d", i)
	}

	good := []Relation{
		One{Target: "profiles"},
		One{Target: "profiles", References: []string{"owner_id"}}, // fields default to the source key
		Many{Target: "posts", References: []string{"user_id"}},
		ManyToMany{
			Target: "tags", Through: "post_tags",
			ThroughFields: []string{"post_id"}, TargetFields: []string{"tag_id"},
		},
		PolymorphicOne{
			TypeColumn: "subject_type", IDColumn: "subject_id",
			Targets: map[string]string{"post": "posts"},
		},
		PolymorphicMany{
			Target: "comments", TypeColumn: "subject_type",
			IDColumn: "subject_id", TypeValue: "post",
		},
	}
	for i, r := range good {
		assert.NoError(t, c.AddRelation("src", "rel"+string(rune('a'+i)), r), "case #%d", i)
	}
}

func TestInferForeignKey(t *testing.T) {
	assert.Equal(t, "user_id", inferForeignKey("users"))
	assert.Equal(t, "post_id", inferForeignKey("posts"))
	// Only a trailing "s" is stripped.
	assert.Equal(t, "person_id", inferForeignKey("person"))
}

func TestCatalogPrimaryKeyDefault(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.AddTable(NewTable("memberships", PrimaryKey("user_id", "org_id"))))

	assert.Equal(t, []string{"user_id", "org_id"}, c.primaryKey("memberships"))
	assert.Equal(t, []string{"id"}, c.primaryKey("unknown"))
}
