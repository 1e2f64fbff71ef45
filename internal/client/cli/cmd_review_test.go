package cli

import (
	"testing"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewAddAndList(t *testing.T) {
	env := newEnv(t)
	alice := env.signUp("alice@example.com", "Alice")

	r := env.addReview("--address", "12 rue de la Paix, Paris", "--category", "Bakery", "--note", "4", "--comment", "bon")
	assert.Equal(t, "12 rue de la Paix", r.Name)
	assert.Equal(t, models.CategoryBakery, r.Category)
	assert.Equal(t, alice.ID, r.UserID)
	assert.Equal(t, "Alice", r.UserFirstname)
	require.NotNil(t, r.Lat)
	assert.InDelta(t, 48.85, *r.Lat, 1e-9)

	rs := env.listReviews()
	require.Len(t, rs, 1)
	assert.Equal(t, r.ID, rs[0].ID)

	out := env.mustRun("review", "list")
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "AUTHOR")
	assert.Contains(t, out, "green")
	assert.Contains(t, out, "Alice")
}

func TestReviewAddCommentFromStdin(t *testing.T) {
	env := newEnv(t)

	r := env.runStdin("ligne 1\nligne 2\n\n", "--json", "review", "add", "--lat", "1", "--lng", "2", "--comment", "-")
	require.Equal(t, ExitCodeSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, `"comment": "ligne 1\nligne 2"`)
}

func TestReviewAddInvalidCoordinates(t *testing.T) {
	env := newEnv(t)

	r := env.run("review", "add", "--name", "Chez Paul")
	assert.Equal(t, ExitCodeValidation, r.code)
	assert.Contains(t, r.stderr, "invalid coordinates")

	r = env.run("review", "add", "--lat", "north", "--lng", "2")
	assert.Equal(t, ExitCodeValidation, r.code)
}

func TestReviewListFilters(t *testing.T) {
	env := newEnv(t)
	alice := env.signUp("alice@example.com", "Alice")
	env.addReview("--name", "A", "--category", "snack")
	env.signUp("bob@example.com", "Bob")
	env.addReview("--name", "B", "--category", "bakery")

	mine := env.listReviews("--mine")
	require.Len(t, mine, 1)
	assert.Equal(t, "B", mine[0].Name)

	byUser := env.listReviews("--user", alice.ID)
	require.Len(t, byUser, 1)
	assert.Equal(t, "A", byUser[0].Name)

	snacks := env.listReviews("--category", "SNACK")
	require.Len(t, snacks, 1)
	assert.Equal(t, "A", snacks[0].Name)

	assert.Len(t, env.listReviews(), 2)

	env.mustRun("user", "signout")
	r := env.run("review", "list", "--mine")
	assert.Equal(t, ExitCodeAuthFailed, r.code)
}

func TestReviewUpdateAndDelete(t *testing.T) {
	env := newEnv(t)
	env.signUp("alice@example.com", "Alice")
	r := env.addReview("--name", "Chez Paul", "--note", "5")

	out := env.mustRun("review", "update", r.ID, "--note", "3", "--category", "snack")
	assert.Contains(t, out, r.ID)

	rs := env.listReviews()
	require.Len(t, rs, 1)
	assert.Equal(t, 3.0, rs[0].Note)
	assert.Equal(t, models.CategorySnack, rs[0].Category)
	assert.Equal(t, "Chez Paul", rs[0].Name)

	res := env.run("review", "update", r.ID, "--lat", "1")
	assert.Equal(t, ExitCodeValidation, res.code)

	env.mustRun("review", "update", r.ID, "--lat", "1", "--lng", "2")
	rs = env.listReviews()
	require.NotNil(t, rs[0].Lng)
	assert.Equal(t, 2.0, *rs[0].Lng)

	env.mustRun("review", "delete", r.ID)
	assert.Empty(t, env.listReviews())

	res = env.run("review", "delete", r.ID)
	assert.Equal(t, ExitCodeNotFound, res.code)
}

func TestReviewEditsAreOwnerOnly(t *testing.T) {
	env := newEnv(t)
	env.signUp("alice@example.com", "Alice")
	r := env.addReview("--name", "Chez Paul")
	env.signUp("bob@example.com", "Bob")

	res := env.run("review", "delete", r.ID)
	assert.Equal(t, ExitCodeNotFound, res.code)

	env.mustRun("user", "signout")
	res = env.run("review", "update", r.ID, "--note", "1")
	assert.Equal(t, ExitCodeAuthFailed, res.code)

	assert.Len(t, env.listReviews(), 1)
}

func TestReviewDirectNeedsRemote(t *testing.T) {
	env := newEnv(t)
	env.signUp("alice@example.com", "Alice")
	r := env.addReview()

	res := env.run("review", "delete", "--direct", r.ID)
	assert.Equal(t, ExitCodeValidation, res.code)
	assert.Contains(t, res.stderr, "remote backend")
}

func TestReviewColor(t *testing.T) {
	env := newEnv(t)

	tests := []struct {
		note string
		want string
	}{
		{"5", "green"},
		{"4", "green"},
		{"3", "orange"},
		{"2.5", "red"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want+"\n", env.mustRun("review", "color", tt.note), "note %s", tt.note)
	}

	res := env.run("review", "color", "great")
	assert.Equal(t, ExitCodeValidation, res.code)
}
