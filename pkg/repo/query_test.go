package repo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinWhere(t *testing.T) {
	require.Equal(t, "", JoinWhere())
	require.Equal(t, "WHERE a = $1", JoinWhere("a = $1"))
	require.Equal(t, "WHERE a = $1 AND b = $2", JoinWhere("a = $1", "", "b = $2"))
}

func TestInsert(t *testing.T) {
	q := Insert("teams", []string{"name", "department_id"}, "id")
	require.Equal(t, "INSERT INTO teams (name, department_id) VALUES ($1, $2) RETURNING id", q)
}

func TestUpdate(t *testing.T) {
	q := Update("teams", []string{"name", "updated_at"}, "id = $3")
	require.Equal(t, "UPDATE teams SET name = $1, updated_at = $2 WHERE id = $3", q)
}

func TestFormatLimitOffset(t *testing.T) {
	require.Equal(t, "", FormatLimitOffset(0, 0))
	require.Equal(t, "LIMIT 10", FormatLimitOffset(10, 0))
	require.Equal(t, "OFFSET 5", FormatLimitOffset(0, 5))
	require.Equal(t, "LIMIT 10 OFFSET 5", FormatLimitOffset(10, 5))
}

func TestBatchInsertQueryN(t *testing.T) {
	q, args := BatchInsertQueryN("INSERT INTO team_members (team_id, user_id) VALUES", [][]any{
		{"t1", "u1"},
		{"t1", "u2"},
	})
	require.Equal(t, "INSERT INTO team_members (team_id, user_id) VALUES ($1, $2), ($3, $4)", q)
	require.Equal(t, []any{"t1", "u1", "t1", "u2"}, args)

	q, args = BatchInsertQueryN("INSERT INTO x (a) VALUES", nil)
	require.Equal(t, "INSERT INTO x (a) VALUES", q)
	require.Nil(t, args)
}
